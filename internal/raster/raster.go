// Package raster is the image decoding and resizing capability used to derive
// thumbnails. Two backends exist: a pure Go one built on disintegration/imaging
// and a libvips one built on govips.
package raster

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat 无法按扩展名确定输出格式
var ErrUnsupportedFormat = errors.New("raster: unsupported image format")

// ErrTooLarge 源图像像素数超过上限
var ErrTooLarge = errors.New("raster: image exceeds pixel limit")

// White 缩略图默认填充色
var White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Format 输出编码格式
type Format int

const (
	JPEG Format = iota
	PNG
	GIF
	WEBP
	BMP
	TIFF
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case GIF:
		return "gif"
	case WEBP:
		return "webp"
	case BMP:
		return "bmp"
	case TIFF:
		return "tiff"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

var formatsByExt = map[string]Format{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".gif":  GIF,
	".webp": WEBP,
	".bmp":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
}

// FormatFromFilename 变体沿用源文件的格式
func FormatFromFilename(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if f, ok := formatsByExt[ext]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Image is a decoded raster owned by the Processor that produced it.
type Image interface {
	Width() int
	Height() int
}

// Processor decodes, resizes and encodes rasters.
// Implementations must allow concurrent Contain and Encode calls on the same
// source Image.
type Processor interface {
	Name() string
	Decode(data []byte) (Image, error)
	// Contain scales src to fit inside an edge×edge square, keeping the aspect
	// ratio, and pads the rest with background. The result is exactly edge×edge.
	Contain(src Image, edge int, background color.NRGBA) (Image, error)
	Encode(w io.Writer, img Image, format Format) error
	// Release frees backend resources held by img. Safe to call with nil.
	Release(img Image)
}

// containSize 计算等比缩放后落在 edge×edge 内的尺寸，小图会被放大
func containSize(w, h, edge int) (int, int) {
	if w <= 0 || h <= 0 {
		return edge, edge
	}
	if w >= h {
		nh := int(float64(h)*float64(edge)/float64(w) + 0.5)
		if nh < 1 {
			nh = 1
		}
		return edge, nh
	}
	nw := int(float64(w)*float64(edge)/float64(h) + 0.5)
	if nw < 1 {
		nw = 1
	}
	return nw, edge
}

// New 按名称创建处理器，未知名称返回错误
func New(name string, quality, maxPixels int) (Processor, error) {
	switch strings.ToLower(name) {
	case "", "imaging":
		return NewImagingProcessor(quality, maxPixels), nil
	case "vips", "libvips":
		return NewVipsProcessor(quality, maxPixels), nil
	default:
		return nil, fmt.Errorf("unknown image processor %q", name)
	}
}
