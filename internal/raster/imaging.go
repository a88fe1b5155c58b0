package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// ImagingProcessor 纯 Go 实现
type ImagingProcessor struct {
	quality   int
	maxPixels int
}

type imagingImage struct {
	img image.Image
}

func (i *imagingImage) Width() int  { return i.img.Bounds().Dx() }
func (i *imagingImage) Height() int { return i.img.Bounds().Dy() }

// NewImagingProcessor quality 作用于 JPEG 与 WebP
func NewImagingProcessor(quality, maxPixels int) *ImagingProcessor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &ImagingProcessor{quality: quality, maxPixels: maxPixels}
}

func (p *ImagingProcessor) Name() string { return "imaging" }

func (p *ImagingProcessor) Decode(data []byte) (Image, error) {
	if err := checkPixels(data, p.maxPixels); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &imagingImage{img: img}, nil
}

func (p *ImagingProcessor) Contain(src Image, edge int, background color.NRGBA) (Image, error) {
	s, ok := src.(*imagingImage)
	if !ok {
		return nil, fmt.Errorf("imaging: foreign image type %T", src)
	}
	if edge <= 0 {
		return nil, fmt.Errorf("imaging: invalid edge %d", edge)
	}

	w, h := containSize(s.Width(), s.Height(), edge)
	resized := imaging.Resize(s.img, w, h, imaging.Lanczos)

	// Overlay 按 alpha 混合，透明区域落在白底上
	canvas := imaging.New(edge, edge, background)
	return &imagingImage{img: imaging.OverlayCenter(canvas, resized, 1.0)}, nil
}

func (p *ImagingProcessor) Encode(w io.Writer, img Image, format Format) error {
	i, ok := img.(*imagingImage)
	if !ok {
		return fmt.Errorf("imaging: foreign image type %T", img)
	}

	switch format {
	case JPEG:
		return imaging.Encode(w, i.img, imaging.JPEG, imaging.JPEGQuality(p.quality))
	case PNG:
		return imaging.Encode(w, i.img, imaging.PNG)
	case GIF:
		return imaging.Encode(w, i.img, imaging.GIF)
	case BMP:
		return imaging.Encode(w, i.img, imaging.BMP)
	case TIFF:
		return imaging.Encode(w, i.img, imaging.TIFF)
	case WEBP:
		options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(p.quality))
		if err != nil {
			return fmt.Errorf("failed to create webp encoder options: %w", err)
		}
		return webp.Encode(w, i.img, options)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func (p *ImagingProcessor) Release(Image) {}
