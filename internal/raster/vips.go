package raster

import (
	"fmt"
	"image/color"
	"io"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

// VipsProcessor libvips 实现，适合大图
type VipsProcessor struct {
	quality   int
	maxPixels int
}

type vipsImage struct {
	ref *vips.ImageRef
}

func (i *vipsImage) Width() int  { return i.ref.Width() }
func (i *vipsImage) Height() int { return i.ref.Height() }

func NewVipsProcessor(quality, maxPixels int) *VipsProcessor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &VipsProcessor{quality: quality, maxPixels: maxPixels}
}

// ShutdownVips 进程退出前释放 libvips
func ShutdownVips() {
	vips.Shutdown()
}

func (p *VipsProcessor) Name() string { return "vips" }

func (p *VipsProcessor) Decode(data []byte) (Image, error) {
	if err := checkPixels(data, p.maxPixels); err != nil {
		return nil, err
	}
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if err := ref.AutoRotate(); err != nil {
		ref.Close()
		return nil, fmt.Errorf("failed to auto rotate image: %w", err)
	}
	return &vipsImage{ref: ref}, nil
}

func (p *VipsProcessor) Contain(src Image, edge int, background color.NRGBA) (Image, error) {
	s, ok := src.(*vipsImage)
	if !ok {
		return nil, fmt.Errorf("vips: foreign image type %T", src)
	}
	if edge <= 0 {
		return nil, fmt.Errorf("vips: invalid edge %d", edge)
	}

	ref, err := s.ref.Copy()
	if err != nil {
		return nil, fmt.Errorf("vips: copy failed: %w", err)
	}

	w, h := containSize(s.Width(), s.Height(), edge)
	bg := &vips.Color{R: background.R, G: background.G, B: background.B}

	steps := []func() error{
		func() error { return ref.Thumbnail(w, h, vips.InterestingNone) },
		func() error {
			if ref.HasAlpha() {
				return ref.Flatten(bg)
			}
			return nil
		},
		func() error {
			return ref.EmbedBackground((edge-ref.Width())/2, (edge-ref.Height())/2, edge, edge, bg)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			ref.Close()
			return nil, fmt.Errorf("vips: contain %d failed: %w", edge, err)
		}
	}
	return &vipsImage{ref: ref}, nil
}

func (p *VipsProcessor) Encode(w io.Writer, img Image, format Format) error {
	i, ok := img.(*vipsImage)
	if !ok {
		return fmt.Errorf("vips: foreign image type %T", img)
	}

	var (
		buf []byte
		err error
	)
	switch format {
	case JPEG:
		buf, _, err = i.ref.ExportJpeg(&vips.JpegExportParams{Quality: p.quality, StripMetadata: true})
	case PNG:
		buf, _, err = i.ref.ExportPng(vips.NewPngExportParams())
	case WEBP:
		buf, _, err = i.ref.ExportWebp(&vips.WebpExportParams{
			Quality:         p.quality,
			ReductionEffort: 4,
			StripMetadata:   true,
		})
	case GIF:
		buf, _, err = i.ref.ExportGIF(vips.NewGifExportParams())
	case TIFF:
		buf, _, err = i.ref.ExportTiff(vips.NewTiffExportParams())
	case BMP:
		// libvips 没有 BMP 编码器，转成 image.Image 交给 imaging
		goImg, convErr := i.ref.ToImage(nil)
		if convErr != nil {
			return fmt.Errorf("vips: to image failed: %w", convErr)
		}
		return imaging.Encode(w, goImg, imaging.BMP)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("vips: export %s failed: %w", format, err)
	}

	_, err = w.Write(buf)
	return err
}

func (p *VipsProcessor) Release(img Image) {
	if i, ok := img.(*vipsImage); ok && i.ref != nil {
		i.ref.Close()
	}
}
