package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Dimensions 原图像素尺寸
type Dimensions struct {
	Width  int
	Height int
}

// DetectDimensions reads only the image header.
func DetectDimensions(data []byte) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, fmt.Errorf("invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

func checkPixels(data []byte, maxPixels int) error {
	if maxPixels <= 0 {
		return nil
	}
	d, err := DetectDimensions(data)
	if err != nil {
		// 交给解码器给出具体错误
		return nil
	}
	if d.Width*d.Height > maxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, d.Width, d.Height)
	}
	return nil
}
