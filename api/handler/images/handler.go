package images

import (
	"time"

	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/internal/image"
)

// Handler 图片处理器
type Handler struct {
	pipeline *image.Pipeline
	service  *image.Service
}

// NewHandler 图片处理器
func NewHandler(pipeline *image.Pipeline, service *image.Service) *Handler {
	return &Handler{pipeline: pipeline, service: service}
}

// ImageDTO 图片记录及其访问地址
type ImageDTO struct {
	ID         string            `json:"id"`
	FilePath   string            `json:"file_path"`
	Filename   string            `json:"filename"`
	SHA256     *string           `json:"sha256"`
	MimeType   string            `json:"mime_type"`
	Width      *int              `json:"width"`
	Height     *int              `json:"height"`
	FileSize   int64             `json:"file_size"`
	Title      *string           `json:"title"`
	AltText    *string           `json:"alt_text"`
	Caption    *string           `json:"caption"`
	SourceURL  *string           `json:"source_url"`
	UploadedBy *string           `json:"uploaded_by"`
	CreatedAt  time.Time         `json:"created_at"`
	URLs       map[string]string `json:"urls"`
	Thumbnails map[string]string `json:"thumbnails"`
}

func toImageDTO(v *image.View) *ImageDTO {
	img := v.Image
	return &ImageDTO{
		ID:         img.ID,
		FilePath:   img.FilePath,
		Filename:   v.Filename,
		SHA256:     img.SHA256,
		MimeType:   img.MimeType,
		Width:      img.Width,
		Height:     img.Height,
		FileSize:   img.FileSize,
		Title:      img.Title,
		AltText:    img.AltText,
		Caption:    img.Caption,
		SourceURL:  img.SourceURL,
		UploadedBy: img.UploadedBy,
		CreatedAt:  img.CreatedAt,
		URLs:       v.URLs,
		Thumbnails: v.Thumbnails,
	}
}

// UploadResponse POST /api/images 的返回体
type UploadResponse struct {
	ID         string            `json:"id"`
	Path       string            `json:"path"`
	MimeType   string            `json:"mime_type"`
	FileSize   int64             `json:"file_size"`
	SHA256     *string           `json:"sha256"`
	Width      *int              `json:"width"`
	Height     *int              `json:"height"`
	Thumbnails map[string]string `json:"thumbnails"`
}

func toUploadResponse(img *models.Image, path string, thumbnails map[string]string) UploadResponse {
	return UploadResponse{
		ID:         img.ID,
		Path:       path,
		MimeType:   img.MimeType,
		FileSize:   img.FileSize,
		SHA256:     img.SHA256,
		Width:      img.Width,
		Height:     img.Height,
		Thumbnails: thumbnails,
	}
}
