package galleries

import (
	"encoding/json"
	"time"

	"github.com/anoixa/folio/internal/gallery"
)

// Handler 相册处理器
type Handler struct {
	service *gallery.Service
}

// NewHandler 相册处理器
func NewHandler(service *gallery.Service) *Handler {
	return &Handler{service: service}
}

// GalleryImageDTO 相册内的图片
type GalleryImageDTO struct {
	ID              string            `json:"id"`
	Title           *string           `json:"title"`
	Filename        string            `json:"filename"`
	CaptionOverride *string           `json:"captionOverride"`
	Position        int               `json:"position"`
	URLs            map[string]string `json:"urls"`
}

// GalleryDTO 相册，images 按 position 升序
type GalleryDTO struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Status      string            `json:"status"`
	AuthorID    *string           `json:"authorId"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	PublishedAt *time.Time        `json:"publishedAt"`
	ImageCount  int64             `json:"imageCount"`
	Images      []GalleryImageDTO `json:"images"`
}

func toGalleryDTO(d *gallery.Detail) *GalleryDTO {
	g := d.Gallery
	dto := &GalleryDTO{
		ID:          g.ID,
		Slug:        g.Slug,
		Title:       g.Title,
		Description: g.Description,
		Status:      string(g.Status),
		AuthorID:    g.AuthorID,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
		PublishedAt: g.PublishedAt,
		ImageCount:  d.ImageCount,
		Images:      make([]GalleryImageDTO, len(d.Images)),
	}
	for i, it := range d.Images {
		urls := it.URLs
		if urls == nil {
			urls = map[string]string{}
		}
		dto.Images[i] = GalleryImageDTO{
			ID:              it.ID,
			Title:           it.Title,
			Filename:        it.Filename,
			CaptionOverride: it.CaptionOverride,
			Position:        it.Position,
			URLs:            urls,
		}
	}
	return dto
}

// nullableString 区分字段缺失与显式 null
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// ptr 缺失返回 nil，显式 null 视为空串（清空）
func (n nullableString) ptr() *string {
	if !n.Set {
		return nil
	}
	if n.Value == nil {
		empty := ""
		return &empty
	}
	return n.Value
}
