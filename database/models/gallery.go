package models

import "time"

// GalleryStatus 相册发布状态
type GalleryStatus string

const (
	GalleryStatusDraft     GalleryStatus = "draft"
	GalleryStatusPublished GalleryStatus = "published"
	GalleryStatusArchived  GalleryStatus = "archived"
)

// Valid 是否为已知状态
func (s GalleryStatus) Valid() bool {
	switch s {
	case GalleryStatusDraft, GalleryStatusPublished, GalleryStatusArchived:
		return true
	}
	return false
}

// Gallery 相册，slug 以小写形式存储
type Gallery struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Slug        string         `gorm:"size:191;not null;uniqueIndex:idx_galleries_slug" json:"slug"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description *string        `gorm:"type:text" json:"description"`
	Status      GalleryStatus  `gorm:"size:16;not null;default:draft;index" json:"status"`
	AuthorID    *string        `gorm:"size:64;index" json:"author_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	PublishedAt *time.Time     `json:"published_at"`
	Images      []GalleryImage `gorm:"foreignKey:GalleryID;constraint:OnDelete:CASCADE" json:"-"`
}

// GalleryImage 相册成员关系，position 在同一相册内从 1 开始连续
type GalleryImage struct {
	GalleryID       string  `gorm:"primaryKey;size:36;uniqueIndex:idx_gallery_images_position,priority:1" json:"gallery_id"`
	ImageID         string  `gorm:"primaryKey;size:36;index" json:"image_id"`
	Position        int     `gorm:"not null;uniqueIndex:idx_gallery_images_position,priority:2" json:"position"`
	CaptionOverride *string `gorm:"type:text" json:"caption_override"`
	Image           Image   `gorm:"foreignKey:ImageID;constraint:OnDelete:CASCADE" json:"-"`
}
