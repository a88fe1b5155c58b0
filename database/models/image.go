package models

import "time"

// Image 已上传的原图记录
type Image struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	FilePath   string    `gorm:"size:255;not null;uniqueIndex:idx_images_file_path" json:"file_path"`
	SHA256     *string   `gorm:"column:sha256;size:64;index:idx_images_sha256" json:"sha256"`
	MimeType   string    `gorm:"size:100;not null" json:"mime_type"`
	Width      *int      `json:"width"`
	Height     *int      `json:"height"`
	FileSize   int64     `gorm:"not null;default:0" json:"file_size"`
	Title      *string   `gorm:"size:255" json:"title"`
	AltText    *string   `gorm:"size:500" json:"alt_text"`
	Caption    *string   `gorm:"type:text" json:"caption"`
	SourceURL  *string   `gorm:"size:1000" json:"source_url"`
	UploadedBy *string   `gorm:"size:64;index" json:"uploaded_by"`
	CreatedAt  time.Time `gorm:"index:idx_images_created_at" json:"created_at"`
}
