package galleries

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/internal/apperr"
)

// Repository 相册仓库 - 封装相册与成员关系的数据库操作
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的相册仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Summary 列表项：相册、图片数量与封面（position 1）
type Summary struct {
	Gallery    *models.Gallery
	ImageCount int64
	Cover      *models.GalleryImage
}

func galleryNotFound() error {
	return apperr.NotFound(apperr.CodeGalleryNotFound, "gallery not found")
}

func translateSlugErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(apperr.CodeSlugTaken, "slug already in use")
	}
	return err
}

// Create 新建相册，slug 重复返回 conflict
func (r *Repository) Create(ctx context.Context, gallery *models.Gallery) error {
	gallery.Slug = strings.ToLower(gallery.Slug)
	return translateSlugErr(r.db.WithContext(ctx).Create(gallery).Error)
}

// FindBySlugOrID slug 不区分大小写
func (r *Repository) FindBySlugOrID(ctx context.Context, key string) (*models.Gallery, error) {
	var gallery models.Gallery
	err := r.db.WithContext(ctx).
		Where("slug = ? OR id = ?", strings.ToLower(key), key).
		First(&gallery).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, galleryNotFound()
		}
		return nil, err
	}
	return &gallery, nil
}

// LockByID 在事务内锁定相册行（SELECT ... FOR UPDATE）
func (r *Repository) LockByID(ctx context.Context, id string) (*models.Gallery, error) {
	var gallery models.Gallery
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&gallery, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, galleryNotFound()
		}
		return nil, err
	}
	return &gallery, nil
}

// List 按创建时间倒序，statuses 为空时不过滤
func (r *Repository) List(ctx context.Context, statuses []models.GalleryStatus) ([]*Summary, error) {
	var list []*models.Gallery
	query := r.db.WithContext(ctx).Model(&models.Gallery{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Order("created_at DESC").Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []*Summary{}, nil
	}

	ids := make([]string, len(list))
	for i, g := range list {
		ids[i] = g.ID
	}

	var counts []struct {
		GalleryID string
		Count     int64
	}
	if err := r.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Select("gallery_id, COUNT(*) AS count").
		Where("gallery_id IN ?", ids).
		Group("gallery_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	countMap := make(map[string]int64, len(counts))
	for _, c := range counts {
		countMap[c.GalleryID] = c.Count
	}

	var covers []models.GalleryImage
	if err := r.db.WithContext(ctx).Preload("Image").
		Where("gallery_id IN ? AND position = 1", ids).
		Find(&covers).Error; err != nil {
		return nil, err
	}
	coverMap := make(map[string]*models.GalleryImage, len(covers))
	for i := range covers {
		coverMap[covers[i].GalleryID] = &covers[i]
	}

	result := make([]*Summary, len(list))
	for i, g := range list {
		result[i] = &Summary{
			Gallery:    g,
			ImageCount: countMap[g.ID],
			Cover:      coverMap[g.ID],
		}
	}
	return result, nil
}

// Update 按字段更新，slug 冲突返回 conflict
func (r *Repository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if slug, ok := updates["slug"].(string); ok {
		updates["slug"] = strings.ToLower(slug)
	}
	result := r.db.WithContext(ctx).Model(&models.Gallery{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translateSlugErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return galleryNotFound()
	}
	return nil
}

// Delete 删除相册，成员关系由外键级联删除
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Gallery{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return galleryNotFound()
	}
	return nil
}

// Members 按 position 升序返回成员及其图片
func (r *Repository) Members(ctx context.Context, galleryID string) ([]models.GalleryImage, error) {
	var members []models.GalleryImage
	err := r.db.WithContext(ctx).Preload("Image").
		Where("gallery_id = ?", galleryID).
		Order("position").
		Find(&members).Error
	return members, err
}

// MemberIDs 按 position 升序返回图片 id
func (r *Repository) MemberIDs(ctx context.Context, galleryID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Where("gallery_id = ?", galleryID).
		Order("position").
		Pluck("image_id", &ids).Error
	return ids, err
}

// ClearMembers 删除相册全部成员关系
func (r *Repository) ClearMembers(ctx context.Context, galleryID string) error {
	return r.db.WithContext(ctx).Where("gallery_id = ?", galleryID).Delete(&models.GalleryImage{}).Error
}

// InsertMembers 批量插入成员
func (r *Repository) InsertMembers(ctx context.Context, rows []models.GalleryImage) error {
	if len(rows) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&rows).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.KindConflict, apperr.CodeImageAlreadyInGallery, err)
	}
	return err
}

// MaxPosition 空相册返回 0
func (r *Repository) MaxPosition(ctx context.Context, galleryID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Where("gallery_id = ?", galleryID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&max).Error
	return max, err
}

// HasMember 图片是否已在相册中
func (r *Repository) HasMember(ctx context.Context, galleryID, imageID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Where("gallery_id = ? AND image_id = ?", galleryID, imageID).
		Count(&count).Error
	return count > 0, err
}

// DeleteMember 删除单个成员，返回是否存在
func (r *Repository) DeleteMember(ctx context.Context, galleryID, imageID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("gallery_id = ? AND image_id = ?", galleryID, imageID).
		Delete(&models.GalleryImage{})
	return result.RowsAffected > 0, result.Error
}

// SetPosition 更新单个成员的位置
func (r *Repository) SetPosition(ctx context.Context, galleryID, imageID string, position int) error {
	return r.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Where("gallery_id = ? AND image_id = ?", galleryID, imageID).
		Update("position", position).Error
}

// GalleriesContaining 返回包含该图片的相册 id
func (r *Repository) GalleriesContaining(ctx context.Context, imageID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Where("image_id = ?", imageID).
		Order("gallery_id").
		Pluck("gallery_id", &ids).Error
	return ids, err
}
