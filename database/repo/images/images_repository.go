package images

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/internal/apperr"
)

// Repository 图片仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的图片仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert 新增图片记录，file_path 重复时返回 conflict
func (r *Repository) Insert(ctx context.Context, image *models.Image) error {
	err := r.db.WithContext(ctx).Create(image).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(apperr.KindConflict, apperr.CodeRecordConflict,
			fmt.Errorf("image path %s already recorded: %w", image.FilePath, err))
	}
	return apperr.IO(apperr.CodeRecordFailed, err)
}

// GetByID 按 id 查询
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(apperr.CodeImageNotFound, "image not found")
		}
		return nil, err
	}
	return &image, nil
}

// List 按创建时间倒序，pageSize <= 0 时返回全部
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]*models.Image, int64, error) {
	var (
		images []*models.Image
		total  int64
	)

	if err := r.db.WithContext(ctx).Model(&models.Image{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id")
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	if err := query.Find(&images).Error; err != nil {
		return nil, 0, err
	}
	return images, total, nil
}

// ExistingIDs 返回 ids 中实际存在的图片 id（单次 IN 查询）
func (r *Repository) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var rows []string
	if err := r.db.WithContext(ctx).Model(&models.Image{}).Where("id IN ?", ids).Pluck("id", &rows).Error; err != nil {
		return nil, err
	}
	for _, id := range rows {
		found[id] = struct{}{}
	}
	return found, nil
}

// Exists 检查单个图片是否存在
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Image{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LockByID 在事务内锁定图片行，图片不存在时返回 image_not_found
func (r *Repository) LockByID(ctx context.Context, id string) error {
	var image models.Image
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&image, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(apperr.CodeImageNotFound, "image not found")
	}
	return err
}

// Delete 删除图片记录，相册成员关系由外键级联删除
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Image{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodeImageNotFound, "image not found")
	}
	return nil
}
