package image

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"gorm.io/gorm"

	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/database/repo/images"
	"github.com/anoixa/folio/internal/gallery"
	"github.com/anoixa/folio/internal/variant"
	"github.com/anoixa/folio/storage"
)

// View 图片记录及其可访问地址
type View struct {
	Image    *models.Image
	Filename string
	URLs     map[string]string
	// Thumbnails 按尺寸名（small/medium/large）索引，仅包含已存在的变体
	Thumbnails map[string]string
}

// Service 图片查询与删除
type Service struct {
	records images.Store
	engine  *gallery.Engine
	storage storage.Provider
	layout  variant.Layout
	logger  *slog.Logger
}

// NewService 创建图片服务
func NewService(records images.Store, engine *gallery.Engine, provider storage.Provider, layout variant.Layout, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		records: records,
		engine:  engine,
		storage: provider,
		layout:  layout,
		logger:  logger,
	}
}

// List 按创建时间倒序
func (s *Service) List(ctx context.Context, page, pageSize int) ([]*View, int64, error) {
	list, total, err := s.records.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	views := make([]*View, len(list))
	for i, img := range list {
		views[i] = s.view(ctx, img)
	}
	return views, total, nil
}

// Get 按 id 查询
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	img, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, img), nil
}

// evicter 带缓存的记录存储
type evicter interface {
	Evict(ctx context.Context, id string)
}

// Delete removes the image from every gallery (renumbering each) and deletes
// the record in one transaction, then removes the stored original and
// variants.
func (s *Service) Delete(ctx context.Context, id string) error {
	img, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.engine.DeleteImage(ctx, id, func(tx *gorm.DB) error {
		return images.NewRepository(tx).Delete(ctx, id)
	})
	if ev, ok := s.records.(evicter); ok {
		ev.Evict(ctx, id)
	}
	if err != nil {
		return err
	}

	// 记录已删除，文件删除失败只记录日志
	filename := variant.Filename(img.FilePath)
	keys := []string{img.FilePath}
	for _, key := range s.layout.VariantKeys(filename) {
		keys = append(keys, key)
	}
	for _, key := range keys {
		if err := storage.DeleteIfExists(ctx, s.storage, key); err != nil {
			s.logger.Warn("Failed to delete image file",
				slog.String("image_id", id), slog.String("key", key), slog.Any("error", err))
		}
	}
	return nil
}

// Orphans 返回原图已不在存储中的记录
func (s *Service) Orphans(ctx context.Context) ([]*models.Image, error) {
	list, _, err := s.records.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	var orphans []*models.Image
	for _, img := range list {
		ok, err := s.storage.Exists(ctx, img.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", img.FilePath, err)
		}
		if !ok {
			orphans = append(orphans, img)
		}
	}
	return orphans, nil
}

func (s *Service) view(ctx context.Context, img *models.Image) *View {
	resolved := s.layout.Resolve(ctx, s.storage, img.FilePath)
	thumbnails := make(map[string]string, len(s.layout.Sizes))
	for _, size := range s.layout.Sizes {
		if url, ok := resolved.URLs["thumbnail"+strconv.Itoa(size.Edge)]; ok {
			thumbnails[size.Name] = url
		}
	}
	return &View{
		Image:      img,
		Filename:   resolved.Filename,
		URLs:       resolved.URLs,
		Thumbnails: thumbnails,
	}
}
