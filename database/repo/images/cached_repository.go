package images

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/anoixa/folio/cache"
	"github.com/anoixa/folio/database/models"
)

// DefaultCacheTTL 默认缓存过期时间
const DefaultCacheTTL = 5 * time.Minute

// Store 图片记录存储
type Store interface {
	Insert(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, id string) (*models.Image, error)
	List(ctx context.Context, page, pageSize int) ([]*models.Image, int64, error)
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	Delete(ctx context.Context, id string) error
}

// CachedRepository 带缓存的图片仓库装饰器，只缓存单条记录
type CachedRepository struct {
	Store
	cache cache.Provider
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedRepository 创建带缓存的图片仓库
func NewCachedRepository(repo Store, c cache.Provider, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if c == nil {
		c = cache.Noop{}
	}
	return &CachedRepository{Store: repo, cache: c, ttl: ttl}
}

// GetByID 先查缓存，未命中时合并并发的数据库查询
func (c *CachedRepository) GetByID(ctx context.Context, id string) (*models.Image, error) {
	key := cache.KeyImage(id)

	var cached models.Image
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !cache.IsCacheMiss(err) {
		slog.Warn("Image cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		image, err := c.Store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(ctx, key, image, c.ttl); err != nil {
			slog.Warn("Image cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return image, nil
	})
	if err != nil {
		return nil, err
	}

	// 返回副本，避免共享同一指针
	image := *v.(*models.Image)
	return &image, nil
}

// Delete 删除记录并清除缓存
func (c *CachedRepository) Delete(ctx context.Context, id string) error {
	err := c.Store.Delete(ctx, id)
	c.Evict(ctx, id)
	return err
}

// Evict 清除单条缓存，记录在事务中删除后由调用方在提交后调用
func (c *CachedRepository) Evict(ctx context.Context, id string) {
	if err := c.cache.Delete(ctx, cache.KeyImage(id)); err != nil {
		slog.Warn("Image cache invalidation failed", slog.String("id", id), slog.Any("error", err))
	}
}
