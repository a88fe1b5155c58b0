// Package app wires configuration into the long-lived services of the
// server and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/anoixa/folio/api/core"
	"github.com/anoixa/folio/cache"
	"github.com/anoixa/folio/cache/memory"
	"github.com/anoixa/folio/cache/redis"
	"github.com/anoixa/folio/config"
	"github.com/anoixa/folio/database"
	"github.com/anoixa/folio/database/repo/images"
	"github.com/anoixa/folio/internal/auth"
	"github.com/anoixa/folio/internal/gallery"
	"github.com/anoixa/folio/internal/image"
	"github.com/anoixa/folio/internal/raster"
	"github.com/anoixa/folio/internal/variant"
	"github.com/anoixa/folio/storage"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	DB        *gorm.DB
	Storage   storage.Provider
	Cache     cache.Provider
	Processor raster.Processor
	Layout    variant.Layout

	ImagesRepo   *images.Repository
	ImageRecords images.Store
	Engine       *gallery.Engine
	Galleries    *gallery.Service
	Pipeline     *image.Pipeline
	Images       *image.Service
	JWT          *auth.JWTService
}

// NewContainer 按顺序初始化数据库、存储、缓存与服务，任一步失败时释放已创建的资源
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.init(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) init(ctx context.Context) error {
	cfg := c.Config

	db, err := database.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	c.Logger.Info("Database initialized", slog.String("type", cfg.DBType))

	provider, err := storage.NewProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = provider
	c.Logger.Info("Storage initialized", slog.String("provider", provider.Name()))

	cacheProvider, err := newCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.Cache = cacheProvider
	c.Logger.Info("Cache initialized", slog.String("provider", cacheProvider.Name()))

	processor, err := raster.New(cfg.ImageProcessor, cfg.ImageQuality, cfg.ImageMaxPixels)
	if err != nil {
		return err
	}
	c.Processor = processor

	c.Layout = variant.NewLayout(cfg.UploadOriginalDir, cfg.UploadURLPrefix, cfg.ImageThumbnails)
	generator := variant.NewGenerator(processor, provider, c.Layout,
		variant.WithConcurrency(cfg.ImageVariantLimit),
		variant.WithLogger(c.Logger))

	c.ImagesRepo = images.NewRepository(db)
	c.ImageRecords = images.NewCachedRepository(c.ImagesRepo, cacheProvider, cfg.CacheImageTTL)
	c.Engine = gallery.NewEngine(db, c.Logger)
	c.Galleries = gallery.NewService(db, c.Engine, provider, c.Layout)
	c.Pipeline = image.NewPipeline(provider, c.ImageRecords, generator, c.Logger)
	c.Images = image.NewService(c.ImageRecords, c.Engine, provider, c.Layout, c.Logger)

	jwtService, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return fmt.Errorf("failed to initialize jwt: %w", err)
	}
	c.JWT = jwtService

	return nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Provider, error) {
	switch strings.ToLower(cfg.CacheType) {
	case "", cache.TypeMemory:
		maxCost := cfg.CacheMaxCostMB << 20
		if maxCost <= 0 {
			maxCost = 64 << 20
		}
		return memory.NewMemory(memory.Config{
			NumCounters: 1e6,
			MaxCost:     maxCost,
			BufferItems: 64,
		})
	case cache.TypeRedis:
		return redis.NewRedis(ctx, redis.Config{
			Addr:     cfg.CacheRedisAddr,
			Password: cfg.CacheRedisPassword,
			DB:       cfg.CacheRedisDB,
			Prefix:   "folio:",
		})
	case cache.TypeNone, "noop":
		return cache.Noop{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}

// ServerDependencies HTTP 层所需的依赖
func (c *Container) ServerDependencies() *core.ServerDependencies {
	return &core.ServerDependencies{
		Config:    c.Config,
		Logger:    c.Logger,
		DB:        c.DB,
		Storage:   c.Storage,
		Cache:     c.Cache,
		Layout:    c.Layout,
		Pipeline:  c.Pipeline,
		Images:    c.Images,
		Galleries: c.Galleries,
		Tokens:    c.JWT,
	}
}

// Close 关闭所有服务，可重复调用
func (c *Container) Close() error {
	var errs []error

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
		}
		c.Cache = nil
	}
	if c.DB != nil {
		if err := database.Close(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
		c.DB = nil
	}
	if _, ok := c.Processor.(*raster.VipsProcessor); ok {
		raster.ShutdownVips()
		c.Processor = nil
	}

	return errors.Join(errs...)
}
