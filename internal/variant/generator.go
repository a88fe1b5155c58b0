// Package variant derives fixed-size square thumbnails from a decoded source
// image and lays them out in storage next to the original.
package variant

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/anoixa/folio/internal/apperr"
	"github.com/anoixa/folio/internal/raster"
	"github.com/anoixa/folio/storage"
)

// Generator 缩略图生成器
type Generator struct {
	processor   raster.Processor
	storage     storage.Provider
	layout      Layout
	concurrency int
	logger      *slog.Logger
}

// Option 生成器可选配置
type Option func(*Generator)

// WithConcurrency 同时渲染的尺寸数，<=0 表示全部并行
func WithConcurrency(n int) Option {
	return func(g *Generator) { g.concurrency = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func NewGenerator(processor raster.Processor, provider storage.Provider, layout Layout, opts ...Option) *Generator {
	g := &Generator{
		processor: processor,
		storage:   provider,
		layout:    layout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Layout 返回生成器使用的路径布局
func (g *Generator) Layout() Layout { return g.layout }

// Processor 返回底层光栅处理器
func (g *Generator) Processor() raster.Processor { return g.processor }

// Generate writes one variant per configured size for filename and returns
// the written keys by size name. On any failure every variant key of this
// filename is removed before the error is returned.
func (g *Generator) Generate(ctx context.Context, src raster.Image, filename string) (map[string]string, error) {
	format, err := raster.FormatFromFilename(filename)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVariantFailed, "", err)
	}

	var (
		mu      sync.Mutex
		written = make(map[string]string, len(g.layout.Sizes))
	)

	eg, egCtx := errgroup.WithContext(ctx)
	if g.concurrency > 0 {
		eg.SetLimit(g.concurrency)
	}
	for _, size := range g.layout.Sizes {
		size := size
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			key := g.layout.VariantKey(size.Edge, filename)
			if err := g.render(egCtx, src, size.Edge, format, key); err != nil {
				return fmt.Errorf("size %s (%d): %w", size.Name, size.Edge, err)
			}
			mu.Lock()
			written[size.Name] = key
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		g.Cleanup(context.WithoutCancel(ctx), filename)
		return nil, apperr.Wrap(apperr.KindVariantFailed, "", err)
	}
	return written, nil
}

func (g *Generator) render(ctx context.Context, src raster.Image, edge int, format raster.Format, key string) error {
	out, err := g.processor.Contain(src, edge, raster.White)
	if err != nil {
		return err
	}
	defer g.processor.Release(out)

	var buf bytes.Buffer
	if err := g.processor.Encode(&buf, out, format); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	if err := g.storage.SaveWithContext(ctx, key, &buf); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Cleanup 删除 filename 的所有变体，忽略不存在的文件
func (g *Generator) Cleanup(ctx context.Context, filename string) {
	for _, key := range g.layout.VariantKeys(filename) {
		if err := storage.DeleteIfExists(ctx, g.storage, key); err != nil {
			g.logger.Warn("Failed to delete variant", slog.String("key", key), slog.Any("error", err))
		}
	}
}
