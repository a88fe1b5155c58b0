// Package image ingests uploaded originals and serves image records with
// their resolved URLs.
package image

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/database/repo/images"
	"github.com/anoixa/folio/internal/apperr"
	"github.com/anoixa/folio/internal/hasher"
	"github.com/anoixa/folio/internal/raster"
	"github.com/anoixa/folio/internal/variant"
	"github.com/anoixa/folio/storage"
	"github.com/anoixa/folio/utils"
)

// UploadInput 一次上传的原始数据与可选元数据
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader

	Title      *string
	Caption    *string
	AltText    *string
	SourceURL  *string
	UploadedBy *string
}

// UploadResult 上传结果，URL 均为公开访问路径
type UploadResult struct {
	Image      *models.Image
	Path       string
	Thumbnails map[string]string
}

// Pipeline 上传流水线：保存原图、计算哈希、生成缩略图、写入记录
type Pipeline struct {
	storage   storage.Provider
	records   images.Store
	generator *variant.Generator
	layout    variant.Layout
	logger    *slog.Logger
	newID     func() string
}

// NewPipeline 创建上传流水线
func NewPipeline(provider storage.Provider, records images.Store, generator *variant.Generator, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		storage:   provider,
		records:   records,
		generator: generator,
		layout:    generator.Layout(),
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Upload persists the original under a fresh id, hashes it from storage,
// derives dimensions and variants, then records it.
//
// Failing to decode or thumbnail the file is logged and tolerated. Any other
// failure removes the stored original and its variants before returning. The
// pipeline ignores caller cancellation once it starts writing.
func (p *Pipeline) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	ctx = context.WithoutCancel(ctx)

	id := p.newID()
	filename := id + utils.SafeExtension(in.Filename)
	key := p.layout.OriginalKey(filename)
	log := p.logger.With(
		slog.String("image_id", id),
		slog.String("upload_name", utils.SanitizeLogFilename(in.Filename)),
	)

	if in.Body == nil {
		return nil, apperr.Invalid(apperr.CodeValidation, "upload body is empty")
	}

	// 1. 保存原图
	if err := p.storage.SaveWithContext(ctx, key, in.Body); err != nil {
		p.discardOriginal(ctx, log, key)
		return nil, apperr.IO(apperr.CodeStorageWriteFailed, err)
	}

	// 2-3. 从已保存的文件计算哈希与大小
	digest, err := p.hashStored(ctx, key)
	if err != nil {
		p.discardOriginal(ctx, log, key)
		return nil, apperr.IO(apperr.CodeHashFailed, err)
	}

	record := &models.Image{
		ID:         id,
		FilePath:   key,
		SHA256:     &digest.SHA256,
		FileSize:   digest.Size,
		Title:      utils.StripTagsPtr(in.Title),
		Caption:    utils.StripTagsPtr(in.Caption),
		AltText:    utils.StripTagsPtr(in.AltText),
		SourceURL:  in.SourceURL,
		UploadedBy: in.UploadedBy,
	}

	// 4. 尺寸与缩略图，任一步失败时尺寸留空，只记录日志
	variants := p.derive(ctx, log, record, filename, in.ContentType)

	// 5. 写入记录
	if err := p.records.Insert(ctx, record); err != nil {
		p.generator.Cleanup(ctx, filename)
		p.discardOriginal(ctx, log, key)
		if apperr.KindOf(err) == "" {
			err = apperr.IO(apperr.CodeRecordFailed, err)
		}
		return nil, err
	}

	thumbnails := make(map[string]string, len(variants))
	for name, vkey := range variants {
		thumbnails[name] = p.layout.URL(vkey)
	}

	log.Info("Image uploaded",
		slog.String("mime_type", record.MimeType),
		slog.Int64("file_size", record.FileSize),
		slog.Int("variants", len(variants)))

	return &UploadResult{
		Image:      record,
		Path:       p.layout.URL(key),
		Thumbnails: thumbnails,
	}, nil
}

func (p *Pipeline) hashStored(ctx context.Context, key string) (hasher.Digest, error) {
	rc, err := p.storage.GetWithContext(ctx, key)
	if err != nil {
		return hasher.Digest{}, err
	}
	defer rc.Close()
	return hasher.Sum(rc)
}

// derive 填充 MimeType，缩略图全部生成成功时才写入 Width/Height，返回已写入的变体 key
func (p *Pipeline) derive(ctx context.Context, log *slog.Logger, record *models.Image, filename, declared string) map[string]string {
	data, err := p.readStored(ctx, record.FilePath)
	if err != nil {
		log.Warn("Failed to read stored original", slog.Any("error", err))
		record.MimeType = utils.DetectContentType(nil, declared)
		return map[string]string{}
	}
	record.MimeType = utils.DetectContentType(data, declared)

	dims, err := raster.DetectDimensions(data)
	if err != nil {
		log.Warn("Image dimensions unavailable",
			slog.String("kind", string(apperr.KindDecodeFailed)), slog.Any("error", err))
		return map[string]string{}
	}

	processor := p.generator.Processor()
	src, err := processor.Decode(data)
	if err != nil {
		log.Warn("Skipping thumbnails, decode failed",
			slog.String("kind", string(apperr.KindDecodeFailed)), slog.Any("error", err))
		return map[string]string{}
	}
	defer processor.Release(src)

	variants, err := p.generator.Generate(ctx, src, filename)
	if err != nil {
		log.Warn("Thumbnail generation failed",
			slog.String("kind", string(apperr.KindOf(err))), slog.Any("error", err))
		return map[string]string{}
	}
	record.Width, record.Height = &dims.Width, &dims.Height
	return variants
}

func (p *Pipeline) readStored(ctx context.Context, key string) ([]byte, error) {
	rc, err := p.storage.GetWithContext(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (p *Pipeline) discardOriginal(ctx context.Context, log *slog.Logger, key string) {
	if err := storage.DeleteIfExists(ctx, p.storage, key); err != nil {
		log.Error("Failed to remove original after failed upload",
			slog.String("key", key), slog.Any("error", err))
	}
}
