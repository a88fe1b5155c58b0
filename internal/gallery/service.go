package gallery

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anoixa/folio/database"
	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/database/repo/galleries"
	"github.com/anoixa/folio/internal/apperr"
	"github.com/anoixa/folio/internal/variant"
	"github.com/anoixa/folio/storage"
	"github.com/anoixa/folio/utils"
)

const (
	maxTitleLen       = 500
	minTitleLen       = 3
	maxDescriptionLen = 1000
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Item 相册中的一张图片
type Item struct {
	ID              string
	Title           *string
	Filename        string
	CaptionOverride *string
	Position        int
	URLs            map[string]string
}

// Detail 相册及其图片（列表中只包含封面）
type Detail struct {
	Gallery    *models.Gallery
	ImageCount int64
	Images     []Item
}

// CreateInput 创建参数
type CreateInput struct {
	Slug        string
	Title       string
	Description *string
	Status      models.GalleryStatus
	AuthorID    *string
	Selection   Selection
}

// UpdateInput nil 字段不修改；Description 为空串时清空
type UpdateInput struct {
	Title       *string
	Description *string
	Slug        *string
	Status      *models.GalleryStatus
	Selection   Selection
}

// Service 相册服务
type Service struct {
	db      *gorm.DB
	repo    *galleries.Repository
	engine  *Engine
	storage storage.Provider
	layout  variant.Layout
	now     func() time.Time
}

// NewService 创建相册服务
func NewService(db *gorm.DB, engine *Engine, provider storage.Provider, layout variant.Layout) *Service {
	return &Service{
		db:      db,
		repo:    galleries.NewRepository(db),
		engine:  engine,
		storage: provider,
		layout:  layout,
		now:     time.Now,
	}
}

// ParseStatuses 解析逗号分隔的状态过滤，忽略未知值
func ParseStatuses(raw string) []models.GalleryStatus {
	var statuses []models.GalleryStatus
	for _, part := range strings.Split(raw, ",") {
		st := models.GalleryStatus(strings.TrimSpace(part))
		if st.Valid() {
			statuses = append(statuses, st)
		}
	}
	return statuses
}

func invalid(field, reason string) error {
	return apperr.Invalid(apperr.CodeValidation, field+": "+reason)
}

func normalizeSlug(slug string) (string, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if len(slug) < 3 || !slugPattern.MatchString(slug) {
		return "", invalid("slug", "invalid_slug")
	}
	return slug, nil
}

func normalizeTitle(title string) (string, error) {
	title = utils.StripTags(title)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		return "", invalid("title", "invalid_title")
	}
	return title, nil
}

func normalizeDescription(desc *string) (*string, error) {
	if desc == nil {
		return nil, nil
	}
	d := utils.StripTags(*desc)
	if utf8.RuneCountInString(d) > maxDescriptionLen {
		return nil, invalid("description", "too_long")
	}
	if d == "" {
		return nil, nil
	}
	return &d, nil
}

// Create 创建相册，可同时写入初始成员
func (s *Service) Create(ctx context.Context, in CreateInput) (*Detail, error) {
	if strings.TrimSpace(in.Slug) == "" {
		return nil, invalid("slug", "required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalid("title", "required")
	}
	slug, err := normalizeSlug(in.Slug)
	if err != nil {
		return nil, err
	}
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	desc, err := normalizeDescription(in.Description)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = models.GalleryStatusDraft
	}
	if !status.Valid() {
		return nil, invalid("status", "invalid_status")
	}

	g := &models.Gallery{
		ID:          uuid.NewString(),
		Slug:        slug,
		Title:       title,
		Description: desc,
		Status:      status,
		AuthorID:    in.AuthorID,
	}
	if status == models.GalleryStatusPublished {
		now := s.now()
		g.PublishedAt = &now
	}

	err = database.TransactionWithContext(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, g); err != nil {
			return err
		}
		if ids, ok := in.Selection.Normalize(); ok {
			if _, err := s.engine.replaceTx(ctx, tx, g.ID, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, g)
}

// Get 按 slug 或 id 查询，包含全部图片
func (s *Service) Get(ctx context.Context, slugOrID string) (*Detail, error) {
	g, err := s.repo.FindBySlugOrID(ctx, slugOrID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, g)
}

// List 列表项只带封面
func (s *Service) List(ctx context.Context, statuses []models.GalleryStatus) ([]*Detail, error) {
	summaries, err := s.repo.List(ctx, statuses)
	if err != nil {
		return nil, err
	}

	result := make([]*Detail, len(summaries))
	for i, sum := range summaries {
		d := &Detail{Gallery: sum.Gallery, ImageCount: sum.ImageCount, Images: []Item{}}
		if sum.Cover != nil {
			d.Images = append(d.Images, s.item(ctx, *sum.Cover))
		}
		result[i] = d
	}
	return result, nil
}

// Update 更新字段与成员；两者都未提供时返回 no_updates
func (s *Service) Update(ctx context.Context, slugOrID string, in UpdateInput) (*Detail, error) {
	g, err := s.repo.FindBySlugOrID(ctx, slugOrID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Title != nil && *in.Title != "" {
		title, err := normalizeTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Description != nil {
		desc, err := normalizeDescription(in.Description)
		if err != nil {
			return nil, err
		}
		updates["description"] = desc
	}
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
		slug, err := normalizeSlug(*in.Slug)
		if err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}
	if in.Status != nil && in.Status.Valid() {
		updates["status"] = *in.Status
		if *in.Status == models.GalleryStatusPublished {
			updates["published_at"] = s.now()
		}
	}

	ids, resync := in.Selection.Normalize()
	if len(updates) == 0 && !resync {
		return nil, apperr.Invalid(apperr.CodeNoUpdates, "no updates supplied")
	}
	if len(updates) > 0 {
		updates["updated_at"] = s.now()
	}

	err = s.engine.within(ctx, g.ID, func(tx *gorm.DB, _ *models.Gallery) error {
		if len(updates) > 0 {
			if err := s.repo.WithTx(tx).Update(ctx, g.ID, updates); err != nil {
				return err
			}
		}
		if resync {
			if _, err := s.engine.replaceTx(ctx, tx, g.ID, ids); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, g.ID)
}

// Delete 删除相册
func (s *Service) Delete(ctx context.Context, slugOrID string) error {
	g, err := s.repo.FindBySlugOrID(ctx, slugOrID)
	if err != nil {
		return err
	}
	return s.engine.within(ctx, g.ID, func(tx *gorm.DB, _ *models.Gallery) error {
		return s.repo.WithTx(tx).Delete(ctx, g.ID)
	})
}

// AddImage 追加图片到相册末尾
func (s *Service) AddImage(ctx context.Context, slugOrID, imageID string, captionOverride *string) (int, error) {
	imageID = strings.TrimSpace(imageID)
	if imageID == "" {
		return 0, apperr.Invalid(apperr.CodeImageIDRequired, "image_id is required")
	}
	g, err := s.repo.FindBySlugOrID(ctx, slugOrID)
	if err != nil {
		return 0, err
	}
	caption := utils.StripTagsPtr(captionOverride)
	if caption != nil && *caption == "" {
		caption = nil
	}
	return s.engine.Append(ctx, g.ID, imageID, caption)
}

// RemoveImage 从相册移除图片
func (s *Service) RemoveImage(ctx context.Context, slugOrID, imageID string) error {
	g, err := s.repo.FindBySlugOrID(ctx, slugOrID)
	if err != nil {
		return err
	}
	return s.engine.Remove(ctx, g.ID, imageID)
}

func (s *Service) detail(ctx context.Context, g *models.Gallery) (*Detail, error) {
	members, err := s.engine.Members(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	d := &Detail{Gallery: g, ImageCount: int64(len(members)), Images: make([]Item, 0, len(members))}
	for _, m := range members {
		d.Images = append(d.Images, s.item(ctx, m))
	}
	return d, nil
}

func (s *Service) item(ctx context.Context, m models.GalleryImage) Item {
	resolved := s.layout.Resolve(ctx, s.storage, m.Image.FilePath)
	return Item{
		ID:              m.ImageID,
		Title:           m.Image.Title,
		Filename:        resolved.Filename,
		CaptionOverride: m.CaptionOverride,
		Position:        m.Position,
		URLs:            resolved.URLs,
	}
}
