// Package gallery maintains gallery metadata and the ordered image membership
// of each gallery.
//
// Positions inside a gallery always form the sequence 1..k. Every write path
// runs inside one transaction while holding the gallery's in-process lock and,
// on databases that support it, a row lock on the gallery itself.
package gallery

import (
	"context"
	"log/slog"
	"sort"

	"gorm.io/gorm"

	"github.com/anoixa/folio/database"
	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/database/repo/galleries"
	"github.com/anoixa/folio/database/repo/images"
	"github.com/anoixa/folio/internal/apperr"
)

// Engine 相册排序引擎
type Engine struct {
	db        *gorm.DB
	galleries *galleries.Repository
	images    *images.Repository
	locks     *keyedLock
	logger    *slog.Logger
}

// NewEngine 创建排序引擎
func NewEngine(db *gorm.DB, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		db:        db,
		galleries: galleries.NewRepository(db),
		images:    images.NewRepository(db),
		locks:     newKeyedLock(),
		logger:    logger,
	}
}

// within 持有相册锁并在事务中执行 fn，相册不存在时返回 gallery_not_found
func (e *Engine) within(ctx context.Context, galleryID string, fn func(tx *gorm.DB, g *models.Gallery) error) error {
	unlock, err := e.locks.Lock(ctx, galleryID)
	if err != nil {
		return err
	}
	defer unlock()

	return database.TransactionWithContext(ctx, e.db, func(tx *gorm.DB) error {
		g, err := e.galleries.WithTx(tx).LockByID(ctx, galleryID)
		if err != nil {
			return err
		}
		return fn(tx, g)
	})
}

// ReplaceMembership 原子替换相册成员：删除全部、过滤不存在的图片、按输入顺序重新编号 1..k
func (e *Engine) ReplaceMembership(ctx context.Context, galleryID string, candidateIDs []string) error {
	return e.within(ctx, galleryID, func(tx *gorm.DB, _ *models.Gallery) error {
		_, err := e.replaceTx(ctx, tx, galleryID, candidateIDs)
		return err
	})
}

// Sync applies a legacy images/imageOrder selection. It reports whether the
// membership was rewritten.
func (e *Engine) Sync(ctx context.Context, galleryID string, sel Selection) (bool, error) {
	ids, ok := sel.Normalize()
	if !ok {
		return false, nil
	}
	return true, e.ReplaceMembership(ctx, galleryID, ids)
}

// replaceTx 调用方负责持锁与事务
func (e *Engine) replaceTx(ctx context.Context, tx *gorm.DB, galleryID string, candidateIDs []string) (int, error) {
	repo := e.galleries.WithTx(tx)
	if err := repo.ClearMembers(ctx, galleryID); err != nil {
		return 0, err
	}
	if len(candidateIDs) == 0 {
		return 0, nil
	}

	existing, err := e.images.WithTx(tx).ExistingIDs(ctx, candidateIDs)
	if err != nil {
		return 0, err
	}

	rows := make([]models.GalleryImage, 0, len(existing))
	placed := make(map[string]struct{}, len(existing))
	for _, id := range candidateIDs {
		if _, ok := existing[id]; !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		rows = append(rows, models.GalleryImage{
			GalleryID: galleryID,
			ImageID:   id,
			Position:  len(rows) + 1,
		})
	}

	if dropped := len(candidateIDs) - len(rows); dropped > 0 {
		e.logger.Debug("Dropped unknown or duplicate gallery images",
			slog.String("gallery_id", galleryID), slog.Int("dropped", dropped))
	}
	return len(rows), repo.InsertMembers(ctx, rows)
}

// Append 追加到末尾，返回新位置
func (e *Engine) Append(ctx context.Context, galleryID, imageID string, captionOverride *string) (int, error) {
	var position int
	err := e.within(ctx, galleryID, func(tx *gorm.DB, _ *models.Gallery) error {
		exists, err := e.images.WithTx(tx).Exists(ctx, imageID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound(apperr.CodeImageNotFound, "image not found")
		}

		repo := e.galleries.WithTx(tx)
		member, err := repo.HasMember(ctx, galleryID, imageID)
		if err != nil {
			return err
		}
		if member {
			return apperr.Conflict(apperr.CodeImageAlreadyInGallery, "image already in gallery")
		}

		max, err := repo.MaxPosition(ctx, galleryID)
		if err != nil {
			return err
		}
		position = max + 1
		return repo.InsertMembers(ctx, []models.GalleryImage{{
			GalleryID:       galleryID,
			ImageID:         imageID,
			Position:        position,
			CaptionOverride: captionOverride,
		}})
	})
	if err != nil {
		return 0, err
	}
	return position, nil
}

// Remove 移除图片并把剩余成员重新编号为 1..k
func (e *Engine) Remove(ctx context.Context, galleryID, imageID string) error {
	return e.within(ctx, galleryID, func(tx *gorm.DB, _ *models.Gallery) error {
		return e.removeTx(ctx, tx, galleryID, imageID)
	})
}

func (e *Engine) removeTx(ctx context.Context, tx *gorm.DB, galleryID, imageID string) error {
	repo := e.galleries.WithTx(tx)
	removed, err := repo.DeleteMember(ctx, galleryID, imageID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound(apperr.CodeImageNotInGallery, "image not in gallery")
	}
	return renumber(ctx, repo, galleryID)
}

// renumber 按原位置升序逐行前移；每行只会移到更小且已空出的位置，不会触发唯一约束
func renumber(ctx context.Context, repo *galleries.Repository, galleryID string) error {
	ids, err := repo.MemberIDs(ctx, galleryID)
	if err != nil {
		return err
	}
	for i, id := range ids {
		if err := repo.SetPosition(ctx, galleryID, id, i+1); err != nil {
			return err
		}
	}
	return nil
}

// DeleteImage removes imageID from every gallery that contains it, keeping
// each gallery contiguous, then runs deleteRecord. Both happen in one
// transaction while every affected gallery is locked, so an Append racing the
// delete either lands before it and is renumbered or fails with
// image_not_found.
func (e *Engine) DeleteImage(ctx context.Context, imageID string, deleteRecord func(tx *gorm.DB) error) error {
	galleryIDs, err := e.galleries.GalleriesContaining(ctx, imageID)
	if err != nil {
		return err
	}
	unlock, err := e.lockAll(ctx, galleryIDs)
	if err != nil {
		return err
	}
	defer unlock()

	return database.TransactionWithContext(ctx, e.db, func(tx *gorm.DB) error {
		// 先锁图片行，并发的成员插入会等待本事务结束
		if err := e.images.WithTx(tx).LockByID(ctx, imageID); err != nil {
			return err
		}

		repo := e.galleries.WithTx(tx)
		// 快照之后可能有新的 Append，按事务内的结果处理
		current, err := repo.GalleriesContaining(ctx, imageID)
		if err != nil {
			return err
		}
		for _, galleryID := range current {
			if _, err := repo.LockByID(ctx, galleryID); err != nil {
				return err
			}
			if err := e.removeTx(ctx, tx, galleryID, imageID); err != nil {
				return err
			}
		}
		return deleteRecord(tx)
	})
}

// lockAll 按 id 升序加锁，避免与其他多相册操作死锁
func (e *Engine) lockAll(ctx context.Context, galleryIDs []string) (func(), error) {
	sorted := append([]string(nil), galleryIDs...)
	sort.Strings(sorted)

	unlocks := make([]func(), 0, len(sorted))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, id := range sorted {
		unlock, err := e.locks.Lock(ctx, id)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

// Members 按位置返回成员及图片记录
func (e *Engine) Members(ctx context.Context, galleryID string) ([]models.GalleryImage, error) {
	return e.galleries.Members(ctx, galleryID)
}
