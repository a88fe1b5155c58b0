package gallery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anoixa/folio/database"
	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/internal/apperr"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedImages(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, db.Create(&models.Image{
			ID:       id,
			FilePath: "original/" + id + ".jpg",
			MimeType: "image/jpeg",
		}).Error)
	}
}

func seedGallery(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Gallery{
		ID:     id,
		Slug:   "slug-" + id,
		Title:  "Gallery " + id,
		Status: models.GalleryStatusDraft,
	}).Error)
}

// order 返回图片 id（按位置），并断言位置恰好为 1..k
func order(t *testing.T, e *Engine, galleryID string) []string {
	t.Helper()
	members, err := e.Members(context.Background(), galleryID)
	require.NoError(t, err)

	ids := make([]string, len(members))
	for i, m := range members {
		assert.Equal(t, i+1, m.Position, "position gap in gallery %s", galleryID)
		ids[i] = m.ImageID
	}
	return ids
}

func TestEngine_ReplaceMembership(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a", "b", "c")
	seedGallery(t, db, "g")
	e := NewEngine(db, nil)
	ctx := context.Background()

	require.NoError(t, e.ReplaceMembership(ctx, "g", []string{"c", "a", "b"}))
	assert.Equal(t, []string{"c", "a", "b"}, order(t, e, "g"))

	// 幂等
	require.NoError(t, e.ReplaceMembership(ctx, "g", []string{"c", "a", "b"}))
	assert.Equal(t, []string{"c", "a", "b"}, order(t, e, "g"))

	require.NoError(t, e.ReplaceMembership(ctx, "g", []string{"b"}))
	assert.Equal(t, []string{"b"}, order(t, e, "g"))
}

func TestEngine_ReplaceMembershipDropsUnknownIDs(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a", "b")
	seedGallery(t, db, "g")
	e := NewEngine(db, nil)

	require.NoError(t, e.ReplaceMembership(context.Background(), "g", []string{"a", "missing", "a", "b"}))
	assert.Equal(t, []string{"a", "b"}, order(t, e, "g"))
}

func TestEngine_ReplaceMembershipUnknownGallery(t *testing.T) {
	db := setupTestDB(t)
	e := NewEngine(db, nil)

	err := e.ReplaceMembership(context.Background(), "nope", []string{"a"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, apperr.CodeGalleryNotFound, apperr.CodeOf(err))
}

func TestEngine_Sync(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a", "b", "c")
	seedGallery(t, db, "g")
	e := NewEngine(db, nil)
	ctx := context.Background()

	require.NoError(t, e.ReplaceMembership(ctx, "g", []string{"a", "b"}))

	changed, err := e.Sync(ctx, "g", Selection{})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"a", "b"}, order(t, e, "g"))

	images := IDList{"a", "b", "c"}
	imageOrder := IDList{"c", "b"}
	changed, err = e.Sync(ctx, "g", Selection{Images: &images, ImageOrder: &imageOrder})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"c", "b", "a"}, order(t, e, "g"))

	empty := IDList{}
	changed, err = e.Sync(ctx, "g", Selection{Images: &empty})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, order(t, e, "g"))
}

func TestEngine_AppendRemoveAppend(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a", "b")
	seedGallery(t, db, "g")
	e := NewEngine(db, nil)
	ctx := context.Background()

	pos, err := e.Append(ctx, "g", "a", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	require.NoError(t, e.Remove(ctx, "g", "a"))

	pos, err = e.Append(ctx, "g", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, []string{"b"}, order(t, e, "g"))
}

func TestEngine_AppendErrors(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a")
	seedGallery(t, db, "g")
	e := NewEngine(db, nil)
	ctx := context.Background()

	_, err := e.Append(ctx, "missing", "a", nil)
	assert.Equal(t, apperr.CodeGalleryNotFound, apperr.CodeOf(err))

	_, err = e.Append(ctx, "g", "missing", nil)
	assert.Equal(t, apperr.CodeImageNotFound, apperr.CodeOf(err))

	caption := "cover shot"
	pos, err := e.Append(ctx, "g", "a", &caption)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	_, err = e.Append(ctx, "g", "a", nil)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, apperr.CodeImageAlreadyInGallery, apperr.CodeOf(err))

	members, err := e.Members(ctx, "g")
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.NotNil(t, members[0].CaptionOverride)
	assert.Equal(t, "cover shot", *members[0].CaptionOverride)
}

func TestEngine_RemoveRenumbers(t *testing.T) {
	tests := []struct {
		name   string
		remove string
		want   []string
	}{
		{"first", "a", []string{"b", "c"}},
		{"middle", "b", []string{"a", "c"}},
		{"last", "c", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			seedImages(t, db, "a", "b", "c")
			seedGallery(t, db, "g")
			e := NewEngine(db, nil)
			ctx := context.Background()

			require.NoError(t, e.ReplaceMembership(ctx, "g", []string{"a", "b", "c"}))
			require.NoError(t, e.Remove(ctx, "g", tt.remove))
			assert.Equal(t, tt.want, order(t, e, "g"))
		})
	}
}

func TestEngine_RemoveNotInGallery(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a")
	seedGallery(t, db, "g")
	e := NewEngine(db, nil)

	err := e.Remove(context.Background(), "g", "a")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, apperr.CodeImageNotInGallery, apperr.CodeOf(err))
}

func TestEngine_ConcurrentReplaceSameGallery(t *testing.T) {
	db := setupTestDB(t)
	ids := make([]string, 6)
	for i := range ids {
		ids[i] = fmt.Sprintf("img-%d", i)
	}
	seedImages(t, db, ids...)
	seedGallery(t, db, "g")
	e := NewEngine(db, nil)

	candidates := [][]string{
		{ids[0], ids[1], ids[2]},
		{ids[3], ids[4]},
		{ids[5], ids[0], ids[3], ids[1]},
	}

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(list []string) {
			defer wg.Done()
			errs <- e.ReplaceMembership(context.Background(), "g", list)
		}(candidates[i%len(candidates)])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 最终状态必须恰好是某一次调用的结果
	final := order(t, e, "g")
	assert.Contains(t, candidates, final)
	assert.Zero(t, e.locks.size())
}

func deleteImageRow(id string) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).Delete(&models.Image{}).Error
	}
}

func TestEngine_DeleteImage(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a", "b", "c")
	seedGallery(t, db, "g1")
	seedGallery(t, db, "g2")
	e := NewEngine(db, nil)
	ctx := context.Background()

	require.NoError(t, e.ReplaceMembership(ctx, "g1", []string{"b", "a", "c"}))
	for _, id := range []string{"a", "b", "c"} {
		_, err := e.Append(ctx, "g2", id, nil)
		require.NoError(t, err)
	}

	require.NoError(t, e.DeleteImage(ctx, "b", deleteImageRow("b")))
	assert.Equal(t, []string{"a", "c"}, order(t, e, "g1"))
	assert.Equal(t, []string{"a", "c"}, order(t, e, "g2"))
	assert.Zero(t, e.locks.size())

	_, err := e.Append(ctx, "g2", "b", nil)
	assert.Equal(t, apperr.CodeImageNotFound, apperr.CodeOf(err))

	err = e.DeleteImage(ctx, "b", deleteImageRow("b"))
	assert.Equal(t, apperr.CodeImageNotFound, apperr.CodeOf(err))
}

func TestEngine_DeleteImageRollsBack(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a", "b")
	seedGallery(t, db, "g")
	e := NewEngine(db, nil)
	ctx := context.Background()

	require.NoError(t, e.ReplaceMembership(ctx, "g", []string{"a", "b"}))

	err := e.DeleteImage(ctx, "a", func(*gorm.DB) error { return errors.New("record delete failed") })
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, order(t, e, "g"))
}

func TestEngine_DeleteImageRacingAppends(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a", "b", "c", "d")
	seedGallery(t, db, "g1")
	seedGallery(t, db, "g2")
	e := NewEngine(db, nil)
	ctx := context.Background()

	require.NoError(t, e.ReplaceMembership(ctx, "g1", []string{"a"}))

	var wg sync.WaitGroup
	for _, galleryID := range []string{"g1", "g2"} {
		for _, id := range []string{"b", "c", "d"} {
			wg.Add(1)
			go func(galleryID, id string) {
				defer wg.Done()
				// b 可能已被删除，其余错误不应出现
				_, err := e.Append(ctx, galleryID, id, nil)
				if err != nil {
					assert.Contains(t, []string{apperr.CodeImageNotFound, apperr.CodeImageAlreadyInGallery}, apperr.CodeOf(err))
				}
			}(galleryID, id)
		}
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, e.DeleteImage(ctx, "b", deleteImageRow("b")))
	}()
	wg.Wait()

	for _, galleryID := range []string{"g1", "g2"} {
		assert.NotContains(t, order(t, e, galleryID), "b")
	}
	assert.Zero(t, e.locks.size())
}

func TestEngine_ImageDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	seedImages(t, db, "a", "b")
	seedGallery(t, db, "g")
	e := NewEngine(db, nil)
	ctx := context.Background()

	require.NoError(t, e.ReplaceMembership(ctx, "g", []string{"a", "b"}))
	require.NoError(t, db.Where("id = ?", "b").Delete(&models.Image{}).Error)

	assert.Equal(t, []string{"a"}, order(t, e, "g"))
}
