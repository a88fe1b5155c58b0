package image

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anoixa/folio/database/models"
	"github.com/anoixa/folio/internal/apperr"
	"github.com/anoixa/folio/internal/gallery"
	"github.com/anoixa/folio/internal/variant"
)

func TestService_ListAndGet(t *testing.T) {
	f := newFixture(t)
	engine := gallery.NewEngine(f.db, nil)
	svc := NewService(f.repo, engine, f.mem, variant.NewLayout("", "", nil), nil)
	ctx := context.Background()

	up, err := f.pipeline.Upload(ctx, UploadInput{Filename: "a.png", Body: bytes.NewReader(pngFixture(t, 40, 40))})
	require.NoError(t, err)

	views, total, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)

	v := views[0]
	assert.Equal(t, up.Image.ID+".png", v.Filename)
	assert.Equal(t, up.Path, v.URLs["original"])
	assert.Equal(t, up.Thumbnails["small"], v.URLs["thumbnail200"])
	assert.Equal(t, up.Thumbnails, v.Thumbnails)

	got, err := svc.Get(ctx, up.Image.ID)
	require.NoError(t, err)
	assert.Equal(t, up.Image.ID, got.Image.ID)

	_, err = svc.Get(ctx, "missing")
	assert.Equal(t, apperr.CodeImageNotFound, apperr.CodeOf(err))
}

func TestService_DeleteDetachesAndRemovesFiles(t *testing.T) {
	f := newFixture(t)
	engine := gallery.NewEngine(f.db, nil)
	svc := NewService(f.repo, engine, f.mem, variant.NewLayout("", "", nil), nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		up, err := f.pipeline.Upload(ctx, UploadInput{Filename: "a.png", Body: bytes.NewReader(pngFixture(t, 16, 16))})
		require.NoError(t, err)
		ids = append(ids, up.Image.ID)
	}

	require.NoError(t, f.db.Create(&models.Gallery{ID: "g", Slug: "trip", Title: "Trip", Status: models.GalleryStatusDraft}).Error)
	require.NoError(t, engine.ReplaceMembership(ctx, "g", ids))

	require.NoError(t, svc.Delete(ctx, ids[0]))

	members, err := engine.Members(ctx, "g")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, ids[1], members[0].ImageID)
	assert.Equal(t, 1, members[0].Position)
	assert.Equal(t, 2, members[1].Position)

	assert.Empty(t, f.mem.Keys("original/"+ids[0]))
	for _, edge := range []int{200, 500, 1000} {
		assert.Empty(t, f.mem.Keys(variant.VariantDir(edge)+"/"+ids[0]))
	}
	assert.Len(t, f.mem.Keys("original/"), 2)

	err = svc.Delete(ctx, ids[0])
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_Orphans(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, gallery.NewEngine(f.db, nil), f.mem, variant.NewLayout("", "", nil), nil)
	ctx := context.Background()

	kept, err := f.pipeline.Upload(ctx, UploadInput{Filename: "a.png", Body: bytes.NewReader(pngFixture(t, 8, 8))})
	require.NoError(t, err)
	lost, err := f.pipeline.Upload(ctx, UploadInput{Filename: "b.png", Body: bytes.NewReader(pngFixture(t, 8, 8))})
	require.NoError(t, err)
	require.NoError(t, f.mem.DeleteWithContext(ctx, lost.Image.FilePath))

	orphans, err := svc.Orphans(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, lost.Image.ID, orphans[0].ID)
	assert.NotEqual(t, kept.Image.ID, orphans[0].ID)
}
