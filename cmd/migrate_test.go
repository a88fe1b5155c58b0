package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anoixa/folio/database"
	"github.com/anoixa/folio/database/models"
)

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedSource(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, db.Create(&models.Image{ID: id, FilePath: "original/" + id + ".jpg", MimeType: "image/jpeg"}).Error)
	}
	require.NoError(t, db.Create(&models.Gallery{ID: "g1", Slug: "trip", Title: "Trip", Status: models.GalleryStatusDraft}).Error)
	for i, id := range []string{"c", "a"} {
		require.NoError(t, db.Omit("Image").Create(&models.GalleryImage{GalleryID: "g1", ImageID: id, Position: i + 1}).Error)
	}
}

func TestConflictClause(t *testing.T) {
	skip, err := conflictClause("skip")
	require.NoError(t, err)
	assert.True(t, skip.DoNothing)

	overwrite, err := conflictClause("overwrite")
	require.NoError(t, err)
	assert.True(t, overwrite.UpdateAll)

	strict, err := conflictClause("error")
	require.NoError(t, err)
	assert.Nil(t, strict)

	_, err = conflictClause("merge")
	assert.Error(t, err)
}

func TestCopyDatabase(t *testing.T) {
	source := openTestDB(t, "source.db")
	target := openTestDB(t, "target.db")
	seedSource(t, source)
	ctx := context.Background()

	skip, _ := conflictClause("skip")
	stats, err := copyDatabase(ctx, source, target, 2, skip)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.images)
	assert.Equal(t, int64(1), stats.galleries)
	assert.Equal(t, int64(2), stats.members)

	var members []models.GalleryImage
	require.NoError(t, target.Where("gallery_id = ?", "g1").Order("position").Find(&members).Error)
	require.Len(t, members, 2)
	assert.Equal(t, "c", members[0].ImageID)
	assert.Equal(t, "a", members[1].ImageID)

	// 再次复制时 skip 不写入任何行
	stats, err = copyDatabase(ctx, source, target, 10, skip)
	require.NoError(t, err)
	assert.Zero(t, stats.images)
	assert.Zero(t, stats.galleries)

	_, err = copyDatabase(ctx, source, target, 10, nil)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	overwrite, _ := conflictClause("overwrite")
	require.NoError(t, source.Model(&models.Gallery{}).Where("id = ?", "g1").Update("title", "Renamed").Error)
	_, err = copyDatabase(ctx, source, target, 10, overwrite)
	require.NoError(t, err)

	var g models.Gallery
	require.NoError(t, target.First(&g, "id = ?", "g1").Error)
	assert.Equal(t, "Renamed", g.Title)
}

func TestIssueToken(t *testing.T) {
	token, exp, err := issueToken("0123456789abcdef0123456789abcdef", "1", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	_, _, err = issueToken("short", "1", 0)
	assert.Error(t, err)
}
