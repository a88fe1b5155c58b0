package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "local", cfg.StorageType)
	assert.Equal(t, "/uploads", cfg.UploadURLPrefix)
	assert.Equal(t, 15*time.Second, cfg.ServerReadTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, DefaultThumbnailSizes, cfg.ImageThumbnails)
	assert.Equal(t, int64(50<<20), cfg.UploadMaxBytes())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("IMAGE_THUMBNAIL_SIZES", "large:800,small:100")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, ThumbnailSizes{{Name: "small", Edge: 100}, {Name: "large", Edge: 800}}, cfg.ImageThumbnails)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=7070\nSTORAGE_TYPE=memory\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "memory", cfg.StorageType)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestParseThumbnailSizes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ThumbnailSizes
		wantErr bool
	}{
		{"default", "small:200,medium:500,large:1000", DefaultThumbnailSizes, false},
		{"sorted and trimmed", " b:50 , ,a:10", ThumbnailSizes{{Name: "a", Edge: 10}, {Name: "b", Edge: 50}}, false},
		{"empty", "", nil, false},
		{"no edge", "small", nil, true},
		{"bad edge", "small:x", nil, true},
		{"zero edge", "small:0", nil, true},
		{"duplicate", "small:10,small:20", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseThumbnailSizes(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Addresses(t *testing.T) {
	cfg := &Config{ServerHost: "0.0.0.0", ServerPort: 8081}
	assert.Equal(t, "0.0.0.0:8081", cfg.Addr())
	assert.Equal(t, "http://localhost:8081", cfg.BaseURL())

	cfg.ServerDomain = "https://photos.example/"
	assert.Equal(t, "https://photos.example", cfg.BaseURL())

	assert.Equal(t, "0.0.0.0:8080", (&Config{}).Addr())
}

func TestBuild(t *testing.T) {
	info := Build()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.False(t, IsProduction())
}

func TestBuildModes(t *testing.T) {
	oldVersion, oldCommit := Version, CommitHash
	t.Cleanup(func() { Version, CommitHash = oldVersion, oldCommit })

	tests := []struct {
		version, commit string
		production, dev bool
	}{
		{"dev", "", false, true},
		{"release", "", false, false},
		{"release", "abc123", true, false},
		{"1.2.0", "abc123", false, false},
	}
	for _, tt := range tests {
		Version, CommitHash = tt.version, tt.commit
		assert.Equal(t, tt.production, IsProduction(), "%s/%s", tt.version, tt.commit)
		assert.Equal(t, tt.dev, IsDevelopment(), "%s/%s", tt.version, tt.commit)
	}
}
