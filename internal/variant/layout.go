package variant

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/anoixa/folio/config"
	"github.com/anoixa/folio/storage"
)

// Layout maps filenames to storage keys and storage keys to public URLs.
//
//	original/<file>          原图
//	thumbnails-<edge>/<file> 每个尺寸一份
type Layout struct {
	OriginalDir string
	URLPrefix   string
	Sizes       config.ThumbnailSizes
}

// NewLayout 空值使用默认配置
func NewLayout(originalDir, urlPrefix string, sizes config.ThumbnailSizes) Layout {
	if originalDir == "" {
		originalDir = "original"
	}
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	if len(sizes) == 0 {
		sizes = config.DefaultThumbnailSizes
	}
	return Layout{
		OriginalDir: strings.Trim(originalDir, "/"),
		URLPrefix:   "/" + strings.Trim(urlPrefix, "/"),
		Sizes:       sizes,
	}
}

// OriginalKey original/<filename>
func (l Layout) OriginalKey(filename string) string {
	return l.OriginalDir + "/" + filename
}

// VariantDir thumbnails-<edge>
func VariantDir(edge int) string {
	return "thumbnails-" + strconv.Itoa(edge)
}

// VariantKey thumbnails-<edge>/<filename>
func (l Layout) VariantKey(edge int, filename string) string {
	return VariantDir(edge) + "/" + filename
}

// VariantKeys returns every variant key of filename keyed by size name.
func (l Layout) VariantKeys(filename string) map[string]string {
	keys := make(map[string]string, len(l.Sizes))
	for _, s := range l.Sizes {
		keys[s.Name] = l.VariantKey(s.Edge, filename)
	}
	return keys
}

// URL 存储 key 转为公开访问路径
func (l Layout) URL(key string) string {
	return l.URLPrefix + "/" + strings.TrimLeft(key, "/")
}

// Filename 取存储路径中的文件名部分
func Filename(filePath string) string {
	return path.Base(filePath)
}

// ImageURLs 一张图片可访问的地址，仅包含实际存在的文件
type ImageURLs struct {
	Filename string            `json:"filename"`
	URLs     map[string]string `json:"urls"`
}

// Resolve 检查原图和每个尺寸的变体是否存在
// 原图键为 "original"，变体键为 "thumbnail<edge>"
func (l Layout) Resolve(ctx context.Context, provider storage.Provider, filePath string) ImageURLs {
	filename := Filename(filePath)
	result := ImageURLs{Filename: filename, URLs: make(map[string]string, len(l.Sizes)+1)}
	if filename == "" || filename == "." || filename == "/" {
		return result
	}

	originalKey := strings.TrimLeft(filePath, "/")
	if ok, err := provider.Exists(ctx, originalKey); err == nil && ok {
		result.URLs["original"] = l.URL(originalKey)
	}
	for _, s := range l.Sizes {
		key := l.VariantKey(s.Edge, filename)
		if ok, err := provider.Exists(ctx, key); err == nil && ok {
			result.URLs["thumbnail"+strconv.Itoa(s.Edge)] = l.URL(key)
		}
	}
	return result
}
