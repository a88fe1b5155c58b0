package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned (wrapped) when a key does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Provider 存储提供者接口
// key 为以 / 分隔的相对路径，例如 original/<uuid>.jpg
type Provider interface {
	// SaveWithContext 保存文件到存储，失败时不应留下部分写入的文件
	SaveWithContext(ctx context.Context, key string, file io.Reader) error

	// GetWithContext 打开文件读取流，调用方负责关闭
	GetWithContext(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteWithContext 删除文件，文件不存在时返回 ErrNotFound
	DeleteWithContext(ctx context.Context, key string) error

	// Exists 检查文件是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}

// DeleteIfExists 删除文件并忽略 ErrNotFound
func DeleteIfExists(ctx context.Context, p Provider, key string) error {
	if err := p.DeleteWithContext(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
