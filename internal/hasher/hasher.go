// Package hasher computes content digests of stored files without loading
// them into memory.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/anoixa/folio/utils/pool"
)

// Digest 文件内容摘要
type Digest struct {
	// SHA256 小写十六进制，64 个字符
	SHA256 string
	// Size 实际读取的字节数
	Size int64
}

// Sum streams r through SHA-256 in fixed-size chunks.
func Sum(r io.Reader) (Digest, error) {
	h := sha256.New()

	buf := pool.Get()
	defer pool.Put(buf)

	n, err := io.CopyBuffer(h, r, *buf)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to read content for hashing: %w", err)
	}

	return Digest{
		SHA256: hex.EncodeToString(h.Sum(nil)),
		Size:   n,
	}, nil
}
