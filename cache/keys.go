package cache

import (
	"fmt"
)

// Type 缓存后端类型
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
	TypeNone   = "none"
)

// KeyImage 单张图片记录的缓存键
func KeyImage(id string) string {
	return fmt.Sprintf("image:%s", id)
}
