package pool

import "sync"

// BufferSize 统一缓冲区大小（256KB）
const BufferSize = 256 * 1024

// SharedBufferPool 流式复制使用的共享缓冲区池
// 存储 *([]byte) 以避免 SA6002 警告
var SharedBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// Get 取出一个缓冲区，使用完毕后必须调用 Put 归还
func Get() *[]byte {
	return SharedBufferPool.Get().(*[]byte)
}

// Put 归还缓冲区
func Put(buf *[]byte) {
	if buf == nil || cap(*buf) < BufferSize {
		return
	}
	*buf = (*buf)[:BufferSize]
	SharedBufferPool.Put(buf)
}
