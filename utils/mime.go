package utils

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const defaultUploadExtension = ".jpg"

// DetectContentType 根据文件头识别 MIME 类型
// 无法识别时使用客户端声明的类型，两者都没有则返回 application/octet-stream
func DetectContentType(head []byte, declared string) string {
	if len(head) > 0 {
		detected := mimetype.Detect(head)
		if !detected.Is("application/octet-stream") && !detected.Is("text/plain") {
			return detected.String()
		}
	}

	declared = strings.TrimSpace(strings.Split(declared, ";")[0])
	if declared != "" {
		return strings.ToLower(declared)
	}
	return "application/octet-stream"
}

// SafeExtension 从原始文件名提取扩展名（小写）
// 未提供文件名时默认 .jpg，扩展名包含非字母数字字符时丢弃
func SafeExtension(filename string) string {
	if filename == "" {
		return defaultUploadExtension
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
