package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"
)

// SanitizeLogMessage 移除用户输入中的控制字符，避免日志注入
func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == '\t' {
			sb.WriteRune(r)
		} else if r != '\n' && r != '\r' && (unicode.IsPrint(r) || unicode.IsGraphic(r)) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogFilename 截断过长的文件名并清理
func SanitizeLogFilename(name string) string {
	if len(name) > 100 {
		name = name[:100] + "..."
	}
	return SanitizeLogMessage(name)
}

// NewLogger 按配置创建 slog.Logger，format 支持 text / json
func NewLogger(level, format string) *slog.Logger {
	return newLogger(os.Stdout, level, format)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLogLevel 未知级别回退为 info
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
