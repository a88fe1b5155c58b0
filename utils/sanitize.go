package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// StripTags 去除标题、说明等纯文本字段中的 HTML，实体还原为字符
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// StripTagsPtr nil 原样返回
func StripTagsPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := StripTags(*s)
	return &v
}
