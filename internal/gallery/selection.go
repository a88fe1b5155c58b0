package gallery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IDList 图片 id 列表，兼容 JSON 数组（字符串或数字）与逗号分隔字符串
type IDList []string

// UnmarshalJSON 去除首尾空白，丢弃空项
func (l *IDList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == 'n' {
		*l = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = ParseIDList(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("image id list must be an array or a comma separated string: %w", err)
	}

	ids := make(IDList, 0, len(raw))
	for _, v := range raw {
		var id string
		switch val := v.(type) {
		case string:
			id = val
		case json.Number:
			id = val.String()
		default:
			return fmt.Errorf("invalid image id %v", v)
		}
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	*l = ids
	return nil
}

// ParseIDList 解析逗号分隔的 id
func ParseIDList(s string) IDList {
	parts := strings.Split(s, ",")
	ids := make(IDList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// Selection 同步请求的两个旧字段，nil 表示未提供
type Selection struct {
	Images     *IDList `json:"images"`
	ImageOrder *IDList `json:"imageOrder"`
}

// Supplied 至少提供了一个字段（空列表也算）
func (s Selection) Supplied() bool {
	return s.Images != nil || s.ImageOrder != nil
}

// Normalize computes the effective candidate order.
//
// ok is false when neither field was supplied, meaning membership stays
// untouched. Otherwise the result is imageOrder (deduplicated) followed by the
// ids of images not already listed; an empty imageOrder lets images define the
// order. An empty result clears the gallery.
func (s Selection) Normalize() (ids []string, ok bool) {
	if !s.Supplied() {
		return nil, false
	}

	seen := make(map[string]struct{})
	ids = []string{}
	add := func(list *IDList) {
		if list == nil {
			return
		}
		for _, id := range *list {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	add(s.ImageOrder)
	add(s.Images)
	return ids, true
}
