package extractor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ArticleInfo các trường có cấu trúc trích từ một bài báo
type ArticleInfo struct {
	Address string `json:"address"`
	Who     string `json:"who"`
	When    string `json:"when"`
	Where   string `json:"where"`
	What    string `json:"what"`
	Other   string `json:"other"`
}

// fieldKeys các khóa chấp nhận cho từng trường, theo thứ tự ưu tiên.
// Model nhỏ hay trả lời bằng khóa tiếng Hàn của prompt gốc.
var fieldKeys = struct {
	address, who, when, where, what, other []string
}{
	address: []string{"address", "주소"},
	who:     []string{"who", "누가"},
	when:    []string{"when", "언제"},
	where:   []string{"where", "어디서"},
	what:    []string{"what", "무엇을"},
	other:   []string{"other", "기타 지역 정보", "기타"},
}

// NewArticleInfo dựng ArticleInfo từ object JSON. Khi thiếu address thì dùng where.
func NewArticleInfo(obj map[string]any) *ArticleInfo {
	info := &ArticleInfo{
		Address: lookup(obj, fieldKeys.address),
		Who:     lookup(obj, fieldKeys.who),
		When:    lookup(obj, fieldKeys.when),
		Where:   lookup(obj, fieldKeys.where),
		What:    lookup(obj, fieldKeys.what),
		Other:   lookup(obj, fieldKeys.other),
	}
	if info.Address == "" {
		info.Address = info.Where
	}
	return info
}

// HasAddress cho biết có địa chỉ để matching hay không
func (a *ArticleInfo) HasAddress() bool {
	return a != nil && strings.TrimSpace(a.Address) != ""
}

func lookup(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringify đưa giá trị JSON bất kỳ về chuỗi; mảng chuỗi được nối bằng dấu cách
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := stringify(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case float64, bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
