package normalizer

import (
	"fmt"
	"strings"

	"jaytaylor.com/html2text"
)

// CleanArticle chuẩn bị nội dung bài báo trước khi gửi cho extractor:
// bỏ HTML nếu có, chuẩn hóa Unicode, gom khoảng trắng và dòng trống.
func CleanArticle(raw string) (string, error) {
	text := raw
	if looksLikeHTML(raw) {
		plain, err := html2text.FromString(raw, html2text.Options{TextOnly: true})
		if err != nil {
			return "", fmt.Errorf("can't convert html to text: %w", err)
		}
		text = plain
	}
	return CleanText(Canonicalize(text)), nil
}

func looksLikeHTML(s string) bool {
	i := strings.Index(s, "<")
	return i >= 0 && strings.Contains(s[i:], ">") && strings.Contains(s[i:], "</")
}
