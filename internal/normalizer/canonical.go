package normalizer

import (
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Canonicalize đưa văn bản về dạng NFC và gập ký tự full-width về dạng thường.
// Hangul tách rời (NFD, thường gặp khi dữ liệu đi qua macOS) được ghép lại
// để phép so khớp chuỗi con không bị lệch.
func Canonicalize(s string) string {
	t := transform.Chain(norm.NFC, width.Fold)
	out, _, err := transform.String(t, s)
	if err != nil {
		return norm.NFC.String(s)
	}
	return out
}
