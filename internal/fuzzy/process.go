package fuzzy

import (
	"sort"
	"strings"
	"unicode"
)

// FullProcess chuẩn hóa chuỗi trước khi so sánh token:
// thay ký tự không phải chữ/số bằng khoảng trắng, lowercase, trim.
// forceASCII chỉ loại bỏ các rune trong dải 128-255 (Latin-1), Hangul giữ nguyên.
func FullProcess(s string, forceASCII bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if forceASCII && r >= 128 && r <= 255 {
			continue
		}
		if isWordRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.TrimSpace(strings.ToLower(b.String()))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// sortedTokens tách token theo khoảng trắng, sắp xếp theo code point rồi nối lại
func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSet trả về tập token không trùng lặp
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func joinSorted(set map[string]struct{}) string {
	tokens := make([]string, 0, len(set))
	for tok := range set {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
