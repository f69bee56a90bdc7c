package normalizer

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var reRunSpaces = regexp.MustCompile(` {2,}`)
var reRunNewlines = regexp.MustCompile(`\n{2,}`)

// CollapseSpaces gom mọi chuỗi khoảng trắng Unicode (kể cả NBSP, U+3000)
// thành một dấu cách và trim hai đầu
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JoinLevels nối các cấp hành chính bằng dấu cách rồi gom khoảng trắng
func JoinLevels(levels ...string) string {
	return CollapseSpaces(strings.Join(levels, " "))
}

// Romanize chuyển Hangul sang ASCII (lowercase, không khoảng trắng thừa).
// Dùng làm khóa tìm kiếm phụ, không dùng khi matching.
func Romanize(s string) string {
	return CollapseSpaces(strings.ToLower(unidecode.Unidecode(s)))
}

// CleanText gom khoảng trắng lặp và dòng trống lặp, giữ nguyên xuống dòng đơn
func CleanText(s string) string {
	s = reRunSpaces.ReplaceAllString(s, " ")
	s = reRunNewlines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
