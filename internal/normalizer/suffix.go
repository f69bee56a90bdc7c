package normalizer

import "strings"

// DefaultSuffixes là danh sách hậu tố hành chính/tổ chức mặc định, theo thứ tự ưu tiên
var DefaultSuffixes = []string{"특별시", "광역시", "시", "경찰서", "지법"}

// SuffixStripper bỏ hậu tố hành chính ở cuối chuỗi (tối đa một lần)
type SuffixStripper struct {
	suffixes []string
}

// NewSuffixStripper tạo stripper với danh sách hậu tố theo thứ tự; nil dùng DefaultSuffixes
func NewSuffixStripper(suffixes []string) *SuffixStripper {
	if suffixes == nil {
		suffixes = DefaultSuffixes
	}
	cp := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		if s != "" {
			cp = append(cp, s)
		}
	}
	return &SuffixStripper{suffixes: cp}
}

// Suffixes trả về bản sao danh sách hậu tố đang dùng
func (ss *SuffixStripper) Suffixes() []string {
	return append([]string(nil), ss.suffixes...)
}

// Strip removes the first listed suffix that s ends with. Not recursive:
// "서울특별시" becomes "서울" and "서울" stays "서울".
func (ss *SuffixStripper) Strip(s string) string {
	for _, suffix := range ss.suffixes {
		if strings.HasSuffix(s, suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}
	return s
}

// NormalizeQuery bỏ hậu tố trên toàn chuỗi rồi gom khoảng trắng và trim
func (ss *SuffixStripper) NormalizeQuery(s string) string {
	return CollapseSpaces(ss.Strip(s))
}

var defaultStripper = NewSuffixStripper(DefaultSuffixes)

// StripAdministrativeSuffix dùng danh sách hậu tố mặc định
func StripAdministrativeSuffix(s string) string {
	return defaultStripper.Strip(s)
}

// NormalizeQuery dùng danh sách hậu tố mặc định
func NormalizeQuery(s string) string {
	return defaultStripper.NormalizeQuery(s)
}
