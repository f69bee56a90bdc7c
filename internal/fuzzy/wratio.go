package fuzzy

import (
	"math"
	"unicode/utf8"
)

const (
	unbaseScale       = 0.95
	partialScale      = 0.90
	longPartialScale  = 0.60
	partialLenRatio   = 1.5
	longLenRatioLimit = 8.0
)

// WRatio kết hợp ratio, partial ratio và các ratio theo token.
// Khi độ dài hai chuỗi chênh nhau >= 1.5 lần thì ưu tiên các điểm partial.
func WRatio(s1, s2 string) int {
	p1, p2 := FullProcess(s1, true), FullProcess(s2, true)
	if p1 == "" || p2 == "" {
		return 0
	}

	base := float64(Ratio(p1, p2))
	l1, l2 := utf8.RuneCountInString(p1), utf8.RuneCountInString(p2)
	lenRatio := float64(max(l1, l2)) / float64(min(l1, l2))

	if lenRatio < partialLenRatio {
		tsor := float64(tokenSortScore(p1, p2, false, false)) * unbaseScale
		tser := float64(tokenSetScore(p1, p2, false, false)) * unbaseScale
		return intr(math.Max(base, math.Max(tsor, tser)))
	}

	scale := partialScale
	if lenRatio > longLenRatioLimit {
		scale = longPartialScale
	}
	partial := float64(PartialRatio(p1, p2)) * scale
	ptsor := float64(tokenSortScore(p1, p2, true, false)) * unbaseScale * scale
	ptser := float64(tokenSetScore(p1, p2, true, false)) * unbaseScale * scale
	return intr(math.Max(math.Max(base, partial), math.Max(ptsor, ptser)))
}

// ComponentScore chấm điểm một thành phần hành chính so với query.
// Nếu mọi token của thành phần đều xuất hiện trong query (token set ratio = 100)
// thì điểm là 100, ngược lại dùng WRatio.
func ComponentScore(component, query string) int {
	if TokenSetRatio(component, query) == 100 {
		return 100
	}
	return WRatio(component, query)
}
