// Package fuzzy implements the string similarity family used by the address
// matcher: sequence ratio, best-window partial ratio, token based ratios and
// the weighted ratio that blends them. Scores are integers in [0, 100] and
// every length is counted in runes.
package fuzzy

import (
	"math"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio trả về độ tương đồng 0-100 giữa hai chuỗi dựa trên matching blocks
func Ratio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}
	return intr(100 * sequenceRatio(runeSeq(s1), runeSeq(s2)))
}

// PartialRatio so sánh chuỗi ngắn hơn với cửa sổ tốt nhất cùng độ dài trong chuỗi dài hơn
func PartialRatio(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	shorter, longer := runeSeq(s1), runeSeq(s2)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	blocks := difflib.NewMatcher(shorter, longer).GetMatchingBlocks()
	best := 0.0
	for _, block := range blocks {
		start := block.B - block.A
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}

		r := sequenceRatio(shorter, longer[start:end])
		if r > 0.995 {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return intr(100 * best)
}

// sequenceRatio là 2*M/T của SequenceMatcher (autojunk bật như mặc định)
func sequenceRatio(a, b []string) float64 {
	return difflib.NewMatcher(a, b).Ratio()
}

// runeSeq tách chuỗi thành từng rune để difflib so sánh theo ký tự
func runeSeq(s string) []string {
	rs := []rune(s)
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// intr làm tròn half-to-even rồi ép về int
func intr(x float64) int {
	return int(math.RoundToEven(x))
}
