package fuzzy

import "strings"

// TokenSortRatio so sánh hai chuỗi sau khi sắp xếp token
func TokenSortRatio(s1, s2 string) int {
	return tokenSortScore(s1, s2, false, true)
}

// PartialTokenSortRatio giống TokenSortRatio nhưng dùng PartialRatio
func PartialTokenSortRatio(s1, s2 string) int {
	return tokenSortScore(s1, s2, true, true)
}

// TokenSetRatio so sánh phần giao token với phần còn lại của mỗi chuỗi
func TokenSetRatio(s1, s2 string) int {
	return tokenSetScore(s1, s2, false, true)
}

// PartialTokenSetRatio giống TokenSetRatio nhưng dùng PartialRatio
func PartialTokenSetRatio(s1, s2 string) int {
	return tokenSetScore(s1, s2, true, true)
}

func tokenSortScore(s1, s2 string, partial, process bool) int {
	if process {
		s1, s2 = FullProcess(s1, true), FullProcess(s2, true)
	}
	sorted1 := strings.TrimSpace(sortedTokens(s1))
	sorted2 := strings.TrimSpace(sortedTokens(s2))
	if partial {
		return PartialRatio(sorted1, sorted2)
	}
	return Ratio(sorted1, sorted2)
}

func tokenSetScore(s1, s2 string, partial, process bool) int {
	if !process && s1 == s2 {
		return 100
	}
	p1, p2 := s1, s2
	if process {
		p1, p2 = FullProcess(s1, true), FullProcess(s2, true)
	}
	if p1 == "" || p2 == "" {
		return 0
	}

	tokens1, tokens2 := tokenSet(p1), tokenSet(p2)
	sect := make(map[string]struct{})
	diff1to2 := make(map[string]struct{})
	diff2to1 := make(map[string]struct{})
	for tok := range tokens1 {
		if _, ok := tokens2[tok]; ok {
			sect[tok] = struct{}{}
		} else {
			diff1to2[tok] = struct{}{}
		}
	}
	for tok := range tokens2 {
		if _, ok := tokens1[tok]; !ok {
			diff2to1[tok] = struct{}{}
		}
	}

	sortedSect := joinSorted(sect)
	combined1to2 := strings.TrimSpace(sortedSect + " " + joinSorted(diff1to2))
	combined2to1 := strings.TrimSpace(sortedSect + " " + joinSorted(diff2to1))
	sortedSect = strings.TrimSpace(sortedSect)

	score := Ratio
	if partial {
		score = PartialRatio
	}
	return max3(
		score(sortedSect, combined1to2),
		score(sortedSect, combined2to1),
		score(combined1to2, combined2to1),
	)
}

func max3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
