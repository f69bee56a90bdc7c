package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripAdministrativeSuffix(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"special city", "서울특별시", "서울"},
		{"metropolitan city", "부산광역시", "부산"},
		{"city", "수원시", "수원"},
		{"police station", "강남경찰서", "강남"},
		{"district court", "서울중앙지법", "서울중앙"},
		{"no suffix", "강남구", "강남구"},
		{"suffix only in the middle", "시흥구", "시흥구"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StripAdministrativeSuffix(tc.input))
		})
	}
}

func TestStripAdministrativeSuffix_SinglePass(t *testing.T) {
	once := StripAdministrativeSuffix("서울특별시")
	assert.Equal(t, "서울", once)
	assert.Equal(t, once, StripAdministrativeSuffix(once))

	// 특별시 is listed first, so the trailing 시 is not stripped a second time
	assert.Equal(t, "시시", StripAdministrativeSuffix("시시특별시"))
}

func TestSuffixStripper_CustomList(t *testing.T) {
	ss := NewSuffixStripper([]string{"구", "", "시"})
	assert.Equal(t, []string{"구", "시"}, ss.Suffixes())
	assert.Equal(t, "강남", ss.Strip("강남구"))
	assert.Equal(t, "서울특별", ss.Strip("서울특별시"))

	defaults := NewSuffixStripper(nil)
	assert.Equal(t, DefaultSuffixes, defaults.Suffixes())
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "서울특별시 강남구", NormalizeQuery("  서울특별시   강남구 "))
	assert.Equal(t, "부산 해운대", NormalizeQuery("부산 해운대시"))
	assert.Equal(t, "강남", NormalizeQuery("강남경찰서"))
	// suffix check happens before trimming
	assert.Equal(t, "서울특별시", NormalizeQuery("서울특별시\t"))
	assert.Equal(t, "", NormalizeQuery("   "))
	assert.Equal(t, "서울 강남구", NormalizeQuery("서울\u00a0\u00a0강남구"))
	assert.Equal(t, "서울 강남구", NormalizeQuery("\u3000서울\u3000강남구\v"))
}

func TestCollapseSpacesAndJoinLevels(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpaces(" a \t b\n\nc "))
	assert.Equal(t, "a b c", CollapseSpaces("a\u00a0b\u3000\u3000c\v"))
	assert.Equal(t, "강남구 역삼동", JoinLevels("강남구\u00a0", "", "\u3000역삼동", ""))
	assert.Equal(t, "강남구 역삼동", JoinLevels("강남구", "", "역삼동", ""))
	assert.Equal(t, "", JoinLevels("", "", "", ""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "첫 줄\n둘째 줄", CleanText("  첫    줄\n\n\n둘째 줄  "))
}

func TestCleanArticle(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		out, err := CleanArticle("서울  강남구에서\n\n사고")
		require.NoError(t, err)
		assert.Equal(t, "서울 강남구에서\n사고", out)
	})

	t.Run("html", func(t *testing.T) {
		out, err := CleanArticle("<html><body><p>서울 강남구</p></body></html>")
		require.NoError(t, err)
		assert.Contains(t, out, "서울 강남구")
		assert.NotContains(t, out, "<p>")
	})
}

func TestCanonicalize(t *testing.T) {
	// decomposed jamo ᄀ ᅡ ᆼ -> 강
	assert.Equal(t, "강", Canonicalize("\u1100\u1161\u11bc"))
	assert.Equal(t, "A1", Canonicalize("Ａ１"))
}

func TestRomanize(t *testing.T) {
	out := Romanize("강남구")
	assert.NotEmpty(t, out)
	assert.Regexp(t, `^[a-z ]+$`, out)
}

func TestLoadRulesConfig(t *testing.T) {
	rc, err := LoadRulesConfig()
	require.NoError(t, err)
	assert.Contains(t, rc.RegionAliases["서울특별시"], "서울")

	syn := rc.Synonyms()
	assert.Contains(t, syn["서울"], "서울특별시")
	assert.Contains(t, syn["서울특별시"], "서울")
}
