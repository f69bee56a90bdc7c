package matcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMatcher(t *testing.T, records ...gazetteer.AddressRecord) *Matcher {
	t.Helper()
	m, err := New(gazetteer.New(records), DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	return m
}

func TestMatch_EndToEndScenario(t *testing.T) {
	m := newTestMatcher(t, gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "강남구"})

	res := m.Match("서울특별시 강남구")

	require.True(t, res.Found())
	assert.Equal(t, "서울특별시", res.Region)
	assert.Equal(t, "강남구", res.FullAddress)
	assert.Equal(t, MatchStrategyComposite, res.Strategy)
	// 20 (lv0) + 100*3/9 + 10 (exact word)
	assert.InDelta(t, 20+100.0*3/9+10, res.Score, 1e-9)
	assert.Equal(t, "서울특별시 강남구", res.Display)

	display, score, rec := m.FindMatchingAddress("서울특별시 강남구")
	assert.Equal(t, "서울특별시 강남구", display)
	assert.InDelta(t, 63.33, score, 0.01)
	require.NotNil(t, rec)
	assert.Equal(t, "강남구", rec.Lv1)
}

func TestMatch_ExactFullAddressShortCircuits(t *testing.T) {
	m := newTestMatcher(t,
		gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "강남구", Lv3: "역삼동"},
		gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "서초구"},
	)

	res := m.Match("강남구 역삼동")

	require.True(t, res.Found())
	assert.Equal(t, MatchStrategyFullString, res.Strategy)
	assert.Equal(t, 100.0, res.Score, "bonuses must not inflate an exact match")
	assert.Equal(t, "강남구 역삼동", res.FullAddress)
	assert.Equal(t, "강남구 역삼동", res.Display)
	assert.Contains(t, res.Quality.Flags, string(FlagExactMatch))
}

func TestMatch_WeakFullStringFallsThroughToComposite(t *testing.T) {
	m := newTestMatcher(t, gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "강남구", Lv3: "역삼동"})

	// Ratio("강남구 역삼동 12", "강남구 역삼동") = 82: above 80, below 90
	res := m.Match("강남구 역삼동 12")

	require.True(t, res.Found())
	assert.Equal(t, MatchStrategyComposite, res.Strategy)
	// no region; (100*3/10 + 10) for lv1 and lv3
	assert.InDelta(t, 80.0, res.Score, 1e-9)
}

func TestMatch_Sentinel(t *testing.T) {
	m := newTestMatcher(t, gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "강남구"})

	for _, q := range []string{"", "   ", "xyz"} {
		res := m.Match(q)
		assert.False(t, res.Found(), "query %q", q)
		assert.Equal(t, 0.0, res.Score)
		assert.Equal(t, "", res.Display)
		assert.Equal(t, MatchStrategyNone, res.Strategy)
		assert.Nil(t, res.Quality)
	}

	display, score, rec := m.FindMatchingAddress("xyz")
	assert.Equal(t, "", display)
	assert.Equal(t, 0.0, score)
	assert.Nil(t, rec)
}

func TestMatch_EmptyGazetteer(t *testing.T) {
	m, err := New(nil, DefaultConfig(), nil)
	require.NoError(t, err)

	res := m.Match("서울특별시 강남구")
	assert.False(t, res.Found())
	assert.Equal(t, 0.0, res.Score)
}

func TestMatch_RegionBonusAlone(t *testing.T) {
	m := newTestMatcher(t, gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "강남구"})

	res := m.Match("서울특별시 종로")

	require.True(t, res.Found(), "lv0 bonus alone is a nonzero composite score")
	assert.Equal(t, 20.0, res.Score)
	assert.Equal(t, "서울특별시", res.Display)
	assert.Contains(t, res.Quality.Flags, string(FlagRegionOnly))
}

func TestMatch_RegionOnlyRecordIsNoMatch(t *testing.T) {
	m := newTestMatcher(t, gazetteer.AddressRecord{Lv0: "서울특별시"})

	res := m.Match("서울특별시 종로")

	assert.False(t, res.Found(), "a winner without full_address is the no-match sentinel")
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, MatchStrategyNone, res.Strategy)
}

func TestMatch_UnicodeWhitespaceExactMatch(t *testing.T) {
	m := newTestMatcher(t, gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "강남구", Lv3: "역삼동"})

	for _, q := range []string{"강남구\u00a0\u00a0역삼동", "강남구\u3000역삼동", "\u00a0강남구 역삼동\u00a0"} {
		res := m.Match(q)
		require.True(t, res.Found(), "query %q", q)
		assert.Equal(t, MatchStrategyFullString, res.Strategy, "query %q", q)
		assert.Equal(t, 100.0, res.Score, "query %q", q)
		assert.Equal(t, "강남구 역삼동", res.NormalizedQuery)
	}
}

func TestMatch_RegionFilterNarrowsCandidates(t *testing.T) {
	m := newTestMatcher(t,
		gazetteer.AddressRecord{Lv0: "부산광역시", Lv1: "강남구"},
		gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "강남구"},
	)

	res := m.Match("서울특별시 강남구")

	require.True(t, res.Found())
	assert.Equal(t, "서울특별시", res.Record.Lv0)
	assert.InDelta(t, 63.33, res.Score, 0.01)
}

func TestMatch_TieBreakFirstWins(t *testing.T) {
	m := newTestMatcher(t,
		gazetteer.AddressRecord{Lv0: "부산광역시", Lv1: "중구"},
		gazetteer.AddressRecord{Lv0: "대구광역시", Lv1: "중구"},
	)

	res := m.Match("중구")

	require.True(t, res.Found())
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, "부산광역시", res.Record.Lv0)
}

func TestMatch_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LV0CompositeBonus = 0
	cfg.ExactWordMatchBonus = 0

	m, err := New(gazetteer.New([]gazetteer.AddressRecord{{Lv0: "서울특별시", Lv1: "강남구"}}), cfg, nil)
	require.NoError(t, err)

	res := m.Match("서울특별시 강남구")
	assert.InDelta(t, 100.0*3/9, res.Score, 1e-9)
	assert.Equal(t, 0.0, m.Config().LV0CompositeBonus)
}

func TestMatch_Deterministic(t *testing.T) {
	m := newTestMatcher(t,
		gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "강남구", Lv3: "역삼동"},
		gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "종로구"},
	)

	first := m.Match("서울특별시 종로구 사건")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Match("서울특별시 종로구 사건"))
	}
}

func TestMatch_ConcurrentUse(t *testing.T) {
	m := newTestMatcher(t,
		gazetteer.AddressRecord{Lv0: "서울특별시", Lv1: "강남구", Lv3: "역삼동"},
		gazetteer.AddressRecord{Lv0: "부산광역시", Lv1: "해운대구", Lv3: "우동"},
	)
	want := m.Match("해운대구 우동 사고")

	var wg sync.WaitGroup
	results := make([]Result, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.Match("해운대구 우동 사고")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, want, r)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FuzzyMatchThreshold = 101
	_, err := New(nil, cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Suffixes = []string{"시", ""}
	_, err = New(nil, cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.ExactWordMatchBonus = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestIdentifyRegion(t *testing.T) {
	g := gazetteer.New([]gazetteer.AddressRecord{
		{Lv0: "부산광역시", Lv1: "해운대구"},
		{Lv0: "서울특별시", Lv1: "강남구"},
	})
	rp := NewRegionPrefilter(g, 80)

	region, score, ok := rp.IdentifyRegion("어제 서울특별시에서 발생한 사고")
	assert.True(t, ok)
	assert.Equal(t, "서울특별시", region)
	assert.Equal(t, 100, score)

	_, _, ok = rp.IdentifyRegion("대구")
	assert.False(t, ok)

	cs := rp.Candidates("서울특별시", true)
	assert.True(t, cs.Filtered())
	assert.Equal(t, 1, cs.Len())
	assert.Equal(t, "강남구", cs.At(0).Lv1)

	cs = rp.Candidates("", false)
	assert.False(t, cs.Filtered())
	assert.Equal(t, 2, cs.Len())
}

// GoldenCase một case golden trong testdata/golden
type GoldenCase struct {
	Query  string `json:"query"`
	Expect struct {
		Display     string  `json:"display"`
		FullAddress string  `json:"full_address"`
		Region      string  `json:"region"`
		Score       float64 `json:"score"`
		Strategy    string  `json:"strategy"`
	} `json:"expect"`
}

func TestGoldenCases(t *testing.T) {
	g, err := gazetteer.LoadFile(context.Background(), filepath.Join("testdata", "gazetteer.csv"))
	require.NoError(t, err)
	m, err := New(g, DefaultConfig(), zap.NewNop())
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join("testdata", "golden", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			data, err := os.ReadFile(file)
			require.NoError(t, err)

			var tc GoldenCase
			require.NoError(t, json.Unmarshal(data, &tc))

			res := m.Match(tc.Query)
			assert.Equal(t, tc.Expect.Display, res.Display)
			assert.Equal(t, tc.Expect.FullAddress, res.FullAddress)
			assert.Equal(t, tc.Expect.Region, res.Region)
			assert.InDelta(t, tc.Expect.Score, res.Score, 0.01)
			assert.Equal(t, tc.Expect.Strategy, string(res.Strategy))
		})
	}
}
