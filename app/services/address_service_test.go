package services

import (
	"context"
	"testing"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
	"github.com/knachinen/darkmaptour-webscraping/app/requests"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/matcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMatchAddress(t *testing.T) {
	svc := newTestService(t, nil, nil, BatchConfig{})
	ctx := context.Background()

	result, hit, err := svc.MatchAddress(ctx, "서울특별시  강남구", requests.MatchOptions{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.True(t, result.Found())
	assert.Equal(t, "서울특별시", result.Region)
	assert.Equal(t, "강남구", result.MatchedLv1)
	assert.Equal(t, svc.GazetteerVersion(), result.GazetteerVersion)
	assert.Greater(t, result.MatchScore, 0.0)

	// cùng query sau khi gom khoảng trắng dùng chung cache key
	cached, hit, err := svc.MatchAddress(ctx, "서울특별시 강남구", requests.MatchOptions{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "서울특별시 강남구", cached.Query)
	assert.Equal(t, result.MatchedAddressDisplay, cached.MatchedAddressDisplay)

	noCache := false
	_, hit, err = svc.MatchAddress(ctx, "서울특별시 강남구", requests.MatchOptions{UseCache: &noCache})
	require.NoError(t, err)
	assert.False(t, hit)

	stats := svc.GetStats()
	assert.Equal(t, int64(3), stats.TotalProcessed)
	assert.Equal(t, 1.0, stats.MatchRate)
}

func TestMatchAddress_TrailingWhitespaceNotShared(t *testing.T) {
	m, err := matcher.New(gazetteer.New([]gazetteer.AddressRecord{
		{Lv0: "경기도", Lv1: "수원시", Lv2: "서울특별"},
	}), matcher.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	svc := NewAddressService(m, NewCacheService(0), nil, nil, BatchConfig{}, zap.NewNop())
	ctx := context.Background()

	// "서울특별시" bỏ hậu tố thành "서울"; "서울특별시 " thì không
	queries := []string{"서울특별시", "서울특별시 ", "서울특별시"}
	for i, q := range queries {
		want := m.Match(q)
		result, hit, err := svc.MatchAddress(ctx, q, requests.MatchOptions{})
		require.NoError(t, err)
		assert.Equal(t, i == 2, hit, "query %q", q)
		assert.InDelta(t, want.Score, result.MatchScore, 1e-9, "query %q", q)
		assert.Equal(t, want.NormalizedQuery, result.NormalizedQuery, "query %q", q)
	}
	assert.NotEqual(t, m.Match("서울특별시").Score, m.Match("서울특별시 ").Score)
}

func TestMatchAddress_EmptyQuery(t *testing.T) {
	svc := newTestService(t, nil, nil, BatchConfig{})

	_, _, err := svc.MatchAddress(context.Background(), " \t\n ", requests.MatchOptions{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestMatchAddress_Unmatched(t *testing.T) {
	svc := newTestService(t, nil, nil, BatchConfig{})

	result, _, err := svc.MatchAddress(context.Background(), "제주특별자치도 서귀포시", requests.MatchOptions{})
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Equal(t, models.StatusUnmatched, result.Status)
	assert.Zero(t, result.MatchScore)
	assert.Empty(t, result.MatchedAddressDisplay)
}

func TestMatchAddress_Geocode(t *testing.T) {
	svc := newTestService(t, nil, fakeGeocoder{}, BatchConfig{})

	result, _, err := svc.MatchAddress(context.Background(), "서울특별시 강남구", requests.MatchOptions{Geocode: true})
	require.NoError(t, err)
	require.NotNil(t, result.Latitude)
	require.NotNil(t, result.Longitude)
	assert.Equal(t, 37.5, *result.Latitude)
	assert.Equal(t, result.MatchedAddressDisplay+", 대한민국", result.GeocodedAddress)

	// kết quả trong cache không mang tọa độ của lần gọi trước
	plain, hit, err := svc.MatchAddress(context.Background(), "서울특별시 강남구", requests.MatchOptions{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Nil(t, plain.Latitude)
}

func TestProcessText(t *testing.T) {
	ext := &fakeExtractor{}
	svc := newTestService(t, ext, nil, BatchConfig{})
	ctx := context.Background()

	result, err := svc.ProcessText(ctx, "서울특별시 강남구\n\n\n역삼동에서   사고 발생", requests.MatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "서울특별시 강남구\n역삼동에서 사고 발생", result.OriginalText)
	assert.Equal(t, "서울특별시 강남구", result.Address)
	assert.Equal(t, "역삼동에서 사고 발생", result.What)
	assert.Equal(t, models.StatusMatched, result.Status)
	assert.Equal(t, "강남구", result.MatchedLv1)

	// không có địa chỉ: vẫn trả kết quả, không match
	result, err = svc.ProcessText(ctx, "\n본문만 있는 기사", requests.MatchOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnmatched, result.Status)
	assert.Empty(t, result.MatchedAddressDisplay)

	_, err = svc.ProcessText(ctx, "boom", requests.MatchOptions{})
	assert.ErrorIs(t, err, errExtract)

	_, err = svc.ProcessText(ctx, "   ", requests.MatchOptions{})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestProcessText_ExtractorDisabled(t *testing.T) {
	svc := newTestService(t, nil, nil, BatchConfig{})

	_, err := svc.ProcessText(context.Background(), "서울특별시 강남구", requests.MatchOptions{})
	assert.ErrorIs(t, err, ErrExtractorDisabled)
}

func TestReload_ChangesVersionAndResults(t *testing.T) {
	svc := newTestService(t, nil, nil, BatchConfig{})
	ctx := context.Background()
	oldVersion := svc.GazetteerVersion()

	result, _, err := svc.MatchAddress(ctx, "대구광역시 수성구", requests.MatchOptions{})
	require.NoError(t, err)
	assert.False(t, result.Found())

	prev, err := svc.Reload(gazetteer.New([]gazetteer.AddressRecord{
		{Lv0: "대구광역시", Lv1: "수성구"},
	}))
	require.NoError(t, err)
	assert.Equal(t, oldVersion, prev)
	assert.NotEqual(t, oldVersion, svc.GazetteerVersion())

	result, hit, err := svc.MatchAddress(ctx, "대구광역시 수성구", requests.MatchOptions{})
	require.NoError(t, err)
	assert.False(t, hit, "new gazetteer version must not read old cache entries")
	assert.True(t, result.Found())
	assert.Equal(t, "수성구", result.MatchedLv1)
}
