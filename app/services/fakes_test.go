package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/internal/extractor"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/geocoder"
	"github.com/knachinen/darkmaptour-webscraping/internal/matcher"
	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
	"github.com/knachinen/darkmaptour-webscraping/internal/search"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errExtract = errors.New("extract failed")

func testGazetteer() *gazetteer.Gazetteer {
	return gazetteer.New([]gazetteer.AddressRecord{
		{Lv0: "서울특별시", Lv1: "강남구", Lv3: "역삼동"},
		{Lv0: "서울특별시", Lv1: "종로구"},
		{Lv0: "부산광역시", Lv1: "해운대구", Lv3: "우동"},
	})
}

func newTestService(t *testing.T, ext extractor.Extractor, geo geocoder.Geocoder, cfg BatchConfig) *AddressService {
	t.Helper()
	m, err := matcher.New(testGazetteer(), matcher.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	return NewAddressService(m, NewCacheService(0), ext, geo, cfg, zap.NewNop())
}

// fakeExtractor: dòng đầu của bài báo là địa chỉ; bài chứa "boom" trả lỗi
type fakeExtractor struct {
	calls atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) (*extractor.ArticleInfo, error) {
	f.calls.Add(1)
	if strings.Contains(text, "boom") {
		return nil, errExtract
	}
	address, rest, _ := strings.Cut(text, "\n")
	return &extractor.ArticleInfo{Address: address, What: rest}, nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Geocode(ctx context.Context, address string) (*geocoder.Result, error) {
	if address == "" {
		return nil, geocoder.ErrNotFound
	}
	return &geocoder.Result{Latitude: 37.5, Longitude: 127.03, Address: address + ", 대한민국", Provider: "fake"}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	records []gazetteer.AddressRecord
}

func (s *fakeStore) Replace(ctx context.Context, g *gazetteer.Gazetteer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = g.Records()
	return len(s.records), nil
}

func (s *fakeStore) Load(ctx context.Context) (*gazetteer.Gazetteer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gazetteer.New(s.records), nil
}

func (s *fakeStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.records)), nil
}

type fakeIndex struct {
	settings int
	seeded   int
	waited   []int64
}

func (f *fakeIndex) BuildIndexes(rules *normalizer.RulesConfig) (int64, error) {
	f.settings++
	return 1, nil
}

func (f *fakeIndex) SeedData(g *gazetteer.Gazetteer) ([]int64, error) {
	f.seeded = g.Len()
	return []int64{2, 3}, nil
}

func (f *fakeIndex) WaitForTasks(tasks []int64, timeout time.Duration) error {
	f.waited = tasks
	return nil
}

func (f *fakeIndex) SearchVersion(query, version, region string, limit int) ([]search.Hit, error) {
	return []search.Hit{{Document: search.Document{Lv0: "서울특별시", Lv1: "강남구"}}}, nil
}
