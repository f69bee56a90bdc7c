package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const taskInfoJSON = `{"taskUid":7,"indexUid":"gazetteer","status":"enqueued","type":"documentAdditionOrUpdate","enqueuedAt":"2024-01-01T00:00:00Z"}`

// fakeMeili giả lập các endpoint Meilisearch mà searcher dùng
type fakeMeili struct {
	mu        sync.Mutex
	searches  []map[string]interface{}
	documents []Document
	settings  map[string]interface{}
}

func (f *fakeMeili) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"available"}`))
	})
	mux.HandleFunc("/indexes/gazetteer/search", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.searches = append(f.searches, body)
		f.mu.Unlock()
		w.Write([]byte(`{
			"hits": [
				{"id": "0", "lv0": "서울특별시", "lv1": "강남구", "lv3": "역삼동", "full_address": "강남구 역삼동", "_rankingScore": 0.93}
			],
			"query": "강남",
			"processingTimeMs": 1,
			"limit": 20,
			"offset": 0,
			"estimatedTotalHits": 1
		}`))
	})
	mux.HandleFunc("/indexes/gazetteer/documents", func(w http.ResponseWriter, r *http.Request) {
		var docs []Document
		require.NoError(t, json.NewDecoder(r.Body).Decode(&docs))
		f.mu.Lock()
		f.documents = append(f.documents, docs...)
		f.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(taskInfoJSON))
	})
	mux.HandleFunc("/indexes/gazetteer/settings", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.settings = body
		f.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(taskInfoJSON))
	})
	mux.HandleFunc("/tasks/7", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"uid":7,"indexUid":"gazetteer","status":"succeeded","type":"documentAdditionOrUpdate"}`))
	})
	return mux
}

func newTestSearcher(t *testing.T) (*GazetteerSearcher, *fakeMeili) {
	t.Helper()
	fake := &fakeMeili{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	gs, err := NewGazetteerSearcher(SearchConfig{
		Host:      srv.URL,
		APIKey:    "masterKey",
		IndexName: "gazetteer",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return gs, fake
}

func TestGazetteerSearcher_Search(t *testing.T) {
	gs, fake := newTestSearcher(t)

	hits, err := gs.Search("강남", "서울특별시", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "강남구 역삼동", hits[0].FullAddress)
	assert.Equal(t, "역삼동", hits[0].Lv3)
	assert.InDelta(t, 0.93, hits[0].RankingScore, 1e-9)

	require.Len(t, fake.searches, 1)
	assert.Equal(t, "강남", fake.searches[0]["q"])
	assert.Equal(t, `lv0 = "서울특별시"`, fake.searches[0]["filter"])
	assert.EqualValues(t, 5, fake.searches[0]["limit"])
}

func TestGazetteerSearcher_SearchClampsLimit(t *testing.T) {
	gs, fake := newTestSearcher(t)

	_, err := gs.Search("강남", "", 500)
	require.NoError(t, err)
	assert.EqualValues(t, 20, fake.searches[0]["limit"])
	assert.Nil(t, fake.searches[0]["filter"])
}

func TestGazetteerSearcher_SearchVersion(t *testing.T) {
	gs, fake := newTestSearcher(t)

	_, err := gs.SearchVersion("강남", "sha256:ab", "서울특별시", 5)
	require.NoError(t, err)
	require.Len(t, fake.searches, 1)
	assert.Equal(t, `gazetteer_version = "sha256:ab" AND lv0 = "서울특별시"`, fake.searches[0]["filter"])
}

func TestGazetteerSearcher_EmptyQuery(t *testing.T) {
	gs, _ := newTestSearcher(t)
	_, err := gs.Search("", "", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestGazetteerSearcher_SeedData(t *testing.T) {
	gs, fake := newTestSearcher(t)
	g := gazetteer.New([]gazetteer.AddressRecord{
		{Lv0: "서울특별시", Lv1: "강남구", Lv3: "역삼동"},
		{Lv0: "부산광역시", Lv1: "해운대구"},
	})

	tasks, err := gs.SeedData(g)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, tasks)
	require.NoError(t, gs.WaitForTasks(tasks, time.Second))

	require.Len(t, fake.documents, 2)
	assert.Equal(t, "0", fake.documents[0].ID)
	assert.Equal(t, "강남구 역삼동", fake.documents[0].FullAddress)
	assert.Equal(t, g.Version(), fake.documents[1].GazetteerVersion)
}

func TestGazetteerSearcher_SeedDataEmpty(t *testing.T) {
	gs, _ := newTestSearcher(t)
	_, err := gs.SeedData(gazetteer.New(nil))
	assert.Error(t, err)
}

func TestGazetteerSearcher_BuildIndexes(t *testing.T) {
	gs, fake := newTestSearcher(t)
	rules, err := normalizer.LoadRulesConfig()
	require.NoError(t, err)

	uid, err := gs.BuildIndexes(rules)
	require.NoError(t, err)
	assert.Equal(t, int64(7), uid)

	require.NotNil(t, fake.settings)
	assert.Contains(t, fake.settings["filterableAttributes"], "lv0")
	synonyms, ok := fake.settings["synonyms"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, synonyms, "서울특별시")
}

func TestNewDocuments(t *testing.T) {
	g := gazetteer.New([]gazetteer.AddressRecord{{Lv0: "서울특별시", Lv1: "강남구"}})
	docs := NewDocuments(g)

	require.Len(t, docs, 1)
	assert.Equal(t, "강남구", docs[0].FullAddress)
	assert.NotEmpty(t, docs[0].Romanized)
	assert.Equal(t, strings.ToLower(docs[0].Romanized), docs[0].Romanized)
}

func TestFilters(t *testing.T) {
	assert.Equal(t, "", FilterRegion(""))
	assert.Equal(t, `lv0 = "부산광역시"`, FilterRegion("부산광역시"))
	assert.Equal(t, `gazetteer_version = "sha256:ab" AND lv0 = "부산광역시"`, FilterVersion("sha256:ab", "부산광역시"))
	assert.Equal(t, `gazetteer_version = "sha256:ab"`, FilterVersion("sha256:ab", ""))
}
