package search

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// ErrEmptyQuery query rỗng
var ErrEmptyQuery = errors.New("search: query không được để trống")

// GazetteerSearcher searcher tìm kiếm trong gazetteer sử dụng Meilisearch
type GazetteerSearcher struct {
	client        *ClientWrapper
	logger        *zap.Logger
	indexName     string
	maxCandidates int
}

// SearchConfig cấu hình cho Meilisearch
type SearchConfig struct {
	Host          string
	APIKey        string
	IndexName     string
	Timeout       time.Duration
	MaxCandidates int
}

// Document là một bản ghi gazetteer trong index
type Document struct {
	ID               string `json:"id"`
	Lv0              string `json:"lv0"`
	Lv1              string `json:"lv1"`
	Lv2              string `json:"lv2"`
	Lv3              string `json:"lv3"`
	Lv4              string `json:"lv4"`
	FullAddress      string `json:"full_address"`
	Romanized        string `json:"romanized"`
	GazetteerVersion string `json:"gazetteer_version"`
}

// Hit một kết quả tìm kiếm
type Hit struct {
	Document
	RankingScore float64 `json:"ranking_score"`
}

// NewGazetteerSearcher tạo mới GazetteerSearcher với Meilisearch client
func NewGazetteerSearcher(config SearchConfig, logger *zap.Logger) (*GazetteerSearcher, error) {
	client := NewClientWrapper(config.Host, config.APIKey, config.Timeout)
	if err := client.Healthy(); err != nil {
		return nil, fmt.Errorf("không thể kết nối Meilisearch: %w", err)
	}

	if config.IndexName == "" {
		config.IndexName = "gazetteer"
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GazetteerSearcher{
		client:        client,
		logger:        logger,
		indexName:     config.IndexName,
		maxCandidates: config.MaxCandidates,
	}, nil
}

// IndexName tên index đang dùng
func (gs *GazetteerSearcher) IndexName() string { return gs.indexName }

// Search tìm bản ghi gazetteer theo query, lọc theo lv0 nếu region khác rỗng.
// limit <= 0 dùng MaxCandidates.
func (gs *GazetteerSearcher) Search(query, region string, limit int) ([]Hit, error) {
	return gs.SearchVersion(query, "", region, limit)
}

// SearchVersion như Search nhưng chỉ trả documents của phiên bản gazetteer đã cho
func (gs *GazetteerSearcher) SearchVersion(query, version, region string, limit int) ([]Hit, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 || limit > gs.maxCandidates {
		limit = gs.maxCandidates
	}

	start := time.Now()
	filter := FilterRegion(region)
	if version != "" {
		filter = FilterVersion(version, region)
	}
	result, err := gs.client.SearchIndex(gs.indexName, query, filter, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm kiếm Meilisearch: %w", err)
	}

	hits := parseSearchResults(result)
	gs.logger.Debug("Gazetteer search completed",
		zap.String("query", query),
		zap.String("region", region),
		zap.String("gazetteer_version", version),
		zap.Int("hits", len(hits)),
		zap.Duration("duration", time.Since(start)))
	return hits, nil
}

// parseSearchResults parse kết quả từ Meilisearch thành Hit
func parseSearchResults(result *meilisearch.SearchResponse) []Hit {
	hits := make([]Hit, 0, len(result.Hits))
	for _, raw := range result.Hits {
		hitMap, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		hit := Hit{Document: Document{
			ID:               stringField(hitMap, "id"),
			Lv0:              stringField(hitMap, "lv0"),
			Lv1:              stringField(hitMap, "lv1"),
			Lv2:              stringField(hitMap, "lv2"),
			Lv3:              stringField(hitMap, "lv3"),
			Lv4:              stringField(hitMap, "lv4"),
			FullAddress:      stringField(hitMap, "full_address"),
			Romanized:        stringField(hitMap, "romanized"),
			GazetteerVersion: stringField(hitMap, "gazetteer_version"),
		}}
		if score, ok := hitMap["_rankingScore"].(float64); ok {
			hit.RankingScore = score
		}
		hits = append(hits, hit)
	}
	return hits
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// BuildIndexes cấu hình index: thuộc tính tìm kiếm, filter, synonyms theo bí danh region
func (gs *GazetteerSearcher) BuildIndexes(rules *normalizer.RulesConfig) (int64, error) {
	index := gs.client.cli.Index(gs.indexName)

	var synonyms map[string][]string
	if rules != nil {
		synonyms = rules.Synonyms()
	}

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"full_address", "lv0", "lv1", "lv2", "lv3", "lv4", "romanized"},
		FilterableAttributes: []string{"lv0", "lv1", "gazetteer_version"},
		SortableAttributes:   []string{"lv0", "full_address"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		Synonyms:             synonyms,
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  2,
				TwoTypos: 5,
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("lỗi cấu hình index: %w", err)
	}

	gs.logger.Info("Đã cấu hình index Meilisearch thành công",
		zap.String("index", gs.indexName),
		zap.Int("synonyms", len(synonyms)),
		zap.Int64("task_uid", task.TaskUID))
	return task.TaskUID, nil
}

// NewDocuments chuyển gazetteer thành documents; id là vị trí bản ghi
func NewDocuments(g *gazetteer.Gazetteer) []Document {
	docs := make([]Document, g.Len())
	for i := range docs {
		rec := g.Record(i)
		docs[i] = Document{
			ID:               strconv.Itoa(i),
			Lv0:              rec.Lv0,
			Lv1:              rec.Lv1,
			Lv2:              rec.Lv2,
			Lv3:              rec.Lv3,
			Lv4:              rec.Lv4,
			FullAddress:      rec.FullAddress,
			Romanized:        normalizer.Romanize(normalizer.JoinLevels(rec.Lv0, rec.FullAddress)),
			GazetteerVersion: g.Version(),
		}
	}
	return docs
}

// SeedData nạp gazetteer vào Meilisearch theo batch 1000, trả về task uid của từng batch
func (gs *GazetteerSearcher) SeedData(g *gazetteer.Gazetteer) ([]int64, error) {
	if g == nil || g.Len() == 0 {
		return nil, errors.New("không có dữ liệu để seed")
	}

	index := gs.client.cli.Index(gs.indexName)
	documents := NewDocuments(g)

	const batchSize = 1000
	var tasks []int64
	for i := 0; i < len(documents); i += batchSize {
		end := min(i+batchSize, len(documents))

		task, err := index.AddDocuments(documents[i:end], "id")
		if err != nil {
			return tasks, fmt.Errorf("lỗi thêm documents batch %d-%d: %w", i, end, err)
		}
		tasks = append(tasks, task.TaskUID)

		gs.logger.Info("Đã thêm batch documents",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}

	gs.logger.Info("Đã seed data thành công",
		zap.Int("total_documents", len(documents)),
		zap.String("gazetteer_version", g.Version()))
	return tasks, nil
}

// WaitForTasks chờ tất cả task hoàn thành
func (gs *GazetteerSearcher) WaitForTasks(tasks []int64, timeout time.Duration) error {
	for _, uid := range tasks {
		if err := gs.client.WaitForTask(uid, 250*time.Millisecond, timeout); err != nil {
			return err
		}
	}
	return nil
}
