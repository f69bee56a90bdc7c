// Package matcher tìm bản ghi gazetteer khớp nhất với một chuỗi địa chỉ tự do.
//
// Luồng xử lý:
//  1. nhận diện lv0 (region) bằng partial ratio để thu hẹp ứng viên
//  2. stage 1: so khớp toàn chuỗi query với full_address
//  3. stage 2: chấm điểm tổng hợp theo lv1..lv4, cộng bonus nếu lv0 trùng region
//  4. dựng chuỗi hiển thị từ các thành phần xuất hiện trong query
//
// Matcher không giữ trạng thái giữa các lần gọi nên có thể dùng đồng thời.
package matcher

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/knachinen/darkmaptour-webscraping/internal/fuzzy"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
	"go.uber.org/zap"
)

// MatchStrategy cho biết stage nào đã quyết định kết quả
type MatchStrategy string

const (
	MatchStrategyNone       MatchStrategy = "none"
	MatchStrategyFullString MatchStrategy = "full_string"
	MatchStrategyComposite  MatchStrategy = "composite"
)

// Result kết quả matching một query.
// Record == nil nghĩa là không tìm được (sentinel), khi đó Score = 0.
type Result struct {
	Query           string                   `json:"query"`
	NormalizedQuery string                   `json:"normalized_query"`
	Region          string                   `json:"region,omitempty"`
	FullAddress     string                   `json:"full_address"`
	Display         string                   `json:"display"`
	Score           float64                  `json:"score"`
	Strategy        MatchStrategy            `json:"strategy"`
	Record          *gazetteer.AddressRecord `json:"record,omitempty"`
	Quality         *Quality                 `json:"quality,omitempty"`
}

// Found cho biết có bản ghi nào được chọn hay không
func (r Result) Found() bool { return r.Record != nil }

// Matcher thực hiện matching hai stage trên một gazetteer bất biến
type Matcher struct {
	gaz       *gazetteer.Gazetteer
	cfg       Config
	stripper  *normalizer.SuffixStripper
	prefilter *RegionPrefilter
	composer  *DisplayComposer
	logger    *zap.Logger
}

// New tạo Matcher. logger có thể nil.
func New(gaz *gazetteer.Gazetteer, cfg Config, logger *zap.Logger) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gaz == nil {
		gaz = gazetteer.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	stripper := normalizer.NewSuffixStripper(cfg.Suffixes)
	return &Matcher{
		gaz:       gaz,
		cfg:       cfg,
		stripper:  stripper,
		prefilter: NewRegionPrefilter(gaz, cfg.RegionThreshold),
		composer:  NewDisplayComposer(stripper),
		logger:    logger,
	}, nil
}

// Gazetteer trả về gazetteer đang dùng
func (m *Matcher) Gazetteer() *gazetteer.Gazetteer { return m.gaz }

// Config trả về bản sao cấu hình
func (m *Matcher) Config() Config {
	cfg := m.cfg
	cfg.Suffixes = m.stripper.Suffixes()
	return cfg
}

// NormalizeQuery chuẩn hóa query theo danh sách hậu tố của matcher
func (m *Matcher) NormalizeQuery(query string) string {
	return m.stripper.NormalizeQuery(query)
}

// FindMatchingAddress trả về (chuỗi hiển thị, điểm, bản ghi).
// Không khớp: ("", 0, nil).
func (m *Matcher) FindMatchingAddress(query string) (string, float64, *gazetteer.AddressRecord) {
	res := m.Match(query)
	return res.Display, res.Score, res.Record
}

// Match chạy toàn bộ pipeline cho một query
func (m *Matcher) Match(query string) Result {
	start := time.Now()

	// 1. Chuẩn hóa: stage 1 và region dùng query gốc (chỉ gộp khoảng trắng),
	// stage 2 và display dùng query đã bỏ hậu tố.
	raw := normalizer.CollapseSpaces(query)
	result := Result{
		Query:           query,
		NormalizedQuery: m.stripper.NormalizeQuery(query),
		Strategy:        MatchStrategyNone,
	}
	if raw == "" || m.gaz.Len() == 0 {
		return result
	}

	// 2. Region prefilter
	region, _, identified := m.prefilter.IdentifyRegion(raw)
	if identified {
		result.Region = region
	}
	candidates := m.prefilter.Candidates(region, identified)

	// 3. Stage 1: full-string ratio
	var (
		best     *gazetteer.AddressRecord
		score    float64
		strategy MatchStrategy
	)
	if rec, s, ok := m.fullStringStage(raw, candidates); ok && s >= m.cfg.StrongFullMatchThreshold {
		best, score, strategy = rec, float64(s), MatchStrategyFullString
	} else if rec, s, ok := m.compositeStage(result.NormalizedQuery, region, identified, candidates); ok {
		// 4. Stage 2: composite
		best, score, strategy = rec, s, MatchStrategyComposite
	}

	if best != nil {
		result.Record = best
		result.FullAddress = best.FullAddress
		result.Score = score
		result.Strategy = strategy
		result.Display = m.composer.Compose(*best, result.NormalizedQuery)
		result.Quality = assessQuality(result.NormalizedQuery, *best, score, m.cfg)
	}

	// 5. Log performance
	m.logger.Debug("Address matching completed",
		zap.String("query", query),
		zap.String("region", result.Region),
		zap.Bool("region_filtered", candidates.Filtered()),
		zap.Int("candidates", candidates.Len()),
		zap.String("strategy", string(result.Strategy)),
		zap.Float64("score", result.Score),
		zap.Duration("duration", time.Since(start)))

	return result
}

// fullStringStage trả về ứng viên có Ratio(query, full_address) cao nhất,
// với điều kiện đạt FuzzyMatchThreshold. Hòa điểm giữ ứng viên đứng trước.
func (m *Matcher) fullStringStage(query string, candidates candidateSet) (*gazetteer.AddressRecord, int, bool) {
	bestIdx, bestScore := -1, 0
	for i := 0; i < candidates.Len(); i++ {
		rec := candidates.At(i)
		s := fuzzy.Ratio(query, rec.FullAddress)
		if s > bestScore && s >= m.cfg.FuzzyMatchThreshold {
			bestIdx, bestScore = i, s
		}
	}
	if bestIdx < 0 {
		return nil, 0, false
	}
	rec := candidates.At(bestIdx)
	return &rec, bestScore, true
}

// compositeStage chấm điểm từng ứng viên theo thành phần:
//
//	+LV0CompositeBonus nếu lv0 của ứng viên là region đã nhận diện
//	với mỗi lv1..lv4 có điểm >= FuzzyMatchThreshold:
//	  +score*len(comp)/len(query)
//	  +ExactWordMatchBonus nếu thành phần đã bỏ hậu tố nằm nguyên trong query
//
// Thành phần dài <= 1 rune sau khi bỏ hậu tố bị bỏ qua. Chỉ điểm > 0 mới được chọn,
// và ứng viên thắng có full_address rỗng (chỉ có lv0) cho kết quả không khớp.
func (m *Matcher) compositeStage(normalizedQuery, region string, identified bool, candidates candidateSet) (*gazetteer.AddressRecord, float64, bool) {
	queryLen := utf8.RuneCountInString(normalizedQuery)

	bestIdx, bestScore := -1, 0.0
	for i := 0; i < candidates.Len(); i++ {
		rec := candidates.At(i)
		s := m.compositeScore(rec, normalizedQuery, queryLen, region, identified)
		if s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	if bestIdx < 0 {
		return nil, 0, false
	}
	rec := candidates.At(bestIdx)
	if rec.FullAddress == "" {
		return nil, 0, false
	}
	return &rec, bestScore, true
}

func (m *Matcher) compositeScore(rec gazetteer.AddressRecord, query string, queryLen int, region string, identified bool) float64 {
	var score float64
	if identified && rec.Lv0 == region {
		score += m.cfg.LV0CompositeBonus
	}
	if queryLen == 0 {
		return score
	}

	levels := rec.Levels()
	for _, component := range levels[gazetteer.Lv1:] {
		if component == "" {
			continue
		}
		stripped := m.stripper.Strip(component)
		strippedLen := utf8.RuneCountInString(stripped)
		if strippedLen <= 1 {
			continue
		}

		cs := fuzzy.ComponentScore(stripped, query)
		if cs < m.cfg.FuzzyMatchThreshold {
			continue
		}
		score += float64(cs) * (float64(strippedLen) / float64(queryLen))
		if strings.Contains(query, stripped) {
			score += m.cfg.ExactWordMatchBonus
		}
	}
	return score
}
