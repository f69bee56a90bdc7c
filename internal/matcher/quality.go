package matcher

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/xrash/smetrics"
)

// QualityFlag các cờ chẩn đoán gắn vào kết quả
type QualityFlag string

const (
	FlagExactMatch     QualityFlag = "EXACT_MATCH"
	FlagRegionMatch    QualityFlag = "REGION_MATCH"
	FlagRegionOnly     QualityFlag = "REGION_ONLY"
	FlagUnboundedScore QualityFlag = "UNBOUNDED_SCORE"
	FlagLowSimilarity  QualityFlag = "LOW_SIMILARITY"
)

// lowSimilarity: dưới mức này full_address gần như không giống query
const lowSimilarity = 0.5

// Quality chỉ số chẩn đoán cho kết quả thắng. Không ảnh hưởng tới điểm matching.
type Quality struct {
	JaroWinkler           float64  `json:"jaro_winkler"`
	LevenshteinDistance   int      `json:"levenshtein_distance"`
	LevenshteinSimilarity float64  `json:"levenshtein_similarity"`
	Flags                 []string `json:"flags"`
}

// assessQuality so sánh query đã chuẩn hóa với full_address của bản ghi thắng
func assessQuality(normalizedQuery string, rec gazetteer.AddressRecord, score float64, cfg Config) *Quality {
	q := strings.ToLower(normalizedQuery)
	target := strings.ToLower(rec.FullAddress)

	quality := &Quality{
		JaroWinkler:         smetrics.JaroWinkler(q, target, 0.7, 4),
		LevenshteinDistance: levenshtein.ComputeDistance(q, target),
		Flags:               make([]string, 0),
	}
	maxLen := max(utf8.RuneCountInString(q), utf8.RuneCountInString(target))
	if maxLen > 0 {
		quality.LevenshteinSimilarity = 1.0 - float64(quality.LevenshteinDistance)/float64(maxLen)
	}

	if q == target {
		quality.Flags = append(quality.Flags, string(FlagExactMatch))
	}
	if rec.Lv0 != "" && strings.Contains(normalizedQuery, rec.Lv0) {
		quality.Flags = append(quality.Flags, string(FlagRegionMatch))
	}
	if score == cfg.LV0CompositeBonus {
		quality.Flags = append(quality.Flags, string(FlagRegionOnly))
	}
	if score > 100 {
		quality.Flags = append(quality.Flags, string(FlagUnboundedScore))
	}
	if quality.JaroWinkler < lowSimilarity && quality.LevenshteinSimilarity < lowSimilarity {
		quality.Flags = append(quality.Flags, string(FlagLowSimilarity))
	}
	return quality
}
