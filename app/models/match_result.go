package models

import (
	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/geocoder"
	"github.com/knachinen/darkmaptour-webscraping/internal/matcher"
)

// MatchResult kết quả matching một query với gazetteer
type MatchResult struct {
	Query                 string       `json:"query" bson:"query" msgpack:"query"`
	NormalizedQuery       string       `json:"normalized_query" bson:"normalized_query" msgpack:"normalized_query"`
	Region                string       `json:"region,omitempty" bson:"region,omitempty" msgpack:"region,omitempty"`
	MatchedAddressDisplay string       `json:"matched_address_display" bson:"matched_address_display" msgpack:"matched_address_display"`
	MatchScore            float64      `json:"match_score" bson:"match_score" msgpack:"match_score"`
	MatchedFullAddress    string       `json:"matched_full_address_df" bson:"matched_full_address_df" msgpack:"matched_full_address_df"`
	MatchedLv0            string       `json:"matched_lv0,omitempty" bson:"matched_lv0,omitempty" msgpack:"matched_lv0,omitempty"`
	MatchedLv1            string       `json:"matched_lv1,omitempty" bson:"matched_lv1,omitempty" msgpack:"matched_lv1,omitempty"`
	MatchedLv2            string       `json:"matched_lv2,omitempty" bson:"matched_lv2,omitempty" msgpack:"matched_lv2,omitempty"`
	MatchedLv3            string       `json:"matched_lv3,omitempty" bson:"matched_lv3,omitempty" msgpack:"matched_lv3,omitempty"`
	MatchedLv4            string       `json:"matched_lv4,omitempty" bson:"matched_lv4,omitempty" msgpack:"matched_lv4,omitempty"`
	MatchStrategy         string       `json:"match_strategy" bson:"match_strategy" msgpack:"match_strategy"`
	Status                string       `json:"status" bson:"status" msgpack:"status"`
	Quality               *QualityInfo `json:"quality,omitempty" bson:"quality,omitempty" msgpack:"quality,omitempty"`
	GazetteerVersion      string       `json:"gazetteer_version" bson:"gazetteer_version" msgpack:"gazetteer_version"`

	// Geocoding, chỉ có khi được yêu cầu
	Latitude        *float64 `json:"lat,omitempty" bson:"lat,omitempty" msgpack:"lat,omitempty"`
	Longitude       *float64 `json:"lon,omitempty" bson:"lon,omitempty" msgpack:"lon,omitempty"`
	GeocodedAddress string   `json:"geocoded_address,omitempty" bson:"geocoded_address,omitempty" msgpack:"geocoded_address,omitempty"`
}

// QualityInfo chỉ số chẩn đoán của kết quả
type QualityInfo struct {
	JaroWinkler           float64  `json:"jaro_winkler" bson:"jaro_winkler" msgpack:"jaro_winkler"`
	LevenshteinDistance   int      `json:"levenshtein_distance" bson:"levenshtein_distance" msgpack:"levenshtein_distance"`
	LevenshteinSimilarity float64  `json:"levenshtein_similarity" bson:"levenshtein_similarity" msgpack:"levenshtein_similarity"`
	Flags                 []string `json:"flags" bson:"flags" msgpack:"flags"`
}

// Status constants
const (
	StatusMatched   = "matched"
	StatusUnmatched = "unmatched"
)

// NewMatchResult chuyển matcher.Result sang model trả về API / lưu cache
func NewMatchResult(res matcher.Result, gazetteerVersion string) *MatchResult {
	out := &MatchResult{
		Query:                 res.Query,
		NormalizedQuery:       res.NormalizedQuery,
		Region:                res.Region,
		MatchedAddressDisplay: res.Display,
		MatchScore:            res.Score,
		MatchedFullAddress:    res.FullAddress,
		MatchStrategy:         string(res.Strategy),
		Status:                StatusUnmatched,
		GazetteerVersion:      gazetteerVersion,
	}
	if res.Record != nil {
		out.Status = StatusMatched
		out.setLevels(*res.Record)
	}
	if res.Quality != nil {
		out.Quality = &QualityInfo{
			JaroWinkler:           res.Quality.JaroWinkler,
			LevenshteinDistance:   res.Quality.LevenshteinDistance,
			LevenshteinSimilarity: res.Quality.LevenshteinSimilarity,
			Flags:                 append([]string(nil), res.Quality.Flags...),
		}
	}
	return out
}

func (mr *MatchResult) setLevels(rec gazetteer.AddressRecord) {
	mr.MatchedLv0 = rec.Lv0
	mr.MatchedLv1 = rec.Lv1
	mr.MatchedLv2 = rec.Lv2
	mr.MatchedLv3 = rec.Lv3
	mr.MatchedLv4 = rec.Lv4
}

// Found cho biết query có khớp bản ghi nào không
func (mr *MatchResult) Found() bool {
	return mr != nil && mr.Status == StatusMatched
}

// Clone trả về bản sao độc lập (cache giữ con trỏ, caller không được sửa bản gốc)
func (mr *MatchResult) Clone() *MatchResult {
	if mr == nil {
		return nil
	}
	out := *mr
	if mr.Quality != nil {
		q := *mr.Quality
		q.Flags = append([]string(nil), mr.Quality.Flags...)
		out.Quality = &q
	}
	if mr.Latitude != nil {
		lat := *mr.Latitude
		out.Latitude = &lat
	}
	if mr.Longitude != nil {
		lon := *mr.Longitude
		out.Longitude = &lon
	}
	return &out
}

// ApplyGeocode gắn tọa độ vào kết quả
func (mr *MatchResult) ApplyGeocode(g *geocoder.Result) {
	if g == nil {
		return
	}
	lat, lon := g.Latitude, g.Longitude
	mr.Latitude = &lat
	mr.Longitude = &lon
	mr.GeocodedAddress = g.Address
}

// IsValidStatus kiểm tra status hợp lệ
func (mr *MatchResult) IsValidStatus() bool {
	return mr.Status == StatusMatched || mr.Status == StatusUnmatched
}
