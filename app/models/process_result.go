package models

import "github.com/knachinen/darkmaptour-webscraping/internal/extractor"

// ProcessResult kết quả xử lý một bài báo: thông tin trích xuất + địa chỉ đã match.
// Các field phẳng để ghi ra file JSON kết quả batch.
type ProcessResult struct {
	Index        int    `json:"index"` // vị trí trong input batch
	OriginalText string `json:"original_text"`
	Address      string `json:"address"`
	Who          string `json:"who"`
	When         string `json:"when"`
	Where        string `json:"where"`
	What         string `json:"what"`
	Other        string `json:"other"`

	MatchedAddressDisplay string   `json:"matched_address_display"`
	MatchScore            float64  `json:"match_score"`
	MatchedFullAddress    string   `json:"matched_full_address_df"`
	MatchedLv0            string   `json:"matched_lv0"`
	MatchedLv1            string   `json:"matched_lv1"`
	MatchedLv2            string   `json:"matched_lv2"`
	MatchedLv3            string   `json:"matched_lv3"`
	MatchedLv4            string   `json:"matched_lv4"`
	Latitude              *float64 `json:"lat"`
	Longitude             *float64 `json:"lon"`
	GeocodedAddress       string   `json:"geocoded_address"`

	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewProcessResult ghép thông tin bài báo với kết quả match (match có thể nil)
func NewProcessResult(text string, info *extractor.ArticleInfo, match *MatchResult) *ProcessResult {
	pr := &ProcessResult{OriginalText: text, Status: StatusUnmatched}
	if info != nil {
		pr.Address = info.Address
		pr.Who = info.Who
		pr.When = info.When
		pr.Where = info.Where
		pr.What = info.What
		pr.Other = info.Other
	}
	if match != nil {
		pr.MatchedAddressDisplay = match.MatchedAddressDisplay
		pr.MatchScore = match.MatchScore
		pr.MatchedFullAddress = match.MatchedFullAddress
		pr.MatchedLv0 = match.MatchedLv0
		pr.MatchedLv1 = match.MatchedLv1
		pr.MatchedLv2 = match.MatchedLv2
		pr.MatchedLv3 = match.MatchedLv3
		pr.MatchedLv4 = match.MatchedLv4
		pr.Latitude = match.Latitude
		pr.Longitude = match.Longitude
		pr.GeocodedAddress = match.GeocodedAddress
		pr.Status = match.Status
	}
	return pr
}

// Failed tạo kết quả lỗi cho một item, batch vẫn tiếp tục
func Failed(index int, text string, err error) *ProcessResult {
	return &ProcessResult{Index: index, OriginalText: text, Status: StatusFailed, Error: err.Error()}
}

// StatusFailed item xử lý lỗi (extractor/geocoder)
const StatusFailed = "failed"
