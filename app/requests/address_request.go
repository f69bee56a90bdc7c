package requests

import "github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"

// MatchAddressRequest request match một chuỗi địa chỉ
type MatchAddressRequest struct {
	Query   string       `json:"query" binding:"required"` // Chuỗi địa chỉ cần match
	Options MatchOptions `json:"options,omitempty"`
}

// MatchOptions tùy chọn match
type MatchOptions struct {
	UseCache *bool `json:"use_cache,omitempty"` // mặc định true
	Geocode  bool  `json:"geocode,omitempty"`   // Có geocode địa chỉ hiển thị không
}

// CacheEnabled trả về giá trị use_cache, mặc định true
func (o MatchOptions) CacheEnabled() bool {
	return o.UseCache == nil || *o.UseCache
}

// ProcessArticleRequest request xử lý một bài báo (extract -> match -> geocode)
type ProcessArticleRequest struct {
	Text    string       `json:"text" binding:"required"`
	Options MatchOptions `json:"options,omitempty"`
}

// BatchJobRequest request tạo job batch; chỉ một trong hai danh sách được dùng
type BatchJobRequest struct {
	Queries []string     `json:"queries,omitempty" binding:"omitempty,max=20000"` // Danh sách địa chỉ
	Texts   []string     `json:"texts,omitempty" binding:"omitempty,max=20000"`   // Danh sách bài báo
	Options MatchOptions `json:"options,omitempty"`
}

// SeedGazetteerRequest request seed gazetteer. Records hoặc Path (file trên server).
type SeedGazetteerRequest struct {
	Records        []gazetteer.AddressRecord `json:"records,omitempty"`
	Path           string                    `json:"path,omitempty"`
	RebuildIndexes bool                      `json:"rebuild_indexes,omitempty"`
	Reload         bool                      `json:"reload,omitempty"` // Nạp gazetteer mới vào matcher ngay
}

// ReloadGazetteerRequest request nạp lại gazetteer cho matcher
type ReloadGazetteerRequest struct {
	Source string `json:"source,omitempty"` // "mongo" hoặc đường dẫn file; rỗng = nguồn cấu hình
}
