package matcher

import (
	"strings"

	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
)

// DisplayComposer dựng chuỗi hiển thị (đầu vào cho geocoder) từ bản ghi thắng,
// chỉ giữ các cấp hành chính thực sự xuất hiện trong query.
type DisplayComposer struct {
	stripper *normalizer.SuffixStripper
}

// NewDisplayComposer tạo composer; stripper nil dùng danh sách hậu tố mặc định
func NewDisplayComposer(stripper *normalizer.SuffixStripper) *DisplayComposer {
	if stripper == nil {
		stripper = normalizer.NewSuffixStripper(nil)
	}
	return &DisplayComposer{stripper: stripper}
}

// Compose walks lv0..lv4 and keeps the original text of every component whose
// suffix-stripped form occurs in normalizedQuery. When lv0 and lv1 strip to the
// same text, lv1 replaces lv0 instead of repeating it. With nothing selected it
// falls back to the record's full address.
func (dc *DisplayComposer) Compose(rec gazetteer.AddressRecord, normalizedQuery string) string {
	tokens := make([]string, 0, gazetteer.NumLevels)
	lv0Added := false

	for l, component := range rec.Levels() {
		if component == "" {
			continue
		}
		stripped := dc.stripper.Strip(component)
		if !strings.Contains(normalizedQuery, stripped) {
			continue
		}

		switch gazetteer.Level(l) {
		case gazetteer.Lv0:
			lv0Added = true
		case gazetteer.Lv1:
			if lv0Added && len(tokens) > 0 && tokens[len(tokens)-1] == stripped {
				tokens[len(tokens)-1] = component
				continue
			}
		}
		tokens = append(tokens, component)
	}

	if len(tokens) == 0 {
		return rec.FullAddress
	}
	return strings.Join(tokens, " ")
}
