package gazetteer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
)

// ErrMissingColumn được trả về khi bảng nguồn thiếu một trong các cột lv0..lv4
var ErrMissingColumn = errors.New("gazetteer: missing required column")

var requiredColumns = []string{"lv0", "lv1", "lv2", "lv3", "lv4"}

const optionalColumn = "lv5"

// FromTable dựng Gazetteer từ bảng thô. columns là tên cột, mỗi hàng là các ô
// theo cùng thứ tự; ô nil là giá trị null. Thiếu cột lv0..lv4 thì lỗi ngay.
func FromTable(columns []string, rows [][]*string) (*Gazetteer, error) {
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[strings.ToLower(strings.TrimSpace(c))] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := pos[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	cell := func(row []*string, col string) string {
		i, ok := pos[col]
		if !ok || i >= len(row) || row[i] == nil {
			return ""
		}
		return *row[i]
	}

	records := make([]AddressRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, AddressRecord{
			Lv0: cell(row, "lv0"),
			Lv1: cell(row, "lv1"),
			Lv2: cell(row, "lv2"),
			Lv3: cell(row, "lv3"),
			Lv4: cell(row, "lv4"),
			Lv5: cell(row, optionalColumn),
		})
	}
	return New(records), nil
}

// New dựng Gazetteer từ các bản ghi đã có cấu trúc.
// full_address luôn được tính lại từ lv1..lv4; chuỗi lặp lại được dùng chung một bản.
func New(records []AddressRecord) *Gazetteer {
	pool := make(internPool)
	g := &Gazetteer{
		records:  make([]AddressRecord, len(records)),
		byRegion: make(map[string][]int),
	}

	for i, r := range records {
		rec := AddressRecord{
			Lv0: pool.intern(r.Lv0),
			Lv1: pool.intern(r.Lv1),
			Lv2: pool.intern(r.Lv2),
			Lv3: pool.intern(r.Lv3),
			Lv4: pool.intern(r.Lv4),
			Lv5: pool.intern(r.Lv5),
		}
		rec.FullAddress = pool.intern(FullAddress(rec.Lv1, rec.Lv2, rec.Lv3, rec.Lv4))
		if rec.Lv5 != "" {
			g.hasLv5 = true
		}

		if _, seen := g.byRegion[rec.Lv0]; !seen {
			g.regions = append(g.regions, rec.Lv0)
		}
		g.byRegion[rec.Lv0] = append(g.byRegion[rec.Lv0], i)
		g.records[i] = rec
	}

	g.version = computeVersion(g.records)
	return g
}

// FullAddress nối lv1..lv4 bằng dấu cách, gom khoảng trắng và trim
func FullAddress(lv1, lv2, lv3, lv4 string) string {
	return normalizer.JoinLevels(lv1, lv2, lv3, lv4)
}

// internPool dictionary-encodes repeated values (lv0 and upper levels repeat
// across thousands of rows).
type internPool map[string]string

func (p internPool) intern(s string) string {
	if v, ok := p[s]; ok {
		return v
	}
	p[s] = s
	return s
}
