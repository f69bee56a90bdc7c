// Package gazetteer holds the canonical lv0..lv4 address reference table.
// A Gazetteer is built once and is read-only afterwards, so one instance can
// be shared by any number of concurrent matchers.
package gazetteer

import (
	"crypto/sha256"
	"fmt"
)

// Level indexes lv0..lv4.
type Level int

const (
	Lv0 Level = iota
	Lv1
	Lv2
	Lv3
	Lv4
)

// NumLevels là số cấp tham gia matching (lv0..lv4)
const NumLevels = 5

// AddressRecord một bản ghi gazetteer
type AddressRecord struct {
	Lv0         string `json:"lv0" bson:"lv0"`
	Lv1         string `json:"lv1" bson:"lv1"`
	Lv2         string `json:"lv2" bson:"lv2"`
	Lv3         string `json:"lv3" bson:"lv3"`
	Lv4         string `json:"lv4" bson:"lv4"`
	Lv5         string `json:"lv5,omitempty" bson:"lv5,omitempty"`
	FullAddress string `json:"full_address" bson:"full_address"`
}

// Level trả về giá trị của cấp l (lv0..lv4)
func (r AddressRecord) Level(l Level) string {
	switch l {
	case Lv0:
		return r.Lv0
	case Lv1:
		return r.Lv1
	case Lv2:
		return r.Lv2
	case Lv3:
		return r.Lv3
	case Lv4:
		return r.Lv4
	}
	return ""
}

// Levels trả về lv0..lv4 theo thứ tự
func (r AddressRecord) Levels() [NumLevels]string {
	return [NumLevels]string{r.Lv0, r.Lv1, r.Lv2, r.Lv3, r.Lv4}
}

// Gazetteer tập bản ghi có thứ tự cùng chỉ mục lv0
type Gazetteer struct {
	records  []AddressRecord
	regions  []string
	byRegion map[string][]int
	hasLv5   bool
	version  string
}

// Len số bản ghi
func (g *Gazetteer) Len() int { return len(g.records) }

// Record trả về bản ghi thứ i
func (g *Gazetteer) Record(i int) AddressRecord { return g.records[i] }

// Records returns a copy of all records in gazetteer order.
func (g *Gazetteer) Records() []AddressRecord {
	return append([]AddressRecord(nil), g.records...)
}

// Regions là các giá trị lv0 khác nhau theo thứ tự xuất hiện đầu tiên
func (g *Gazetteer) Regions() []string {
	return append([]string(nil), g.regions...)
}

// RegionIndexes trả về chỉ số các bản ghi có lv0 = region (theo thứ tự gazetteer).
// Slice trả về dùng chung, không được sửa.
func (g *Gazetteer) RegionIndexes(region string) []int {
	return g.byRegion[region]
}

// HasLv5 cho biết cột lv5 có dữ liệu hay không
func (g *Gazetteer) HasLv5() bool { return g.hasLv5 }

// Version là fingerprint sha256 của nội dung gazetteer, dùng để invalidate cache
func (g *Gazetteer) Version() string { return g.version }

func computeVersion(records []AddressRecord) string {
	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1e", r.Lv0, r.Lv1, r.Lv2, r.Lv3, r.Lv4, r.Lv5)
	}
	return fmt.Sprintf("sha256:%x", h.Sum(nil))[:23]
}
