package models

import (
	"time"

	"github.com/knachinen/darkmaptour-webscraping/internal/gazetteer"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GazetteerRecord một dòng gazetteer lưu trong collection "gazetteer"
type GazetteerRecord struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Seq              int                `bson:"seq" json:"seq"` // thứ tự gốc, quyết định tie-break khi matching
	Lv0              string             `bson:"lv0" json:"lv0"`
	Lv1              string             `bson:"lv1" json:"lv1"`
	Lv2              string             `bson:"lv2" json:"lv2"`
	Lv3              string             `bson:"lv3" json:"lv3"`
	Lv4              string             `bson:"lv4" json:"lv4"`
	Lv5              string             `bson:"lv5,omitempty" json:"lv5,omitempty"`
	FullAddress      string             `bson:"full_address" json:"full_address"`
	GazetteerVersion string             `bson:"gazetteer_version" json:"gazetteer_version"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// NewGazetteerRecord tạo document từ bản ghi gazetteer
func NewGazetteerRecord(seq int, rec gazetteer.AddressRecord, version string) GazetteerRecord {
	return GazetteerRecord{
		Seq:              seq,
		Lv0:              rec.Lv0,
		Lv1:              rec.Lv1,
		Lv2:              rec.Lv2,
		Lv3:              rec.Lv3,
		Lv4:              rec.Lv4,
		Lv5:              rec.Lv5,
		FullAddress:      rec.FullAddress,
		GazetteerVersion: version,
		CreatedAt:        time.Now(),
	}
}

// Record chuyển document về AddressRecord
func (gr GazetteerRecord) Record() gazetteer.AddressRecord {
	return gazetteer.AddressRecord{
		Lv0:         gr.Lv0,
		Lv1:         gr.Lv1,
		Lv2:         gr.Lv2,
		Lv3:         gr.Lv3,
		Lv4:         gr.Lv4,
		Lv5:         gr.Lv5,
		FullAddress: gr.FullAddress,
	}
}
