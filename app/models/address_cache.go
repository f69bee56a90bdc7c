package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddressCache bản ghi cache kết quả match trong MongoDB
type AddressCache struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint      string             `bson:"fingerprint" json:"fingerprint"` // sha256 của cache key
	CacheKey         string             `bson:"cache_key" json:"cache_key"`
	Query            string             `bson:"query" json:"query"`
	Result           MatchResult        `bson:"result" json:"result"`
	MatchScore       float64            `bson:"match_score" json:"match_score"`
	MatchStrategy    string             `bson:"match_strategy" json:"match_strategy"`
	GazetteerVersion string             `bson:"gazetteer_version" json:"gazetteer_version"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed     time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount      int                `bson:"access_count" json:"access_count"`
}

// NewAddressCache tạo mới một AddressCache
func NewAddressCache(fingerprint, key string, result MatchResult) *AddressCache {
	now := time.Now()
	return &AddressCache{
		Fingerprint:      fingerprint,
		CacheKey:         key,
		Query:            result.Query,
		Result:           result,
		MatchScore:       result.MatchScore,
		MatchStrategy:    result.MatchStrategy,
		GazetteerVersion: result.GazetteerVersion,
		CreatedAt:        now,
		LastAccessed:     now,
		AccessCount:      1,
	}
}

// IsExpired kiểm tra cache có hết hạn không (dựa trên thời gian tạo)
func (ac *AddressCache) IsExpired(ttl time.Duration) bool {
	return ttl > 0 && time.Since(ac.CreatedAt) > ttl
}

// IsValidGazetteerVersion kiểm tra phiên bản gazetteer có khớp không
func (ac *AddressCache) IsValidGazetteerVersion(currentVersion string) bool {
	return ac.GazetteerVersion == currentVersion
}
