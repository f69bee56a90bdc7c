package matcher

import (
	"errors"
	"fmt"

	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
)

// Config các ngưỡng và hằng số của bộ matching.
// Được truyền tường minh vào New, không dùng biến toàn cục.
type Config struct {
	// FuzzyMatchThreshold: ngưỡng tối thiểu cho ratio stage 1 và điểm thành phần stage 2
	FuzzyMatchThreshold int `yaml:"fuzzy_match_threshold" json:"fuzzy_match_threshold"`
	// StrongFullMatchThreshold: ratio stage 1 đạt ngưỡng này thì trả về ngay
	StrongFullMatchThreshold int `yaml:"strong_full_match_threshold" json:"strong_full_match_threshold"`
	// RegionThreshold: ngưỡng partial ratio để nhận diện lv0
	RegionThreshold     int      `yaml:"region_threshold" json:"region_threshold"`
	LV0CompositeBonus   float64  `yaml:"lv0_composite_bonus" json:"lv0_composite_bonus"`
	ExactWordMatchBonus float64  `yaml:"exact_word_match_bonus" json:"exact_word_match_bonus"`
	Suffixes            []string `yaml:"suffixes" json:"suffixes"`
}

// DefaultConfig trả về cấu hình mặc định
func DefaultConfig() Config {
	return Config{
		FuzzyMatchThreshold:      80,
		StrongFullMatchThreshold: 90,
		RegionThreshold:          80,
		LV0CompositeBonus:        20,
		ExactWordMatchBonus:      10,
		Suffixes:                 append([]string(nil), normalizer.DefaultSuffixes...),
	}
}

// ErrInvalidConfig được bọc bởi mọi lỗi từ Validate
var ErrInvalidConfig = errors.New("matcher: invalid config")

// Validate kiểm tra các giá trị cấu hình
func (c Config) Validate() error {
	for name, v := range map[string]int{
		"fuzzy_match_threshold":       c.FuzzyMatchThreshold,
		"strong_full_match_threshold": c.StrongFullMatchThreshold,
		"region_threshold":            c.RegionThreshold,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s must be in [0, 100], got %d", ErrInvalidConfig, name, v)
		}
	}
	if c.LV0CompositeBonus < 0 || c.ExactWordMatchBonus < 0 {
		return fmt.Errorf("%w: bonuses must not be negative", ErrInvalidConfig)
	}
	for i, s := range c.Suffixes {
		if s == "" {
			return fmt.Errorf("%w: suffixes[%d] is empty", ErrInvalidConfig, i)
		}
	}
	return nil
}
