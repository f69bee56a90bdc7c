// Package config nạp cấu hình matcher từ YAML, sau đó áp dụng ENV overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knachinen/darkmaptour-webscraping/internal/matcher"
	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
	"gopkg.in/yaml.v3"
)

type Thresholds struct {
	FuzzyMatch      int `yaml:"fuzzy_match" json:"fuzzy_match"`
	StrongFullMatch int `yaml:"strong_full_match" json:"strong_full_match"`
	Region          int `yaml:"region" json:"region"`
}

type Bonuses struct {
	LV0Composite   float64 `yaml:"lv0_composite" json:"lv0_composite"`
	ExactWordMatch float64 `yaml:"exact_word_match" json:"exact_word_match"`
}

type MatcherCfg struct {
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Bonuses    Bonuses    `yaml:"bonuses" json:"bonuses"`
	Suffixes   []string   `yaml:"suffixes" json:"suffixes"`
}

type BatchCfg struct {
	Workers         int    `yaml:"workers" json:"workers"`
	CheckpointEvery int    `yaml:"checkpoint_every" json:"checkpoint_every"`
	CheckpointDir   string `yaml:"checkpoint_dir" json:"checkpoint_dir"`
}

type AppCfg struct {
	Matcher MatcherCfg `yaml:"matcher" json:"matcher"`
	Batch   BatchCfg   `yaml:"batch" json:"batch"`
}

var C = Default()

// Default trả về các giá trị mặc định của matcher và batch
func Default() AppCfg {
	return AppCfg{
		Matcher: MatcherCfg{
			Thresholds: Thresholds{FuzzyMatch: 80, StrongFullMatch: 90, Region: 80},
			Bonuses:    Bonuses{LV0Composite: 20, ExactWordMatch: 10},
			Suffixes:   append([]string(nil), normalizer.DefaultSuffixes...),
		},
		Batch: BatchCfg{Workers: 4, CheckpointEvery: 10, CheckpointDir: "tmp"},
	}
}

// Load đọc file YAML đè lên Default, áp dụng ENV overrides rồi gán vào C.
// Trường vắng mặt trong file giữ giá trị mặc định.
func Load(path string) (AppCfg, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Matcher.ToMatcherConfig().Validate(); err != nil {
		return cfg, err
	}
	C = cfg
	return cfg, nil
}

// ENV overrides
func applyEnv(cfg *AppCfg) error {
	ints := map[string]*int{
		"MATCHER_FUZZY_MATCH_THRESHOLD":       &cfg.Matcher.Thresholds.FuzzyMatch,
		"MATCHER_STRONG_FULL_MATCH_THRESHOLD": &cfg.Matcher.Thresholds.StrongFullMatch,
		"MATCHER_REGION_THRESHOLD":            &cfg.Matcher.Thresholds.Region,
		"BATCH_WORKERS":                       &cfg.Batch.Workers,
		"BATCH_CHECKPOINT_EVERY":              &cfg.Batch.CheckpointEvery,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = n
	}
	if v := os.Getenv("MATCHER_SUFFIXES"); v != "" {
		cfg.Matcher.Suffixes = strings.Split(v, ",")
	}
	if v := os.Getenv("BATCH_CHECKPOINT_DIR"); v != "" {
		cfg.Batch.CheckpointDir = v
	}
	return nil
}

// ToMatcherConfig chuyển sang matcher.Config để truyền vào matcher.New
func (m MatcherCfg) ToMatcherConfig() matcher.Config {
	return matcher.Config{
		FuzzyMatchThreshold:      m.Thresholds.FuzzyMatch,
		StrongFullMatchThreshold: m.Thresholds.StrongFullMatch,
		RegionThreshold:          m.Thresholds.Region,
		LV0CompositeBonus:        m.Bonuses.LV0Composite,
		ExactWordMatchBonus:      m.Bonuses.ExactWordMatch,
		Suffixes:                 append([]string(nil), m.Suffixes...),
	}
}

