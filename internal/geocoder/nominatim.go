package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NominatimConfig cấu hình client Nominatim (OpenStreetMap)
type NominatimConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	CountryCodes      string        `mapstructure:"country_codes"`
	Language          string        `mapstructure:"language"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	CacheSize         int           `mapstructure:"cache_size"`
}

// DefaultNominatimConfig theo usage policy của nominatim.openstreetmap.org: tối đa 1 request/giây
func DefaultNominatimConfig() NominatimConfig {
	return NominatimConfig{
		BaseURL:           "https://nominatim.openstreetmap.org",
		UserAgent:         "darkmaptour-geocoder/1.0",
		CountryCodes:      "kr",
		Language:          "ko",
		Timeout:           10 * time.Second,
		RequestsPerSecond: 1,
		CacheSize:         4096,
	}
}

// nominatimResponse phần cần dùng của payload /search?format=jsonv2
type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// cacheEntry nil result nghĩa là đã tra và không thấy
type cacheEntry struct {
	result *Result
}

// Nominatim geocoder có rate limit và LRU cache
type Nominatim struct {
	cfg     NominatimConfig
	http    *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, cacheEntry]
	logger  *zap.Logger
}

// NewNominatim tạo client Nominatim
func NewNominatim(cfg NominatimConfig, logger *zap.Logger) (*Nominatim, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("geocoder: base_url không được để trống")
	}
	if cfg.UserAgent == "" {
		return nil, errors.New("geocoder: user_agent là bắt buộc với Nominatim")
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1
	}
	cache, err := lru.New[string, cacheEntry](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("lỗi tạo geocode cache: %w", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Nominatim{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		cache:   cache,
		logger:  logger,
	}, nil
}

// Geocode tra tọa độ của address; kết quả (kể cả không tìm thấy) được cache
func (n *Nominatim) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrNotFound
	}
	if entry, ok := n.cache.Get(address); ok {
		if entry.result == nil {
			return nil, ErrNotFound
		}
		res := *entry.result
		return &res, nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := n.search(ctx, address)
	if err != nil && !errors.Is(err, ErrNotFound) {
		n.logger.Warn("Nominatim request failed", zap.String("address", address), zap.Error(err))
		return nil, err
	}

	n.cache.Add(address, cacheEntry{result: res})
	n.logger.Debug("Geocoding completed",
		zap.String("address", address),
		zap.Bool("found", res != nil),
		zap.Duration("duration", time.Since(start)))

	if res == nil {
		return nil, ErrNotFound
	}
	out := *res
	return &out, nil
}

func (n *Nominatim) search(ctx context.Context, address string) (*Result, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	if n.cfg.CountryCodes != "" {
		params.Set("countrycodes", n.cfg.CountryCodes)
	}
	if n.cfg.Language != "" {
		params.Set("accept-language", n.cfg.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(n.cfg.BaseURL, "/")+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.cfg.UserAgent)

	resp, err := n.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lỗi gọi Nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim trả về status %d", resp.StatusCode)
	}

	var places []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("lỗi decode phản hồi Nominatim: %w", err)
	}
	if len(places) == 0 {
		return nil, ErrNotFound
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("lat không hợp lệ %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("lon không hợp lệ %q: %w", places[0].Lon, err)
	}

	return &Result{
		Latitude:  lat,
		Longitude: lon,
		Address:   places[0].DisplayName,
		Provider:  "nominatim",
	}, nil
}

// CacheLen số địa chỉ đang được cache
func (n *Nominatim) CacheLen() int { return n.cache.Len() }
