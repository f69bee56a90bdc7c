// Package geocoder chuyển chuỗi địa chỉ hiển thị thành tọa độ.
package geocoder

import (
	"context"
	"errors"
)

// ErrNotFound provider không tìm thấy địa chỉ
var ErrNotFound = errors.New("geocoder: address not found")

// Result kết quả geocoding từ một provider
type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"geocoded_address"`
	Provider  string  `json:"provider"`
}

// Geocoder interface cho các provider geocoding
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Noop luôn trả về ErrNotFound; dùng khi tắt geocoding
type Noop struct{}

func (Noop) Geocode(context.Context, string) (*Result, error) { return nil, ErrNotFound }
