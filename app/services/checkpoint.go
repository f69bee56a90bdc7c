package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
)

// Checkpointer ghi kết quả batch tích lũy ra file JSON.
// File được ghi qua file tạm + rename nên không bao giờ bị đọc dở.
type Checkpointer struct {
	path  string
	mu    sync.Mutex
	saved int
}

// NewCheckpointer tạo checkpointer ghi vào path
func NewCheckpointer(path string) *Checkpointer {
	return &Checkpointer{path: path}
}

// Path đường dẫn file checkpoint
func (cp *Checkpointer) Path() string { return cp.path }

// Save ghi đè file checkpoint bằng results
func (cp *Checkpointer) Save(results []*models.ProcessResult) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.write(results)
}

// SaveIfNewer chỉ ghi khi results không ít hơn lần ghi trước.
// Worker có thể gọi Save theo thứ tự khác thứ tự lấy snapshot; snapshot cũ bị bỏ qua.
func (cp *Checkpointer) SaveIfNewer(results []*models.ProcessResult) (bool, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if len(results) < cp.saved {
		return false, nil
	}
	return true, cp.write(results)
}

func (cp *Checkpointer) write(results []*models.ProcessResult) error {
	if err := os.MkdirAll(filepath.Dir(cp.path), 0o755); err != nil {
		return fmt.Errorf("lỗi tạo thư mục checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(cp.path), ".checkpoint-*.json")
	if err != nil {
		return fmt.Errorf("lỗi tạo file checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if results == nil {
		results = []*models.ProcessResult{}
	}
	if err := enc.Encode(results); err != nil {
		tmp.Close()
		return fmt.Errorf("lỗi ghi checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), cp.path); err != nil {
		return err
	}
	cp.saved = len(results)
	return nil
}

// LoadCheckpoint đọc lại file kết quả đã ghi
func LoadCheckpoint(path string) ([]*models.ProcessResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var results []*models.ProcessResult
	if err := json.NewDecoder(f).Decode(&results); err != nil {
		return nil, fmt.Errorf("lỗi đọc checkpoint %s: %w", path, err)
	}
	return results, nil
}
