// Package search đồng bộ gazetteer vào Meilisearch và tìm kiếm trên đó.
// Kết quả tìm kiếm chỉ dùng cho tra cứu/autocomplete; matching không phụ thuộc vào index.
package search

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	ms "github.com/meilisearch/meilisearch-go"
)

// ErrTaskFailed được trả về khi task Meilisearch kết thúc ở trạng thái failed
var ErrTaskFailed = errors.New("search: meilisearch task failed")

// ClientWrapper bọc Meilisearch client với các lệnh gazetteer cần
type ClientWrapper struct {
	cli ms.ServiceManager
}

// NewClientWrapper tạo client; timeout <= 0 dùng http.Client mặc định
func NewClientWrapper(url, key string, timeout time.Duration) *ClientWrapper {
	opts := []ms.Option{ms.WithAPIKey(key)}
	if timeout > 0 {
		opts = append(opts, ms.WithCustomClient(&http.Client{Timeout: timeout}))
	}
	return &ClientWrapper{cli: ms.New(url, opts...)}
}

// Healthy kiểm tra kết nối tới server
func (c *ClientWrapper) Healthy() error {
	health, err := c.cli.Health()
	if err != nil {
		return err
	}
	if health.Status != "available" {
		return fmt.Errorf("meilisearch status %q", health.Status)
	}
	return nil
}

// SearchIndex tìm trong index với filter và limit
func (c *ClientWrapper) SearchIndex(index, q, filter string, limit int64) (*ms.SearchResponse, error) {
	req := &ms.SearchRequest{
		Limit:            limit,
		ShowRankingScore: true,
	}
	if filter != "" {
		req.Filter = filter
	}
	return c.cli.Index(index).Search(q, req)
}

// WaitForTask poll trạng thái task tới khi xong hoặc hết timeout
func (c *ClientWrapper) WaitForTask(taskUID int64, interval, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		task, err := c.cli.GetTask(taskUID)
		if err != nil {
			return fmt.Errorf("lỗi check task %d: %w", taskUID, err)
		}
		switch task.Status {
		case "succeeded":
			return nil
		case "failed", "canceled":
			return fmt.Errorf("%w: task %d: %v", ErrTaskFailed, taskUID, task.Error)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("task %d chưa xong sau %s", taskUID, timeout)
		}
		time.Sleep(interval)
	}
}

// FilterRegion tạo filter theo lv0
func FilterRegion(lv0 string) string {
	if lv0 == "" {
		return ""
	}
	return fmt.Sprintf("lv0 = %q", lv0)
}

// FilterVersion tạo filter theo phiên bản gazetteer, có thể kèm lv0
func FilterVersion(version, lv0 string) string {
	parts := []string{fmt.Sprintf("gazetteer_version = %q", version)}
	if f := FilterRegion(lv0); f != "" {
		parts = append(parts, f)
	}
	return strings.Join(parts, " AND ")
}
