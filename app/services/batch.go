package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
	"github.com/knachinen/darkmaptour-webscraping/app/requests"
	"github.com/knachinen/darkmaptour-webscraping/app/responses"
	"github.com/knachinen/darkmaptour-webscraping/helpers/utils"
	"github.com/knachinen/darkmaptour-webscraping/internal/extractor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrJobNotFound job ID không tồn tại
	ErrJobNotFound = errors.New("services: job không tồn tại")
	// ErrJobNotFinished job chưa chạy xong, chưa có kết quả
	ErrJobNotFinished = errors.New("services: job chưa hoàn thành")
	// ErrEmptyBatch batch không có item nào
	ErrEmptyBatch = errors.New("services: batch rỗng")
)

// JobKind loại input của batch
type JobKind string

const (
	JobKindQueries JobKind = "queries" // mỗi item là một chuỗi địa chỉ
	JobKindTexts   JobKind = "texts"   // mỗi item là một bài báo
)

// BatchConfig cấu hình worker pool và checkpoint
type BatchConfig struct {
	Workers         int    `mapstructure:"workers"`
	CheckpointEvery int    `mapstructure:"checkpoint_every"`
	CheckpointDir   string `mapstructure:"checkpoint_dir"`
}

// DefaultBatchConfig checkpoint mỗi 10 item vào tmp/
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{Workers: 4, CheckpointEvery: 10, CheckpointDir: "tmp"}
}

func (bc BatchConfig) withDefaults() BatchConfig {
	def := DefaultBatchConfig()
	if bc.Workers <= 0 {
		bc.Workers = def.Workers
	}
	if bc.CheckpointEvery <= 0 {
		bc.CheckpointEvery = def.CheckpointEvery
	}
	return bc
}

// JobStatus trạng thái của job
type JobStatus struct {
	JobID              string
	Kind               JobKind
	Status             string
	Progress           float64
	Processed          int
	Failed             int
	Total              int
	EstimatedRemaining int
	Message            string
	CheckpointPath     string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type jobStore struct {
	mu      sync.RWMutex
	jobs    map[string]*JobStatus
	results map[string][]*models.ProcessResult
}

func newJobStore() *jobStore {
	return &jobStore{
		jobs:    make(map[string]*JobStatus),
		results: make(map[string][]*models.ProcessResult),
	}
}

func (js *jobStore) update(jobID string, fn func(*JobStatus)) {
	js.mu.Lock()
	defer js.mu.Unlock()
	if job, ok := js.jobs[jobID]; ok {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}

// BatchProgress callback sau mỗi item hoàn thành
type BatchProgress func(processed, failed, total int)

// RunBatch xử lý items bằng worker pool và trả về kết quả theo đúng thứ tự input.
// Lỗi của từng item được ghi vào kết quả (status failed), không dừng batch.
// Chỉ hủy context mới làm RunBatch trả về lỗi.
func (as *AddressService) RunBatch(ctx context.Context, kind JobKind, items []string, opts requests.MatchOptions, cp *Checkpointer, progress BatchProgress) ([]*models.ProcessResult, error) {
	batch := make([]BatchItem, len(items))
	for i, text := range items {
		batch[i] = BatchItem{Index: i, Text: text}
	}
	return as.RunBatchItems(ctx, kind, batch, opts, cp, progress)
}

// BatchItem một phần tử của batch. Index được ghi vào ProcessResult.Index.
type BatchItem struct {
	Index int
	Text  string
}

// RunBatchItems như RunBatch nhưng giữ Index do caller chỉ định,
// dùng khi tiếp tục từ checkpoint hoặc xử lý một đoạn của input.
func (as *AddressService) RunBatchItems(ctx context.Context, kind JobKind, items []BatchItem, opts requests.MatchOptions, cp *Checkpointer, progress BatchProgress) ([]*models.ProcessResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}

	results := make([]*models.ProcessResult, len(items))
	var (
		mu        sync.Mutex
		processed int
		failed    int
	)

	// snapshot phải được gọi khi đang giữ mu
	snapshot := func() []*models.ProcessResult {
		done := make([]*models.ProcessResult, 0, processed)
		for _, r := range results {
			if r != nil {
				done = append(done, r)
			}
		}
		return done
	}
	checkpoint := func(done []*models.ProcessResult) {
		if cp == nil {
			return
		}
		saved, err := cp.SaveIfNewer(done)
		if err != nil {
			as.logger.Warn("Checkpoint save failed", zap.String("path", cp.Path()), zap.Error(err))
			return
		}
		if !saved {
			return
		}
		as.logger.Info("Checkpoint saved", zap.String("path", cp.Path()), zap.Int("results", len(done)))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(as.batchCfg.Workers)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := as.processItem(gctx, kind, item.Index, item.Text, opts)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				as.logger.Warn("Batch item failed", zap.Int("index", item.Index), zap.Error(err))
				res = models.Failed(item.Index, item.Text, err)
			}

			mu.Lock()
			results[i] = res
			processed++
			if res.Status == models.StatusFailed {
				failed++
			}
			p, f := processed, failed
			var done []*models.ProcessResult
			if p%as.batchCfg.CheckpointEvery == 0 || res.Status == models.StatusFailed {
				done = snapshot()
			}
			mu.Unlock()

			if done != nil {
				checkpoint(done)
			}
			if progress != nil {
				progress(p, f, len(items))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		mu.Lock()
		done := snapshot()
		mu.Unlock()
		checkpoint(done)
		return done, err
	}

	checkpoint(results)
	return results, nil
}

func (as *AddressService) processItem(ctx context.Context, kind JobKind, index int, item string, opts requests.MatchOptions) (*models.ProcessResult, error) {
	switch kind {
	case JobKindTexts:
		res, err := as.ProcessText(ctx, item, opts)
		if err != nil {
			return nil, err
		}
		res.Index = index
		return res, nil
	case JobKindQueries:
		match, _, err := as.MatchAddress(ctx, item, opts)
		if err != nil {
			return nil, err
		}
		res := models.NewProcessResult(item, &extractor.ArticleInfo{Address: item}, match)
		res.Index = index
		return res, nil
	}
	return nil, fmt.Errorf("services: job kind không hợp lệ %q", kind)
}

// SubmitBatch tạo job và xử lý trong background. Trả về job ID.
func (as *AddressService) SubmitBatch(kind JobKind, items []string, opts requests.MatchOptions) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyBatch
	}
	if kind == JobKindTexts && as.extractor == nil {
		return "", ErrExtractorDisabled
	}

	jobID := utils.GenerateUUID()
	now := time.Now()
	job := &JobStatus{
		JobID:     jobID,
		Kind:      kind,
		Status:    responses.JobStatusPending,
		Total:     len(items),
		Message:   "Job đã được tạo",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if as.batchCfg.CheckpointDir != "" {
		job.CheckpointPath = filepath.Join(as.batchCfg.CheckpointDir,
			fmt.Sprintf("temp_results_checkpoint__%s_%s.json", now.Format("20060102_150405"), jobID[:8]))
	}

	as.jobs.mu.Lock()
	as.jobs.jobs[jobID] = job
	as.jobs.mu.Unlock()

	go as.runJob(jobID, kind, items, opts, job.CheckpointPath)
	return jobID, nil
}

func (as *AddressService) runJob(jobID string, kind JobKind, items []string, opts requests.MatchOptions, checkpointPath string) {
	start := time.Now()
	as.jobs.update(jobID, func(j *JobStatus) {
		j.Status = responses.JobStatusRunning
		j.Message = "Đang xử lý..."
	})
	as.logger.Info("Batch job started",
		zap.String("job_id", jobID),
		zap.String("kind", string(kind)),
		zap.Int("total", len(items)))

	var cp *Checkpointer
	if checkpointPath != "" {
		cp = NewCheckpointer(checkpointPath)
	}

	results, err := as.RunBatch(context.Background(), kind, items, opts, cp, func(processed, failed, total int) {
		elapsed := time.Since(start)
		remaining := time.Duration(float64(elapsed) / float64(processed) * float64(total-processed))
		as.jobs.update(jobID, func(j *JobStatus) {
			j.Processed = processed
			j.Failed = failed
			j.Progress = float64(processed) / float64(total)
			j.EstimatedRemaining = int(remaining.Seconds())
		})
	})

	as.jobs.mu.Lock()
	as.jobs.results[jobID] = results
	as.jobs.mu.Unlock()

	as.jobs.update(jobID, func(j *JobStatus) {
		j.EstimatedRemaining = 0
		if err != nil {
			j.Status = responses.JobStatusFailed
			j.Message = err.Error()
			return
		}
		j.Status = responses.JobStatusDone
		j.Message = "Hoàn thành xử lý"
	})

	as.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.Int("total", len(items)),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
}

// EstimateBatchProcessingTime ước tính thời gian xử lý batch (giây)
func (as *AddressService) EstimateBatchProcessingTime(kind JobKind, count int) int {
	perItem := 5 * time.Millisecond
	if kind == JobKindTexts {
		perItem = 3 * time.Second // một lần gọi LLM
	}
	workers := as.batchCfg.Workers
	return int((time.Duration(count) * perItem / time.Duration(workers)).Seconds())
}

// GetJobStatus lấy trạng thái job (bản sao)
func (as *AddressService) GetJobStatus(jobID string) (*JobStatus, error) {
	as.jobs.mu.RLock()
	defer as.jobs.mu.RUnlock()

	job, exists := as.jobs.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	out := *job
	return &out, nil
}

// GetJobResults lấy kết quả job đã hoàn thành
func (as *AddressService) GetJobResults(jobID string) ([]*models.ProcessResult, error) {
	as.jobs.mu.RLock()
	defer as.jobs.mu.RUnlock()

	job, exists := as.jobs.jobs[jobID]
	if !exists {
		return nil, ErrJobNotFound
	}
	results, ok := as.jobs.results[jobID]
	if !ok || (job.Status != responses.JobStatusDone && job.Status != responses.JobStatusFailed) {
		return nil, ErrJobNotFinished
	}
	return results, nil
}

// GetJobResultsStream lấy kết quả job dưới dạng channel để stream
func (as *AddressService) GetJobResultsStream(ctx context.Context, jobID string) (<-chan *models.ProcessResult, error) {
	results, err := as.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	ch := make(chan *models.ProcessResult, 100)
	go func() {
		defer close(ch)
		for _, result := range results {
			select {
			case ch <- result:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
