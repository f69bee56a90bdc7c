// Package extractor gọi LLM (OpenAI-compatible, mặc định Ollama) để trích
// address/who/when/where/what/other từ nội dung bài báo.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/knachinen/darkmaptour-webscraping/internal/normalizer"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrEmptyResponse LLM không trả về choice nào
var ErrEmptyResponse = errors.New("extractor: empty LLM response")

// Extractor trích thông tin có cấu trúc từ văn bản
type Extractor interface {
	Extract(ctx context.Context, text string) (*ArticleInfo, error)
}

// Config cấu hình LLM client
type Config struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Temperature       float32       `mapstructure:"temperature"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	StructuredOutput  bool          `mapstructure:"structured_output"`
	MaxInputRunes     int           `mapstructure:"max_input_runes"`
}

// DefaultConfig cấu hình cho Ollama chạy local
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://localhost:11434/v1",
		APIKey:            "ollama",
		Model:             "gemma3:1b",
		Temperature:       0.1,
		Timeout:           120 * time.Second,
		MaxRetries:        3,
		RetryBackoff:      3 * time.Second,
		RequestsPerSecond: 2,
		MaxInputRunes:     8000,
	}
}

const systemPrompt = `기사에서 '누가', '언제', '어디서', '무엇을' 정보를 찾을 것.
사건이 발생한 장소의 주소(시/도, 시/군/구, 읍/면/동)를 찾을 것.
기타 모든 지역 정보를 찾을 것.
다음과 같은 json 포맷으로만 답할 것.
{"address": "", "who": "", "when": "", "where": "", "what": "", "other": ""}`

// LLMExtractor gọi chat completion và parse JSON trong câu trả lời
type LLMExtractor struct {
	client  *openai.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewLLMExtractor tạo extractor với client OpenAI-compatible trỏ tới cfg.BaseURL
func NewLLMExtractor(cfg Config, logger *zap.Logger) *LLMExtractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LLMExtractor{
		client:  openai.NewClientWithConfig(clientCfg),
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Extract làm sạch văn bản, gọi LLM (có retry) rồi parse kết quả
func (e *LLMExtractor) Extract(ctx context.Context, text string) (*ArticleInfo, error) {
	content, err := normalizer.CleanArticle(text)
	if err != nil {
		return nil, fmt.Errorf("lỗi làm sạch bài báo: %w", err)
	}
	if e.cfg.MaxInputRunes > 0 {
		if r := []rune(content); len(r) > e.cfg.MaxInputRunes {
			content = string(r[:e.cfg.MaxInputRunes])
		}
	}

	start := time.Now()
	var answer string
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		answer, err = e.complete(ctx, content)
		if err == nil {
			break
		}
		e.logger.Warn("LLM request failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", e.cfg.MaxRetries),
			zap.Error(err))

		if attempt < e.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * e.cfg.RetryBackoff):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("lỗi gọi LLM sau %d lần: %w", e.cfg.MaxRetries, err)
	}

	obj, err := ParseJSONObject(answer)
	if err != nil {
		return nil, err
	}
	info := NewArticleInfo(obj)

	e.logger.Debug("Article extraction completed",
		zap.String("model", e.cfg.Model),
		zap.String("address", info.Address),
		zap.Duration("duration", time.Since(start)))
	return info, nil
}

func (e *LLMExtractor) complete(ctx context.Context, content string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	request := openai.ChatCompletionRequest{
		Model: e.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		Temperature: e.cfg.Temperature,
	}
	if e.cfg.StructuredOutput {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "article_info",
				Strict: true,
				Schema: articleSchema(),
			},
		}
	}

	resp, err := e.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func articleSchema() jsonschema.Definition {
	field := func(desc string) jsonschema.Definition {
		return jsonschema.Definition{Type: jsonschema.String, Description: desc}
	}
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"address": field("사건 발생 장소의 행정 주소"),
			"who":     field("누가"),
			"when":    field("언제"),
			"where":   field("어디서"),
			"what":    field("무엇을"),
			"other":   field("기타 지역 정보"),
		},
		Required:             []string{"address", "who", "when", "where", "what", "other"},
		AdditionalProperties: false,
	}
}
