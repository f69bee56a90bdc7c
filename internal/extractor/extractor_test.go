package extractor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]any
	}{
		{"plain", `{"address": "서울 강남구"}`, map[string]any{"address": "서울 강남구"}},
		{"json fence", "```json\n{\"who\": \"경찰\"}\n```", map[string]any{"who": "경찰"}},
		{"bare fence", "```\n{\"who\": \"경찰\"}\n```", map[string]any{"who": "경찰"}},
		{"surrounding text", "답변입니다: {\"what\": \"화재\"} 이상입니다. {\"x\": 1}", map[string]any{"what": "화재"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONObject(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONObject_Errors(t *testing.T) {
	_, err := ParseJSONObject("정보를 찾을 수 없습니다")
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ParseJSONObject(`{"address": }`)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoJSONObject)
}

func TestNewArticleInfo_KoreanKeys(t *testing.T) {
	info := NewArticleInfo(map[string]any{
		"누가":       "소방당국",
		"언제":       "17일 오후",
		"어디서":      "부산 해운대구 우동",
		"무엇을":      "화재 진압",
		"기타 지역 정보": []any{"센텀시티", "수영구"},
	})

	assert.Equal(t, "소방당국", info.Who)
	assert.Equal(t, "17일 오후", info.When)
	assert.Equal(t, "부산 해운대구 우동", info.Where)
	assert.Equal(t, "화재 진압", info.What)
	assert.Equal(t, "센텀시티 수영구", info.Other)
	assert.Equal(t, "부산 해운대구 우동", info.Address, "address falls back to where")
	assert.True(t, info.HasAddress())
}

func TestNewArticleInfo_EnglishKeysWin(t *testing.T) {
	info := NewArticleInfo(map[string]any{
		"address": "서울특별시 강남구",
		"where":   "역삼역 인근",
		"who":     nil,
		"when":    float64(2024),
	})
	assert.Equal(t, "서울특별시 강남구", info.Address)
	assert.Equal(t, "", info.Who)
	assert.Equal(t, "2024", info.When)

	var empty *ArticleInfo
	assert.False(t, empty.HasAddress())
}

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gemma3:1b",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(b)
}

func TestLLMExtractor_Extract(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponse("```json\n{\"address\": \"서울특별시 강남구\", \"who\": \"경찰\"}\n```")))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/v1"
	cfg.RequestsPerSecond = 0
	e := NewLLMExtractor(cfg, zap.NewNop())

	info, err := e.Extract(context.Background(), "<p>어제 서울 강남구에서  사고가 발생했다.</p>")
	require.NoError(t, err)
	assert.Equal(t, "서울특별시 강남구", info.Address)
	assert.Equal(t, "경찰", info.Who)
	assert.Equal(t, "gemma3:1b", gotModel)
}

func TestLLMExtractor_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "model not loaded"}}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/v1"
	cfg.MaxRetries = 2
	cfg.RetryBackoff = time.Millisecond
	e := NewLLMExtractor(cfg, nil)

	_, err := e.Extract(context.Background(), "기사 본문")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLLMExtractor_NoJSONInAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatResponse("죄송합니다. 정보를 찾을 수 없습니다.")))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/v1"
	e := NewLLMExtractor(cfg, nil)

	_, err := e.Extract(context.Background(), "기사 본문")
	assert.ErrorIs(t, err, ErrNoJSONObject)
}
