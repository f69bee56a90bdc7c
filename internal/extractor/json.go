package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSONObject được trả về khi phản hồi của LLM không chứa object JSON nào
var ErrNoJSONObject = errors.New("extractor: no JSON object in response")

// reFirstObject lấy object đầu tiên, non-greedy nên không hỗ trợ object lồng nhau
var reFirstObject = regexp.MustCompile(`(?s)\{.*?\}`)

// ParseJSONObject bỏ code fence markdown rồi decode object JSON đầu tiên trong text
func ParseJSONObject(text string) (map[string]any, error) {
	text = stripCodeFence(text)

	candidate := reFirstObject.FindString(text)
	if candidate == "" {
		return nil, ErrNoJSONObject
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, fmt.Errorf("lỗi decode JSON %q: %w", truncate(candidate, 100), err)
	}
	return obj, nil
}

func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasSuffix(t, "```") {
		return text
	}
	switch {
	case strings.HasPrefix(t, "```json"):
		return strings.TrimSpace(t[len("```json") : len(t)-len("```")])
	case strings.HasPrefix(t, "```") && len(t) >= 6:
		return strings.TrimSpace(t[len("```") : len(t)-len("```")])
	}
	return text
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
