// Package respparse recovers structured data from free-form language model output.
package respparse

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/paperdigest/internal/model"
)

var (
	// ErrNoObject means the text contains no {...} envelope
	ErrNoObject = errors.New("no JSON object in response")

	// ErrNoAnswers means the object decoded but carried none of the canonical keys
	ErrNoAnswers = errors.New("JSON object has no answer keys")
)

// ExtractObject returns the text between the first '{' and the last '}', inclusive
func ExtractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", ErrNoObject
	}
	return text[start : end+1], nil
}

// decodeObject extracts and decodes the JSON envelope into a generic map
func decodeObject(text string) (map[string]any, error) {
	raw, err := ExtractObject(text)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode JSON object: %w", err)
	}
	return m, nil
}

// slotForKey maps a response key onto a question slot.
// Exact canonical keys win; otherwise a leading "qN" selects slot N.
func slotForKey(key string) int {
	k := strings.ToLower(strings.TrimSpace(key))
	if i := model.QuestionIndex(k); i >= 0 {
		return i
	}
	k = strings.TrimPrefix(k, "question")
	k = strings.TrimPrefix(k, "q")
	k = strings.TrimLeft(k, " _-")
	if k == "" {
		return -1
	}
	n := int(k[0] - '0')
	if n >= 1 && n <= model.NumQuestions && (len(k) == 1 || k[1] < '0' || k[1] > '9') {
		return n - 1
	}
	return -1
}

// stringify renders a decoded JSON value as answer text
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, "- "+s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(t))
		for _, k := range keys {
			if s := stringify(t[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "\n")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
