package respparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/paperdigest/internal/model"
)

// ErrNoScore means the verdict object carried no usable relevance score
var ErrNoScore = errors.New("verdict has no relevance score")

// ParseVerdict decodes a semantic classification response.
// Scores on a 0-10 scale are rescaled to 0-1; anything outside [0,10] is rejected.
// IsRelevant echoes the model's own flag; callers apply their threshold to Score.
func ParseVerdict(text string) (model.RelevanceVerdict, error) {
	var v model.RelevanceVerdict

	obj, err := decodeObject(text)
	if err != nil {
		return v, err
	}

	raw, ok := obj["relevance_score"]
	if !ok {
		raw, ok = obj["score"]
	}
	if !ok {
		return v, ErrNoScore
	}
	score, err := toFloat(raw)
	if err != nil {
		return v, fmt.Errorf("relevance score: %w", err)
	}
	score, err = NormalizeScore(score)
	if err != nil {
		return v, err
	}

	v.Score = score
	v.Strategy = model.StrategySemantic
	v.Reasoning = stringify(obj["reasoning"])
	v.Summary = stringify(obj["summary"])
	v.MatchedArea = stringify(obj["matched_area"])
	if b, ok := obj["is_relevant"].(bool); ok {
		v.IsRelevant = b
	} else if s, ok := obj["is_relevant"].(string); ok {
		v.IsRelevant, _ = strconv.ParseBool(strings.TrimSpace(s))
	}
	return v, nil
}

// NormalizeScore maps a score onto the canonical 0-1 scale
func NormalizeScore(score float64) (float64, error) {
	switch {
	case score >= 0 && score <= 1:
		return score, nil
	case score > 1 && score <= 10:
		return score / 10, nil
	default:
		return 0, fmt.Errorf("relevance score %v outside [0,10]", score)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
