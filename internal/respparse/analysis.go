package respparse

import (
	"fmt"

	"github.com/ppiankov/paperdigest/internal/model"
)

// AnalysisResult is the outcome of parsing one analysis response.
// Answers is always fully populated; JSONErr explains why the heuristic parser ran.
type AnalysisResult struct {
	Answers model.Answers
	Mode    model.ParseMode
	JSONErr error
}

// ParseAnalysis recovers the six answers from a model response.
// It tries the JSON envelope first and degrades to ParseHeuristic; it never panics.
func ParseAnalysis(text string) (res AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			var a model.Answers
			a.Fill(model.SentinelUnparseable)
			res = AnalysisResult{
				Answers: a,
				Mode:    model.ParseModeHeuristic,
				JSONErr: fmt.Errorf("parser panic: %v", r),
			}
		}
	}()

	answers, err := parseAnalysisJSON(text)
	if err == nil {
		return AnalysisResult{Answers: answers, Mode: model.ParseModeJSON}
	}

	return AnalysisResult{
		Answers: ParseHeuristic(text),
		Mode:    model.ParseModeHeuristic,
		JSONErr: err,
	}
}

func parseAnalysisJSON(text string) (model.Answers, error) {
	var answers model.Answers

	obj, err := decodeObject(text)
	if err != nil {
		return answers, err
	}

	// Some models nest the answers one level down
	if inner, ok := obj["answers"].(map[string]any); ok {
		obj = inner
	}

	found := 0
	for key, val := range obj {
		slot := slotForKey(key)
		if slot < 0 {
			continue
		}
		found++
		if s := stringify(val); s != "" {
			answers[slot] = s
		}
	}
	if found == 0 {
		return answers, ErrNoAnswers
	}

	answers.Fill(model.SentinelNoAnswer)
	return answers, nil
}
