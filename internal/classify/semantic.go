package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/paperdigest/internal/llm"
	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/respparse"
)

const semanticMaxTokens = 600

const semanticSystem = `You are a research assistant screening new computer science papers for a reader with specific interests.
Judge how relevant each paper is to the listed research areas.
Respond with a single JSON object and nothing else:
{"relevance_score": <number between 0 and 1>, "is_relevant": <true|false>, "matched_area": "<area name or empty>", "reasoning": "<one or two sentences>", "summary": "<one sentence summary of the paper>"}`

// Semantic asks a model to score one paper at a time
type Semantic struct {
	backend     llm.Backend
	areas       []model.ResearchArea
	threshold   float64
	temperature float64
}

// NewSemantic creates a semantic evaluator. A paper is relevant iff its score
// reaches threshold.
func NewSemantic(backend llm.Backend, areas []model.ResearchArea, threshold, temperature float64) *Semantic {
	return &Semantic{backend: backend, areas: areas, threshold: threshold, temperature: temperature}
}

// Evaluate scores p. Any backend or parse failure is returned as an error.
func (s *Semantic) Evaluate(ctx context.Context, p model.Paper) (model.RelevanceVerdict, error) {
	req := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: semanticSystem},
			{Role: llm.RoleUser, Content: BuildPrompt(p, s.areas)},
		},
		MaxTokens: semanticMaxTokens,
	}
	if s.backend.Capabilities().Temperature {
		req.Temperature = llm.Temperature(s.temperature)
	}

	resp, err := s.backend.Complete(ctx, req)
	if err != nil {
		return model.RelevanceVerdict{}, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return model.RelevanceVerdict{}, llm.ErrEmptyResponse
	}

	v, err := respparse.ParseVerdict(resp.Text)
	if err != nil {
		return model.RelevanceVerdict{}, fmt.Errorf("parse verdict: %w", err)
	}
	v.IsRelevant = v.Score >= s.threshold
	return v, nil
}

// BuildPrompt renders the user message for one paper
func BuildPrompt(p model.Paper, areas []model.ResearchArea) string {
	var sb strings.Builder
	sb.WriteString("Research areas of interest:\n")
	for i, a := range areas {
		fmt.Fprintf(&sb, "%d. %s", i+1, a.Name)
		if a.Description != "" {
			fmt.Fprintf(&sb, ": %s", a.Description)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nTitle: %s\n", p.Title)
	if p.Subjects != "" {
		fmt.Fprintf(&sb, "Subjects: %s\n", p.Subjects)
	}
	fmt.Fprintf(&sb, "Abstract: %s\n", p.Abstract)
	sb.WriteString("\nUse the exact area name for matched_area. Score 0 means unrelated, 1 means squarely within an area.")
	return sb.String()
}
