package model

import (
	"strings"
	"time"
)

// Paper is a candidate listing entry produced by a source
type Paper struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Abstract       string    `json:"abstract"`
	Authors        string    `json:"authors"`
	Subjects       string    `json:"subjects"`
	Comments       string    `json:"comments,omitempty"`
	URL            string    `json:"url"`
	PDFURL         string    `json:"pdf_url,omitempty"`
	SourceCategory string    `json:"source_category"`
	CrawlTime      time.Time `json:"crawl_time"`

	// Classifier annotations
	MatchedKeyword  string            `json:"matched_keyword,omitempty"`
	MatchedCategory string            `json:"matched_category,omitempty"`
	Verdict         *RelevanceVerdict `json:"verdict,omitempty"`
}

// Valid reports whether the paper carries the fields every later stage relies on
func (p Paper) Valid() bool {
	return strings.TrimSpace(p.ID) != "" && strings.TrimSpace(p.Title) != ""
}

// Category returns the research area the paper was accepted under.
// Lexical matches take precedence over the semantic area name.
func (p Paper) Category() string {
	if p.MatchedCategory != "" {
		return p.MatchedCategory
	}
	if p.Verdict != nil && p.Verdict.MatchedArea != "" {
		return p.Verdict.MatchedArea
	}
	return "uncategorized"
}

// DedupePapers drops invalid records and repeated ids, keeping first occurrence order
func DedupePapers(papers []Paper) []Paper {
	seen := make(map[string]bool, len(papers))
	out := make([]Paper, 0, len(papers))
	for _, p := range papers {
		if !p.Valid() || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// Strategy names the classifier path that produced a verdict
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyLexical  Strategy = "lexical"
)

// RelevanceVerdict is the classifier decision attached to an accepted paper.
// Score is always on the 0-1 scale.
type RelevanceVerdict struct {
	IsRelevant  bool     `json:"is_relevant"`
	Score       float64  `json:"score"`
	MatchedArea string   `json:"matched_area"`
	Reasoning   string   `json:"reasoning,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Strategy    Strategy `json:"strategy"`
}
