package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Sentinel answers keep every question slot populated
const (
	SentinelNoAnswer    = "no answer available"
	SentinelUnparseable = "unparseable response"
)

// NumQuestions is the size of the fixed question battery
const NumQuestions = 6

// Question is one of the canonical analytical questions
type Question struct {
	Key     string
	English string
	Chinese string
}

// Questions lists the canonical questions in slot order
var Questions = [NumQuestions]Question{
	{Key: "q1_main_content", English: "What is the main content of the paper?", Chinese: "总结一下论文的主要内容"},
	{Key: "q2_problem", English: "What problem does the paper try to solve?", Chinese: "这篇论文试图解决什么问题？"},
	{Key: "q3_related_work", English: "What related work exists?", Chinese: "有哪些相关研究？"},
	{Key: "q4_solution", English: "How does the paper solve the problem?", Chinese: "论文如何解决这个问题？"},
	{Key: "q5_experiments", English: "What experiments were conducted?", Chinese: "论文做了哪些实验？"},
	{Key: "q6_future_work", English: "What could be explored further?", Chinese: "有什么可以进一步探索的点？"},
}

// QuestionIndex returns the slot of a canonical key, or -1
func QuestionIndex(key string) int {
	for i, q := range Questions {
		if q.Key == key {
			return i
		}
	}
	return -1
}

// Answers holds one answer per canonical question, in slot order.
// It encodes as a JSON object keyed by the canonical question keys.
type Answers [NumQuestions]string

// Fill replaces blank slots with the given sentinel
func (a *Answers) Fill(sentinel string) {
	for i := range a {
		if strings.TrimSpace(a[i]) == "" {
			a[i] = sentinel
		}
	}
}

// Complete reports whether every slot holds a non-empty string
func (a Answers) Complete() bool {
	for _, v := range a {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Get returns the answer stored under a canonical key
func (a Answers) Get(key string) string {
	if i := QuestionIndex(key); i >= 0 {
		return a[i]
	}
	return ""
}

// MarshalJSON emits the answers as an object with canonical keys in slot order
func (a Answers) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, q := range Questions {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(q.Key)
		v, err := json.Marshal(a[i])
		if err != nil {
			return nil, fmt.Errorf("marshal answer %s: %w", q.Key, err)
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON reads canonical keys; unknown keys are ignored and missing ones stay empty
func (a *Answers) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = Answers{}
	for i, q := range Questions {
		a[i] = m[q.Key]
	}
	return nil
}

// ParseMode records how the answers were recovered from the model output
type ParseMode string

const (
	ParseModeJSON      ParseMode = "json"
	ParseModeHeuristic ParseMode = "heuristic"
)

// AnalysisRecord is the structured answer set for one paper
type AnalysisRecord struct {
	PaperID          string    `json:"paper_id"`
	Title            string    `json:"title"`
	Authors          string    `json:"authors,omitempty"`
	URL              string    `json:"url"`
	MatchedCategory  string    `json:"matched_category"`
	Answers          Answers   `json:"answers"`
	AnalysisTime     time.Time `json:"analysis_time"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	ReasoningProcess string    `json:"reasoning_process,omitempty"`
	ParseMode        ParseMode `json:"parse_mode"`
	FullTextUsed     bool      `json:"full_text_used"`
}
