// Package usage accumulates token and cost telemetry for a run.
package usage

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Price is the cost in USD per million tokens
type Price struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// DefaultPrice applies to models missing from the price table
var DefaultPrice = Price{Input: 1.0, Output: 2.0}

// Prices is the static per-model price table
var Prices = map[string]Price{
	"gpt-4o-mini":          {Input: 0.15, Output: 0.60},
	"gpt-4o":               {Input: 2.50, Output: 10.00},
	"gpt-4-turbo":          {Input: 10.00, Output: 30.00},
	"deepseek-chat":        {Input: 0.27, Output: 1.10},
	"deepseek-reasoner":    {Input: 0.55, Output: 2.19},
	"kimi-k2-0711-preview": {Input: 0.60, Output: 2.50},
	"moonshot-v1-8k":       {Input: 1.70, Output: 1.70},
	"claude-3-5-sonnet":    {Input: 3.00, Output: 15.00},
	"claude-3-5-haiku":     {Input: 0.80, Output: 4.00},
	"gemini-1.5-flash":     {Input: 0.075, Output: 0.30},
	"gemini-1.5-pro":       {Input: 1.25, Output: 5.00},
}

// PriceFor looks up a model by exact name, then by the longest table key it starts with
func PriceFor(model string) Price {
	m := strings.ToLower(model)
	if p, ok := Prices[m]; ok {
		return p
	}
	best := ""
	for key := range Prices {
		if strings.HasPrefix(m, key) && len(key) > len(best) {
			best = key
		}
	}
	if best != "" {
		return Prices[best]
	}
	return DefaultPrice
}

// Cost returns the estimated USD cost of one call
func Cost(inputTokens, outputTokens int, model string) float64 {
	p := PriceFor(model)
	return float64(inputTokens)/1e6*p.Input + float64(outputTokens)/1e6*p.Output
}

// ModelUsage is the per-model breakdown
type ModelUsage struct {
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Calls        int     `json:"api_calls"`
	Cost         float64 `json:"estimated_cost_usd"`
}

// Snapshot is a point-in-time copy of the ledger
type Snapshot struct {
	TotalInputTokens  int          `json:"total_input_tokens"`
	TotalOutputTokens int          `json:"total_output_tokens"`
	TotalTokens       int          `json:"total_tokens"`
	APICalls          int          `json:"api_calls"`
	EstimatedCost     float64      `json:"estimated_cost_usd"`
	StartTime         time.Time    `json:"start_time"`
	ElapsedSeconds    float64      `json:"elapsed_seconds"`
	Models            []ModelUsage `json:"models,omitempty"`
}

// Ledger accumulates usage across every model call in a run.
// The mutex keeps it correct if callers ever run calls in parallel.
type Ledger struct {
	mu       sync.Mutex
	input    int
	output   int
	calls    int
	cost     float64
	start    time.Time
	perModel map[string]*ModelUsage
	nowFunc  func() time.Time
}

// NewLedger creates a ledger whose clock starts now
func NewLedger() *Ledger {
	l := &Ledger{nowFunc: time.Now}
	l.Reset()
	return l
}

// AddUsage records one call
func (l *Ledger) AddUsage(inputTokens, outputTokens int, model string) {
	cost := Cost(inputTokens, outputTokens, model)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.input += inputTokens
	l.output += outputTokens
	l.calls++
	l.cost += cost

	mu, ok := l.perModel[model]
	if !ok {
		mu = &ModelUsage{Model: model}
		l.perModel[model] = mu
	}
	mu.InputTokens += inputTokens
	mu.OutputTokens += outputTokens
	mu.Calls++
	mu.Cost += cost
}

// Merge adds the counters of an earlier snapshot, such as the classification
// calls of a separate fetch, keeping this ledger's clock
func (l *Ledger) Merge(s Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.input += s.TotalInputTokens
	l.output += s.TotalOutputTokens
	l.calls += s.APICalls
	l.cost += s.EstimatedCost

	for _, m := range s.Models {
		mu, ok := l.perModel[m.Model]
		if !ok {
			mu = &ModelUsage{Model: m.Model}
			l.perModel[m.Model] = mu
		}
		mu.InputTokens += m.InputTokens
		mu.OutputTokens += m.OutputTokens
		mu.Calls += m.Calls
		mu.Cost += m.Cost
	}
}

// Snapshot returns the current totals and elapsed time since start
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Snapshot{
		TotalInputTokens:  l.input,
		TotalOutputTokens: l.output,
		TotalTokens:       l.input + l.output,
		APICalls:          l.calls,
		EstimatedCost:     l.cost,
		StartTime:         l.start,
		ElapsedSeconds:    l.nowFunc().Sub(l.start).Seconds(),
	}
	for _, mu := range l.perModel {
		s.Models = append(s.Models, *mu)
	}
	sort.Slice(s.Models, func(i, j int) bool { return s.Models[i].Model < s.Models[j].Model })
	return s
}

// Reset zeroes every counter and restarts the clock
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.input, l.output, l.calls, l.cost = 0, 0, 0, 0
	l.perModel = make(map[string]*ModelUsage)
	l.start = l.nowFunc()
}
