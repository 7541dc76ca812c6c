// Package classify filters candidate papers by topical relevance.
package classify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/paperdigest/internal/llm"
	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/worker"
)

// sleep pauses between batches; tests replace it
var sleep = worker.Sleep

// Decision is the fate of one paper
type Decision string

const (
	Accepted Decision = "accepted"
	Rejected Decision = "rejected"
)

// Outcome is the classifier result for one paper. SemanticErr is set when the
// semantic path failed, whether or not the lexical fallback then decided.
type Outcome struct {
	Paper       model.Paper
	Decision    Decision
	Strategy    model.Strategy
	FellBack    bool
	SemanticErr error
}

// Accepted reports whether the paper proceeds to analysis
func (o Outcome) Accepted() bool {
	return o.Decision == Accepted
}

// Classifier runs the configured strategy with batching and fallback
type Classifier struct {
	strategy   model.Strategy
	lexical    *Lexical
	semantic   *Semantic
	fallback   bool
	batchSize  int
	batchDelay time.Duration
	log        io.Writer
}

// New creates a classifier. The semantic strategy needs a backend.
func New(cfg model.ClassifierConfig, backend llm.Backend, temperature float64, log io.Writer) (*Classifier, error) {
	if log == nil {
		log = io.Discard
	}
	c := &Classifier{
		strategy:   model.Strategy(strings.ToLower(cfg.Strategy)),
		lexical:    NewLexical(cfg.Keywords),
		fallback:   cfg.Fallback,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay(),
		log:        log,
	}

	switch c.strategy {
	case model.StrategyLexical:
	case model.StrategySemantic, "":
		if backend == nil {
			return nil, fmt.Errorf("semantic classification needs an LLM backend")
		}
		c.strategy = model.StrategySemantic
		c.semantic = NewSemantic(backend, cfg.Areas, cfg.Threshold, temperature)
	default:
		return nil, fmt.Errorf("unknown classifier strategy %q (supported: semantic, lexical)", cfg.Strategy)
	}
	return c, nil
}

// Strategy returns the primary strategy
func (c *Classifier) Strategy() model.Strategy {
	return c.strategy
}

// Evaluate decides one paper
func (c *Classifier) Evaluate(ctx context.Context, p model.Paper) Outcome {
	if c.strategy == model.StrategyLexical {
		return c.evaluateLexical(p, false, nil)
	}

	v, err := c.semantic.Evaluate(ctx, p)
	if err != nil {
		if !c.fallback || ctx.Err() != nil {
			return Outcome{Paper: p, Decision: Rejected, Strategy: model.StrategySemantic, SemanticErr: err}
		}
		return c.evaluateLexical(p, true, err)
	}

	v.Strategy = model.StrategySemantic
	out := Outcome{Paper: p, Decision: Rejected, Strategy: model.StrategySemantic}
	if v.IsRelevant {
		out.Decision = Accepted
		out.Paper.Verdict = &v
	}
	return out
}

func (c *Classifier) evaluateLexical(p model.Paper, fellBack bool, semErr error) Outcome {
	out := Outcome{Paper: p, Decision: Rejected, Strategy: model.StrategyLexical, FellBack: fellBack, SemanticErr: semErr}

	keyword, category, ok := c.lexical.Match(p)
	if !ok {
		return out
	}

	out.Decision = Accepted
	out.Paper.MatchedKeyword = keyword
	out.Paper.MatchedCategory = category
	if fellBack {
		out.Paper.Verdict = &model.RelevanceVerdict{
			IsRelevant:  true,
			Score:       1,
			MatchedArea: category,
			Reasoning:   fmt.Sprintf("matched keyword %q after semantic failure", keyword),
			Strategy:    model.StrategyLexical,
		}
	}
	return out
}

// Classify evaluates papers in batches, pausing between batches, and returns
// the accepted papers in their original order along with every outcome.
// Only cancellation stops it early.
func (c *Classifier) Classify(ctx context.Context, papers []model.Paper) ([]model.Paper, []Outcome, error) {
	batches := worker.Batches(papers, c.batchSize)
	accepted := make([]model.Paper, 0, len(papers))
	outcomes := make([]Outcome, 0, len(papers))

	fmt.Fprintf(c.log, "Classifying %d papers (%s, %d batches)\n", len(papers), c.strategy, len(batches))

	for i, batch := range batches {
		if i > 0 && c.strategy == model.StrategySemantic {
			if err := sleep(ctx, c.batchDelay); err != nil {
				return accepted, outcomes, err
			}
		}

		for _, p := range batch {
			if err := ctx.Err(); err != nil {
				return accepted, outcomes, err
			}

			o := c.Evaluate(ctx, p)
			outcomes = append(outcomes, o)
			c.report(o)
			if o.Accepted() {
				accepted = append(accepted, o.Paper)
			}
		}
	}

	fmt.Fprintf(c.log, "✓ %d of %d papers relevant\n", len(accepted), len(papers))
	return accepted, outcomes, nil
}

func (c *Classifier) report(o Outcome) {
	if o.SemanticErr != nil {
		action := "dropped"
		if o.FellBack {
			action = "lexical fallback " + string(o.Decision)
		}
		fmt.Fprintf(c.log, "  ✗ %s: semantic check failed (%v), %s\n", o.Paper.ID, o.SemanticErr, action)
		return
	}
	if !o.Accepted() {
		return
	}
	if v := o.Paper.Verdict; v != nil {
		fmt.Fprintf(c.log, "  ✓ %s [%s %.2f] %s\n", o.Paper.ID, v.MatchedArea, v.Score, o.Paper.Title)
		return
	}
	fmt.Fprintf(c.log, "  ✓ %s [%s: %q] %s\n", o.Paper.ID, o.Paper.MatchedCategory, o.Paper.MatchedKeyword, o.Paper.Title)
}
