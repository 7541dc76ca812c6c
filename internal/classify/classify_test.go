package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/paperdigest/internal/llm"
	"github.com/ppiankov/paperdigest/internal/model"
)

// scriptedBackend answers by looking up a fragment of the user message
type scriptedBackend struct {
	caps    llm.Capabilities
	replies map[string]string
	err     error
	reqs    []llm.Request
}

func (b *scriptedBackend) Name() string                   { return "scripted" }
func (b *scriptedBackend) Model() string                  { return "scripted-1" }
func (b *scriptedBackend) Capabilities() llm.Capabilities { return b.caps }

func (b *scriptedBackend) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	b.reqs = append(b.reqs, req)
	if b.err != nil {
		return nil, b.err
	}
	user := req.Messages[len(req.Messages)-1].Content
	for fragment, reply := range b.replies {
		if strings.Contains(user, fragment) {
			return &llm.Response{Text: reply}, nil
		}
	}
	return &llm.Response{Text: `{"relevance_score": 0}`}, nil
}

func noSleep(t *testing.T) *int {
	t.Helper()
	var n int
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		n++
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = orig })
	return &n
}

func semanticConfig() model.ClassifierConfig {
	return model.ClassifierConfig{
		Strategy:  "semantic",
		Threshold: 0.6,
		BatchSize: 2,
		Fallback:  true,
		Areas:     model.DefaultAreas(),
		Keywords:  map[string][]string{"agents": {"agent"}},
	}
}

func TestLexical_LongestKeywordWins(t *testing.T) {
	l := NewLexical(map[string][]string{
		"general": {"model"},
		"llm":     {"Language Model"},
	})
	kw, cat, ok := l.Match(model.Paper{Title: "A Small Language Model for Code"})
	require.True(t, ok)
	assert.Equal(t, "language model", kw)
	assert.Equal(t, "llm", cat)
}

func TestLexical_TieBreaksLexically(t *testing.T) {
	l := NewLexical(map[string][]string{
		"x": {"beta"},
		"y": {"alfa"},
	})
	kw, cat, ok := l.Match(model.Paper{Title: "beta and alfa", Abstract: ""})
	require.True(t, ok)
	assert.Equal(t, "alfa", kw)
	assert.Equal(t, "y", cat)
}

func TestLexical_MatchesAbstractAndEmptyTable(t *testing.T) {
	l := NewLexical(model.DefaultKeywords())
	kw, cat, ok := l.Match(model.Paper{Title: "Untitled", Abstract: "We apply LoRA adapters."})
	require.True(t, ok)
	assert.Equal(t, "adapter", kw)
	assert.Equal(t, "fine_tuning", cat)

	_, _, ok = NewLexical(nil).Match(model.Paper{Title: "anything"})
	assert.False(t, ok)
}

func TestSemantic_Threshold(t *testing.T) {
	backend := &scriptedBackend{replies: map[string]string{
		"Paper A": `{"relevance_score": 0.8, "matched_area": "agents", "is_relevant": true}`,
		"Paper B": `{"relevance_score": 0.4, "matched_area": "agents", "is_relevant": true}`,
	}}
	noSleep(t)

	c, err := New(semanticConfig(), backend, 0.1, nil)
	require.NoError(t, err)

	accepted, outcomes, err := c.Classify(context.Background(), []model.Paper{
		{ID: "a", Title: "Paper A"},
		{ID: "b", Title: "Paper B"},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.Len(t, accepted, 1)

	assert.Equal(t, "a", accepted[0].ID)
	require.NotNil(t, accepted[0].Verdict)
	assert.InDelta(t, 0.8, accepted[0].Verdict.Score, 1e-9)
	assert.Equal(t, model.StrategySemantic, accepted[0].Verdict.Strategy)
	assert.Equal(t, "agents", accepted[0].Category())
	assert.False(t, outcomes[1].Accepted(), "model's own is_relevant does not override the threshold")
}

func TestSemantic_TenPointScale(t *testing.T) {
	backend := &scriptedBackend{replies: map[string]string{
		"Paper A": "Sure! ```json\n{\"relevance_score\": 7, \"matched_area\": \"agents\"}\n```",
	}}
	v, err := NewSemantic(backend, nil, 0.6, 0.1).Evaluate(context.Background(), model.Paper{Title: "Paper A"})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, v.Score, 1e-9)
	assert.True(t, v.IsRelevant)
}

func TestSemantic_TemperatureOnlyWhenSupported(t *testing.T) {
	withTemp := &scriptedBackend{caps: llm.Capabilities{Temperature: true}}
	_, _ = NewSemantic(withTemp, nil, 0.6, 0.2).Evaluate(context.Background(), model.Paper{Title: "t"})
	require.Len(t, withTemp.reqs, 1)
	require.NotNil(t, withTemp.reqs[0].Temperature)
	assert.Equal(t, 0.2, *withTemp.reqs[0].Temperature)

	noTemp := &scriptedBackend{}
	_, _ = NewSemantic(noTemp, nil, 0.6, 0.2).Evaluate(context.Background(), model.Paper{Title: "t"})
	require.Len(t, noTemp.reqs, 1)
	assert.Nil(t, noTemp.reqs[0].Temperature)
}

func TestClassify_FallbackOnBackendError(t *testing.T) {
	noSleep(t)
	backend := &scriptedBackend{err: errors.New("timeout")}

	c, err := New(semanticConfig(), backend, 0.1, nil)
	require.NoError(t, err)

	accepted, outcomes, err := c.Classify(context.Background(), []model.Paper{
		{ID: "1", Title: "An agent that plans"},
		{ID: "2", Title: "Graph databases"},
	})
	require.NoError(t, err)
	require.Len(t, accepted, 1)

	p := accepted[0]
	assert.Equal(t, "1", p.ID)
	assert.Equal(t, "agent", p.MatchedKeyword)
	assert.Equal(t, "agents", p.MatchedCategory)
	require.NotNil(t, p.Verdict)
	assert.Equal(t, model.StrategyLexical, p.Verdict.Strategy)

	assert.True(t, outcomes[0].FellBack)
	assert.Error(t, outcomes[0].SemanticErr)
	assert.False(t, outcomes[1].Accepted(), "lexical miss after fallback is dropped")
}

func TestClassify_FallbackOnUnparseableResponse(t *testing.T) {
	noSleep(t)
	backend := &scriptedBackend{replies: map[string]string{"agent": "I think this is relevant."}}

	c, err := New(semanticConfig(), backend, 0.1, nil)
	require.NoError(t, err)

	o := c.Evaluate(context.Background(), model.Paper{ID: "1", Title: "An agent"})
	assert.True(t, o.Accepted())
	assert.True(t, o.FellBack)
}

func TestClassify_FallbackOnBlankResponse(t *testing.T) {
	noSleep(t)
	backend := &scriptedBackend{replies: map[string]string{"agent": "  \n "}}

	c, err := New(semanticConfig(), backend, 0.1, nil)
	require.NoError(t, err)

	o := c.Evaluate(context.Background(), model.Paper{ID: "1", Title: "An agent"})
	assert.True(t, o.Accepted())
	assert.True(t, o.FellBack)
	assert.ErrorIs(t, o.SemanticErr, llm.ErrEmptyResponse)
}

func TestClassify_NoFallbackDrops(t *testing.T) {
	noSleep(t)
	cfg := semanticConfig()
	cfg.Fallback = false

	c, err := New(cfg, &scriptedBackend{err: errors.New("down")}, 0.1, nil)
	require.NoError(t, err)

	accepted, outcomes, err := c.Classify(context.Background(), []model.Paper{{ID: "1", Title: "An agent"}})
	require.NoError(t, err)
	assert.Empty(t, accepted)
	assert.False(t, outcomes[0].FellBack)
	assert.Error(t, outcomes[0].SemanticErr)
}

func TestClassify_BatchingPreservesOrder(t *testing.T) {
	sleeps := noSleep(t)
	backend := &scriptedBackend{replies: map[string]string{"keep": `{"relevance_score": 0.9}`}}

	var log strings.Builder
	c, err := New(semanticConfig(), backend, 0.1, &log)
	require.NoError(t, err)

	papers := []model.Paper{
		{ID: "1", Title: "keep one"},
		{ID: "2", Title: "drop"},
		{ID: "3", Title: "keep three"},
		{ID: "4", Title: "keep four"},
		{ID: "5", Title: "drop"},
	}
	accepted, outcomes, err := c.Classify(context.Background(), papers)
	require.NoError(t, err)
	assert.Len(t, outcomes, 5)
	assert.Len(t, backend.reqs, 5, "one call per paper")
	assert.Equal(t, 2, *sleeps, "three batches, two pauses")

	ids := make([]string, 0, len(accepted))
	for _, p := range accepted {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1", "3", "4"}, ids)
	assert.Contains(t, log.String(), "3 of 5 papers relevant")
}

func TestClassify_LexicalStrategy(t *testing.T) {
	sleeps := noSleep(t)
	cfg := semanticConfig()
	cfg.Strategy = "lexical"

	c, err := New(cfg, nil, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StrategyLexical, c.Strategy())

	accepted, _, err := c.Classify(context.Background(), []model.Paper{
		{ID: "1", Title: "Multi-agent debate"},
		{ID: "2", Title: "Compilers"},
		{ID: "3", Title: "Agent memory"},
	})
	require.NoError(t, err)
	require.Len(t, accepted, 2)
	assert.Nil(t, accepted[0].Verdict)
	assert.Equal(t, "agents", accepted[0].MatchedCategory)
	assert.Zero(t, *sleeps, "lexical runs need no pacing")
}

func TestClassify_Cancelled(t *testing.T) {
	noSleep(t)
	c, err := New(semanticConfig(), &scriptedBackend{}, 0.1, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, outcomes, err := c.Classify(ctx, []model.Paper{{ID: "1", Title: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcomes)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(semanticConfig(), nil, 0, nil)
	assert.Error(t, err)

	cfg := semanticConfig()
	cfg.Strategy = "vibes"
	_, err = New(cfg, &scriptedBackend{}, 0, nil)
	assert.Error(t, err)
}
