package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/usage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), "250102")
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC) }
	return s
}

func record(id, title string) model.AnalysisRecord {
	var answers model.Answers
	answers.Fill("answer for " + id)
	return model.AnalysisRecord{PaperID: id, Title: title, Answers: answers, ParseMode: model.ParseModeJSON}
}

func TestNew_DateValidation(t *testing.T) {
	_, err := New(t.TempDir(), "2025-01-02")
	assert.Error(t, err)

	_, err = New(t.TempDir(), "251399")
	assert.Error(t, err)

	s, err := New("digests", "")
	require.NoError(t, err)
	assert.Len(t, s.Date(), 6)
	assert.Equal(t, filepath.Join("digests", s.Date()), s.RunDir())
}

func TestUpsertSummary_DoesNotGrowOnRerun(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertSummary(record("2501.00001", "first")))
	require.NoError(t, s.UpsertSummary(record("2501.00002", "second")))
	require.NoError(t, s.UpsertSummary(record("2501.00001", "first, again")))

	records, err := s.LoadSummary()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2501.00001", records[0].PaperID)
	assert.Equal(t, "first, again", records[0].Title, "last write wins")
	assert.Equal(t, "2501.00002", records[1].PaperID)
}

func TestLoadSummary_Missing(t *testing.T) {
	records, err := newTestStore(t).LoadSummary()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSaveAnalysis(t *testing.T) {
	s := newTestStore(t)

	path, err := s.SaveAnalysis(record("cs/0112017", "old style"))
	require.NoError(t, err)
	assert.Equal(t, "cs_0112017_20250102_093000.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"q1_main_content": "answer for cs/0112017"`)

	require.NoError(t, s.UpsertSummary(record("cs/0112017", "old style")))
	files, err := s.AnalysisFiles()
	require.NoError(t, err)
	assert.Len(t, files, 1, "summary file is not an analysis file")
}

func TestSaveCandidates(t *testing.T) {
	s := newTestStore(t)
	papers := []model.Paper{
		{ID: "1", Title: "a", MatchedCategory: "Agents"},
		{ID: "2", Title: "b", Verdict: &model.RelevanceVerdict{MatchedArea: "RAG"}},
		{ID: "3", Title: "c", MatchedCategory: "Agents"},
	}

	paths, err := s.SaveCandidates(papers)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, "Agents_20250102_093000.json", filepath.Base(paths[0]))
	assert.Equal(t, "RAG_20250102_093000.json", filepath.Base(paths[1]))
	assert.Equal(t, "all_papers_20250102_093000.json", filepath.Base(paths[2]))

	loaded, err := s.LoadCandidates()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "RAG", loaded[1].Category())
}

func TestLoadCandidates_Missing(t *testing.T) {
	_, err := newTestStore(t).LoadCandidates()
	assert.Error(t, err)
}

func TestUsageAndReport(t *testing.T) {
	s := newTestStore(t)
	ledger := usage.NewLedger()
	ledger.AddUsage(100, 50, "gpt-4o-mini")

	require.NoError(t, s.SaveUsage(ledger.Snapshot()))
	snap, err := s.LoadUsage()
	require.NoError(t, err)
	assert.Equal(t, 150, snap.TotalTokens)

	path, err := s.SaveReport([]byte("# Digest\n"))
	require.NoError(t, err)
	assert.Equal(t, s.ReportPath(), path)
}

func TestWriteFile_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.json")
	require.NoError(t, writeFile(path, []byte("one")))
	require.NoError(t, writeFile(path, []byte("two")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestListRuns(t *testing.T) {
	base := t.TempDir()
	for _, d := range []string{"250101", "250103", "notes", "250102"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0o755))
	}

	runs, err := ListRuns(base)
	require.NoError(t, err)
	assert.Equal(t, []string{"250103", "250102", "250101"}, runs)

	runs, err = ListRuns(filepath.Join(base, "missing"))
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSafeID(t *testing.T) {
	assert.Equal(t, "2501.00001", SafeID("2501.00001"))
	assert.Equal(t, "cs_0112017", SafeID("cs/0112017"))
	assert.Equal(t, "Large_Language_Models", SafeID("Large Language Models"))
	assert.Equal(t, "unknown", SafeID(""))
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	defer h.Close()

	rec := record("2501.00001", "seen before")
	rec.AnalysisTime = time.Now()
	require.NoError(t, h.MarkAnalyzed(ctx, rec, "250101"))
	require.NoError(t, h.ForRun("250102").Record(ctx, rec))

	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	seen, err := h.Seen(ctx, "2501.00001")
	require.NoError(t, err)
	assert.True(t, seen)

	fresh, err := h.FilterUnseen(ctx, []model.Paper{
		{ID: "2501.00003", Title: "c"},
		{ID: "2501.00001", Title: "a"},
		{ID: "2501.00002", Title: "b"},
	})
	require.NoError(t, err)
	ids := make([]string, 0, len(fresh))
	for _, p := range fresh {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, "2501.00003,2501.00002", strings.Join(ids, ","))
}
