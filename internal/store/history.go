package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ppiankov/paperdigest/internal/model"
)

// History remembers which papers were analyzed across runs
type History struct {
	db *sql.DB
}

// OpenHistory opens or creates the history database at path
func OpenHistory(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	h := &History{db: db}
	if err := h.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return h, nil
}

// Close releases the database connection
func (h *History) Close() error {
	return h.db.Close()
}

func (h *History) createSchema() error {
	_, err := h.db.Exec(`CREATE TABLE IF NOT EXISTS analyzed (
		paper_id TEXT PRIMARY KEY,
		title TEXT,
		category TEXT,
		run_date TEXT NOT NULL,
		analyzed_at TEXT NOT NULL
	)`)
	return err
}

// MarkAnalyzed records rec under runDate, replacing an earlier entry
func (h *History) MarkAnalyzed(ctx context.Context, rec model.AnalysisRecord, runDate string) error {
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO analyzed (paper_id, title, category, run_date, analyzed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
		   title = excluded.title,
		   category = excluded.category,
		   run_date = excluded.run_date,
		   analyzed_at = excluded.analyzed_at`,
		rec.PaperID, rec.Title, rec.MatchedCategory, runDate, rec.AnalysisTime.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording %s: %w", rec.PaperID, err)
	}
	return nil
}

// Seen reports whether id was analyzed in any run
func (h *History) Seen(ctx context.Context, id string) (bool, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyzed WHERE paper_id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("querying %s: %w", id, err)
	}
	return n > 0, nil
}

// FilterUnseen drops papers analyzed in earlier runs, keeping order
func (h *History) FilterUnseen(ctx context.Context, papers []model.Paper) ([]model.Paper, error) {
	out := make([]model.Paper, 0, len(papers))
	for _, p := range papers {
		seen, err := h.Seen(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if !seen {
			out = append(out, p)
		}
	}
	return out, nil
}

// Count returns how many papers have been analyzed overall
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyzed`).Scan(&n)
	return n, err
}

// RunHistory records analyses under a fixed run date
type RunHistory struct {
	history *History
	date    string
}

// ForRun binds the history to runDate
func (h *History) ForRun(runDate string) *RunHistory {
	return &RunHistory{history: h, date: runDate}
}

// Record marks rec as analyzed in this run
func (r *RunHistory) Record(ctx context.Context, rec model.AnalysisRecord) error {
	return r.history.MarkAnalyzed(ctx, rec, r.date)
}
