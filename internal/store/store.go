// Package store lays out and writes the per-day run directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/usage"
)

const (
	candidatesDir = "candidates"
	analysisDir   = "paper_analysis"
	reportsDir    = "reports"
	summaryFile   = "daily_summary.json"
	usageFile     = "token_usage.json"
	reportFile    = "daily_report.md"
	allPapers     = "all_papers"

	// DateLayout names run directories (YYMMDD)
	DateLayout = "060102"
	// StampLayout suffixes artifact files
	StampLayout = "20060102_150405"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store owns one run directory: <base>/<YYMMDD>/
type Store struct {
	runDir string
	date   string
	mu     sync.Mutex
	now    func() time.Time
}

// New returns a store for the given run date. An empty date means today.
func New(baseDir, date string) (*Store, error) {
	if date == "" {
		date = time.Now().Format(DateLayout)
	}
	if err := ValidateDate(date); err != nil {
		return nil, err
	}
	return &Store{
		runDir: filepath.Join(baseDir, date),
		date:   date,
		now:    time.Now,
	}, nil
}

// ValidateDate checks a YYMMDD run date
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil || len(date) != len(DateLayout) {
		return fmt.Errorf("invalid run date %q: want YYMMDD", date)
	}
	return nil
}

// Date returns the run date (YYMMDD)
func (s *Store) Date() string { return s.date }

// RunDir returns the run directory
func (s *Store) RunDir() string { return s.runDir }

// SummaryPath returns the daily summary file
func (s *Store) SummaryPath() string {
	return filepath.Join(s.runDir, analysisDir, summaryFile)
}

// UsagePath returns the token usage file
func (s *Store) UsagePath() string {
	return filepath.Join(s.runDir, usageFile)
}

// ReportPath returns the markdown report file
func (s *Store) ReportPath() string {
	return filepath.Join(s.runDir, reportsDir, reportFile)
}

// SafeID makes a paper id usable as a file name (old-style ids contain "/")
func SafeID(id string) string {
	safe := unsafeChars.ReplaceAllString(id, "_")
	if safe == "" {
		return "unknown"
	}
	return safe
}

// SaveCandidates writes one file per matched category plus an all_papers file
// and returns the paths written
func (s *Store) SaveCandidates(papers []model.Paper) ([]string, error) {
	dir := filepath.Join(s.runDir, candidatesDir)
	stamp := s.now().Format(StampLayout)

	groups := make(map[string][]model.Paper)
	for _, p := range papers {
		groups[p.Category()] = append(groups[p.Category()], p)
	}
	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var paths []string
	for _, c := range categories {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", SafeID(c), stamp))
		if err := writeJSON(path, groups[c]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", allPapers, stamp))
	if papers == nil {
		papers = []model.Paper{}
	}
	if err := writeJSON(path, papers); err != nil {
		return paths, err
	}
	return append(paths, path), nil
}

// LoadCandidates reads the newest all_papers file of the run
func (s *Store) LoadCandidates() ([]model.Paper, error) {
	matches, err := filepath.Glob(filepath.Join(s.runDir, candidatesDir, allPapers+"_*.json"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no candidate file in %s", filepath.Join(s.runDir, candidatesDir))
	}
	sort.Strings(matches)

	var papers []model.Paper
	if err := readJSON(matches[len(matches)-1], &papers); err != nil {
		return nil, err
	}
	return papers, nil
}

// SaveAnalysis writes a single analysis record and returns its path
func (s *Store) SaveAnalysis(rec model.AnalysisRecord) (string, error) {
	name := fmt.Sprintf("%s_%s.json", SafeID(rec.PaperID), s.now().Format(StampLayout))
	path := filepath.Join(s.runDir, analysisDir, name)
	if err := writeJSON(path, rec); err != nil {
		return "", err
	}
	return path, nil
}

// UpsertSummary replaces or appends rec in the daily summary and rewrites the
// whole file. Records are keyed by paper id; the last write wins.
func (s *Store) UpsertSummary(rec model.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadSummary()
	if err != nil {
		return err
	}

	replaced := false
	for i := range records {
		if records[i].PaperID == rec.PaperID {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}

	return writeJSON(s.SummaryPath(), records)
}

// LoadSummary reads the daily summary. A missing file yields no records.
func (s *Store) LoadSummary() ([]model.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSummary()
}

func (s *Store) loadSummary() ([]model.AnalysisRecord, error) {
	var records []model.AnalysisRecord
	err := readJSON(s.SummaryPath(), &records)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return records, err
}

// AnalysisFiles lists the per-paper analysis files of the run
func (s *Store) AnalysisFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.runDir, analysisDir, "*.json"))
	if err != nil {
		return nil, err
	}
	files := matches[:0]
	for _, m := range matches {
		if filepath.Base(m) != summaryFile {
			files = append(files, m)
		}
	}
	return files, nil
}

// SaveUsage writes the ledger snapshot
func (s *Store) SaveUsage(snap usage.Snapshot) error {
	return writeJSON(s.UsagePath(), snap)
}

// LoadUsage reads the ledger snapshot
func (s *Store) LoadUsage() (usage.Snapshot, error) {
	var snap usage.Snapshot
	err := readJSON(s.UsagePath(), &snap)
	return snap, err
}

// SaveReport writes the markdown report and returns its path
func (s *Store) SaveReport(content []byte) (string, error) {
	path := s.ReportPath()
	if err := writeFile(path, content); err != nil {
		return "", err
	}
	return path, nil
}

// ListRuns returns the run dates found under baseDir, newest first
func ListRuns(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() && ValidateDate(e.Name()) == nil {
			dates = append(dates, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, append(data, '\n'))
}

// writeFile replaces path atomically: temp file in the same directory, then rename
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
