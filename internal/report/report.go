// Package report renders the daily digest from the analysis summary.
package report

import (
	"bytes"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/ppiankov/paperdigest/internal/model"
	"github.com/ppiankov/paperdigest/internal/usage"
)

const digestTemplate = `# Paper digest {{.Date}}

{{len .Records}} papers analyzed across {{len .Groups}} research areas.
{{- if .Usage}} {{.Usage.APICalls}} model calls, {{.Usage.TotalTokens}} tokens, estimated cost ${{printf "%.4f" .Usage.EstimatedCost}}.{{end}}

{{range .Groups}}## {{.Name}} ({{len .Records}})

{{range $r := .Records}}### [{{$r.Title}}]({{$r.URL}})

{{if $r.Authors}}*{{$r.Authors}}*

{{end}}{{range $i, $q := questions}}**{{$q}}**
{{index $r.Answers $i}}

{{end}}{{end}}{{end}}---
Generated {{.Generated}}
`

// Group is one research area section
type Group struct {
	Name    string
	Records []model.AnalysisRecord
}

// Digest is the data behind the markdown report
type Digest struct {
	Date      string
	Records   []model.AnalysisRecord
	Groups    []Group
	Usage     *usage.Snapshot
	Generated string
}

// Options select the question language
type Options struct {
	Language string
}

// Build groups records by matched category. Groups are sorted by name and
// records keep their summary order.
func Build(date string, records []model.AnalysisRecord, snap *usage.Snapshot, now time.Time) Digest {
	byCategory := make(map[string][]model.AnalysisRecord)
	for _, r := range records {
		name := r.MatchedCategory
		if name == "" {
			name = "uncategorized"
		}
		byCategory[name] = append(byCategory[name], r)
	}

	names := make([]string, 0, len(byCategory))
	for n := range byCategory {
		names = append(names, n)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, n := range names {
		groups = append(groups, Group{Name: n, Records: byCategory[n]})
	}

	return Digest{
		Date:      date,
		Records:   records,
		Groups:    groups,
		Usage:     snap,
		Generated: now.Format(time.RFC3339),
	}
}

// Markdown renders the digest. Question headings follow opts.Language.
func Markdown(d Digest, opts Options) ([]byte, error) {
	headings := make([]string, 0, model.NumQuestions)
	for _, q := range model.Questions {
		if opts.Language == "zh" {
			headings = append(headings, q.Chinese)
		} else {
			headings = append(headings, q.English)
		}
	}

	tmpl, err := template.New("digest").Funcs(template.FuncMap{
		"questions": func() []string { return headings },
	}).Parse(digestTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return nil, err
	}
	return []byte(strings.TrimLeft(buf.String(), "\n")), nil
}
