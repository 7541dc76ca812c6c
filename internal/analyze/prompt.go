package analyze

import (
	"bytes"
	"text/template"

	"github.com/ppiankov/paperdigest/internal/llm"
	"github.com/ppiankov/paperdigest/internal/model"
)

var systemTemplate = template.Must(template.New("system").Parse(
	`You are an expert reviewer of computer science research. Read the paper below and answer six questions about it.
Respond with a single JSON object and nothing else. Use exactly these keys, one string value each:
{{range .Questions}}- "{{.Key}}": {{.Text}}
{{end}}Write every answer in {{.Language}}, in a few sentences of plain prose.
If the available text does not cover a question, say so briefly instead of guessing.`))

var userTemplate = template.Must(template.New("user").Parse(
	`Title: {{.Paper.Title}}
{{if .Paper.Authors}}Authors: {{.Paper.Authors}}
{{end}}{{if .Paper.Subjects}}Subjects: {{.Paper.Subjects}}
{{end}}
Abstract:
{{.Paper.Abstract}}
{{if .FullText}}
Full text (excerpt, may be truncated):
{{.FullText}}
{{else}}
Only the abstract is available; answer from it.
{{end}}`))

type promptQuestion struct {
	Key  string
	Text string
}

// BuildMessages renders the consolidated six-question request for one paper
func BuildMessages(p model.Paper, fullText, language string) ([]llm.Message, error) {
	questions := make([]promptQuestion, 0, model.NumQuestions)
	for _, q := range model.Questions {
		text := q.English
		if language == "zh" {
			text = q.Chinese
		}
		questions = append(questions, promptQuestion{Key: q.Key, Text: text})
	}

	langName := "English"
	if language == "zh" {
		langName = "Simplified Chinese"
	}

	var system bytes.Buffer
	if err := systemTemplate.Execute(&system, map[string]any{
		"Questions": questions,
		"Language":  langName,
	}); err != nil {
		return nil, err
	}

	var user bytes.Buffer
	if err := userTemplate.Execute(&user, map[string]any{
		"Paper":    p,
		"FullText": fullText,
	}); err != nil {
		return nil, err
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system.String()},
		{Role: llm.RoleUser, Content: user.String()},
	}, nil
}
