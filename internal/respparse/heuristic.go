package respparse

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/paperdigest/internal/model"
)

// cue maps header keywords onto a question slot
type cue struct {
	slot     int
	keywords []string
}

// cues are checked in order; more specific topics come before generic ones
// so that "related problems" lands in related work, not in the problem slot.
var cues = []cue{
	{slot: 2, keywords: []string{"related work", "related research", "related studies", "prior work", "相关研究", "相关工作"}},
	{slot: 4, keywords: []string{"experiment", "evaluation", "实验"}},
	{slot: 5, keywords: []string{"future", "further exploration", "further research", "进一步", "未来"}},
	{slot: 3, keywords: []string{"solution", "approach", "method", "how does", "how the paper", "如何解决", "解决方案", "方法"}},
	{slot: 1, keywords: []string{"problem", "challenge", "解决什么问题", "试图解决", "研究问题"}},
	{slot: 0, keywords: []string{"main content", "summary", "overview", "主要内容", "总结", "概述"}},
}

var (
	// "Q3", "Question 3", "问题3" with optional separator
	prefixedHeader = regexp.MustCompile(`(?i)^(?:q|question|问题)\s*([1-6])(?:\s*[\.\)、:：\-]\s*|\s+|$)`)
	// "3." or "3)" at line start
	numberedHeader = regexp.MustCompile(`^([1-6])\s*[\.\)、]\s*`)
)

const maxHeaderRunes = 48

// ParseHeuristic scans free text for section headers and accumulates the lines
// following each header into its slot. Slots never triggered hold the
// unparseable sentinel. It never fails.
func ParseHeuristic(text string) model.Answers {
	var sections [model.NumQuestions][]string
	current := -1
	lastNumbered := 0

	for _, raw := range strings.Split(text, "\n") {
		line := cleanLine(raw)
		if line == "" {
			if current >= 0 {
				sections[current] = append(sections[current], "")
			}
			continue
		}

		if slot, rest, ok := detectHeader(raw, line, lastNumbered); ok {
			current = slot
			if slot+1 > lastNumbered {
				lastNumbered = slot + 1
			}
			if rest != "" {
				sections[current] = append(sections[current], rest)
			}
			continue
		}

		if current >= 0 {
			sections[current] = append(sections[current], strings.TrimSpace(raw))
		}
	}

	var answers model.Answers
	for i, lines := range sections {
		answers[i] = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	answers.Fill(model.SentinelUnparseable)
	return answers
}

// detectHeader decides whether a line opens a new section.
// Bare "N." headers only count when N follows the last header seen,
// so numbered lists inside an answer stay in place.
func detectHeader(raw, line string, lastNumbered int) (int, string, bool) {
	if m := prefixedHeader.FindStringSubmatchIndex(line); m != nil {
		n := int(line[m[2]] - '0')
		return n - 1, strings.TrimSpace(line[m[1]:]), true
	}

	if m := numberedHeader.FindStringSubmatchIndex(line); m != nil {
		n := int(line[m[2]] - '0')
		if n == lastNumbered+1 {
			return n - 1, strings.TrimSpace(stripTitle(line[m[1]:])), true
		}
	}

	if !headerLike(raw, line) {
		return 0, "", false
	}

	lower := strings.ToLower(line)
	for _, c := range cues {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.slot, afterColon(line), true
			}
		}
	}
	return 0, "", false
}

// headerLike reports whether a line is shaped like a heading rather than prose
func headerLike(raw, line string) bool {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "**") {
		return true
	}
	if i := strings.IndexAny(line, ":："); i >= 0 && utf8.RuneCountInString(line[:i]) <= maxHeaderRunes {
		return true
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, "。") {
		return false
	}
	return utf8.RuneCountInString(line) <= maxHeaderRunes
}

// cleanLine strips markdown decoration around a line
func cleanLine(raw string) string {
	line := strings.TrimSpace(raw)
	line = strings.TrimLeft(line, "#>-* ")
	line = strings.ReplaceAll(line, "**", "")
	return strings.TrimSpace(line)
}

// afterColon returns text following the first colon on a header line
func afterColon(line string) string {
	for _, sep := range []string{"：", ":"} {
		if i := strings.Index(line, sep); i >= 0 {
			return strings.TrimSpace(line[i+len(sep):])
		}
	}
	return ""
}

// stripTitle drops a short heading left after a numbered marker, keeping inline answers
func stripTitle(rest string) string {
	if i := strings.IndexAny(rest, ":："); i >= 0 {
		return afterColon(rest)
	}
	if utf8.RuneCountInString(rest) <= maxHeaderRunes {
		return ""
	}
	return rest
}
