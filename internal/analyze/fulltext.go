package analyze

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	absPath = regexp.MustCompile(`^/(abs|pdf|html)/(.+?)(\.pdf)?/?$`)
	blankRe = regexp.MustCompile(`[ \t]+`)
	gapRe   = regexp.MustCompile(`\n{3,}`)
)

// DocumentURL maps an abstract or PDF link to the paper's HTML rendering.
// It returns "" for links it does not recognise.
func DocumentURL(paperURL string) string {
	u, err := url.Parse(paperURL)
	if err != nil || u.Host == "" {
		return ""
	}
	m := absPath.FindStringSubmatch(u.Path)
	if m == nil {
		return ""
	}
	u.Path = "/html/" + m[2]
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// block elements end a line of extracted text
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "table": true, "figure": true, "figcaption": true,
	"blockquote": true, "pre": true,
}

// ExtractText returns the visible text of an HTML document, preferring its
// <article> element, truncated to maxChars runes (0 means no limit)
func ExtractText(body []byte, maxChars int) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	root := findElement(doc, "article")
	if root == nil {
		root = doc
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "header", "footer", "annotation", "annotation-xml", "button":
				return
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}
	walk(root)

	return truncate(normalizeText(buf.String()), maxChars), nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(blankRe.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(gapRe.ReplaceAllString(s, "\n\n"))
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars])
}
