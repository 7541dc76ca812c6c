package source

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/paperdigest/internal/model"
)

var (
	announceType  = regexp.MustCompile(`(?i)announce type:\s*([a-z\-]+)`)
	abstractLabel = regexp.MustCompile(`(?is)^.*?abstract:\s*`)
)

// RSSSource reads the arXiv daily RSS feed
type RSSSource struct {
	url      string
	category string
	fetcher  *Fetcher
}

// NewRSSSource creates a source for feedURL
func NewRSSSource(feedURL, category string, fetcher *Fetcher) *RSSSource {
	return &RSSSource{url: feedURL, category: category, fetcher: fetcher}
}

// Name identifies the source in logs
func (s *RSSSource) Name() string {
	return "rss " + s.url
}

// Fetch downloads and parses the feed
func (s *RSSSource) Fetch(ctx context.Context) ([]model.Paper, error) {
	result, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	papers, err := ParseFeed(result.Body, s.category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return papers, nil
}

// ParseFeed converts feed items into papers. Replacement announcements are
// skipped since they are not new submissions.
func ParseFeed(body []byte, category string) ([]model.Paper, error) {
	fp := gofeed.NewParser()
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("RSS parse failed: %w", err)
	}

	crawled := nowFunc()
	papers := make([]model.Paper, 0, len(feed.Items))

	for _, item := range feed.Items {
		if m := announceType.FindStringSubmatch(item.Description); m != nil {
			if strings.HasPrefix(strings.ToLower(m[1]), "replace") {
				continue
			}
		}

		id := ExtractID(item.Link)
		if id == "" {
			id = ExtractID(item.GUID)
		}
		id = StripVersion(id)

		p := model.Paper{
			ID:             id,
			Title:          collapse(item.Title),
			Abstract:       collapse(abstractLabel.ReplaceAllString(item.Description, "")),
			Authors:        feedAuthors(item),
			Subjects:       strings.Join(item.Categories, "; "),
			URL:            item.Link,
			SourceCategory: category,
			CrawlTime:      crawled,
		}
		if id != "" {
			base := siteBase(item.Link)
			if p.URL == "" {
				p.URL = AbsURL(base, id)
			}
			p.PDFURL = PDFURL(base, id)
		}
		papers = append(papers, p)
	}

	return model.DedupePapers(papers), nil
}

// feedAuthors prefers item authors and falls back to dc:creator
func feedAuthors(item *gofeed.Item) string {
	var names []string
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			names = append(names, collapse(a.Name))
		}
	}
	if len(names) == 0 && item.DublinCoreExt != nil {
		names = append(names, item.DublinCoreExt.Creator...)
	}
	return collapse(strings.Join(names, ", "))
}
