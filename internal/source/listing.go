package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/paperdigest/internal/model"
)

// ListingSource scrapes the dt/dd pairs of an arXiv "new submissions" page
type ListingSource struct {
	url      string
	category string
	fetcher  *Fetcher
}

// NewListingSource creates a source for listingURL
func NewListingSource(listingURL, category string, fetcher *Fetcher) *ListingSource {
	return &ListingSource{url: listingURL, category: category, fetcher: fetcher}
}

// Name identifies the source in logs
func (s *ListingSource) Name() string {
	return "listing " + s.url
}

// Fetch downloads and parses the listing page
func (s *ListingSource) Fetch(ctx context.Context) ([]model.Paper, error) {
	result, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	papers, err := ParseListing(result.Body, siteBase(result.FinalURL), s.category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return papers, nil
}

// ParseListing extracts papers from listing HTML. Links are built against base.
func ParseListing(body []byte, base, category string) ([]model.Paper, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	crawled := nowFunc()
	var papers []model.Paper

	doc.Find("dl dt").Each(func(_ int, dt *goquery.Selection) {
		dd := dt.NextFiltered("dd")
		if dd.Length() == 0 {
			return
		}

		id, _ := dt.Find(`a[title="Abstract"]`).Attr("id")
		if id == "" {
			href, _ := dt.Find(`a[href*="/abs/"]`).Attr("href")
			id = ExtractID(href)
		}
		id = StripVersion(strings.TrimSpace(id))

		p := model.Paper{
			ID:             id,
			Title:          descriptorText(dd.Find("div.list-title"), "Title"),
			Authors:        authorList(dd.Find("div.list-authors")),
			Subjects:       descriptorText(dd.Find("div.list-subjects"), "Subjects"),
			Comments:       descriptorText(dd.Find("div.list-comments"), "Comments"),
			Abstract:       collapse(dd.Find("p.mathjax").First().Text()),
			SourceCategory: category,
			CrawlTime:      crawled,
		}
		if id != "" {
			p.URL = AbsURL(base, id)
			p.PDFURL = PDFURL(base, id)
		}
		papers = append(papers, p)
	})

	return model.DedupePapers(papers), nil
}

// descriptorText returns the element text without its "Label:" descriptor span
func descriptorText(sel *goquery.Selection, label string) string {
	if sel.Length() == 0 {
		return ""
	}
	sel = sel.First().Clone()
	sel.Find("span.descriptor").Remove()
	return stripLabel(sel.Text(), label)
}

// authorList joins the linked author names, falling back to the raw text
func authorList(sel *goquery.Selection) string {
	var names []string
	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		if name := collapse(a.Text()); name != "" {
			names = append(names, name)
		}
	})
	if len(names) > 0 {
		return strings.Join(names, ", ")
	}
	return descriptorText(sel, "Authors")
}
