package source

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	newStyleID = regexp.MustCompile(`\d{4}\.\d{4,5}(v\d+)?`)
	oldStyleID = regexp.MustCompile(`[a-z][a-z\-]*(\.[A-Z]{2})?/\d{7}(v\d+)?`)
	spaceRun   = regexp.MustCompile(`\s+`)
	versionTag = regexp.MustCompile(`v\d+$`)
)

// ExtractID finds an arXiv identifier in an href, URL, GUID or "arXiv:" label
func ExtractID(s string) string {
	if m := newStyleID.FindString(s); m != "" {
		return m
	}
	return oldStyleID.FindString(s)
}

// StripVersion drops a trailing "vN"
func StripVersion(id string) string {
	return versionTag.ReplaceAllString(id, "")
}

// AbsURL returns the abstract page for id on base (scheme://host)
func AbsURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/abs/" + id
}

// PDFURL returns the PDF link for id on base
func PDFURL(base, id string) string {
	return strings.TrimRight(base, "/") + "/pdf/" + id
}

// siteBase reduces a URL to scheme://host
func siteBase(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "https://arxiv.org"
	}
	return u.Scheme + "://" + u.Host
}

// collapse trims and squeezes whitespace
func collapse(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// stripLabel removes a leading "Label:" descriptor
func stripLabel(s, label string) string {
	s = collapse(s)
	if strings.HasPrefix(strings.ToLower(s), strings.ToLower(label)+":") {
		s = strings.TrimSpace(s[len(label)+1:])
	}
	return s
}
