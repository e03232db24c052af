// Package goquery discovers prioritized links in documentation pages
// and detects the documentation framework that generated them.
package goquery

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docscrape"
)

// Region is a part of a page whose links share a priority.
type Region struct {
	Selector string
	Priority docscrape.Priority
	Source   string
}

// fallbackRegion catches anchors outside every known region.
var fallbackRegion = Region{Selector: "a[href]", Priority: docscrape.PriorityLow, Source: "fallback"}

// extractLinks collects absolute http(s) links from the regions in order.
// A URL found in several regions keeps its most urgent priority and its
// first position in the result.
func extractLinks(html []byte, baseURL string, regions []Region) ([]docscrape.DiscoveredLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, docscrape.Errorf(docscrape.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, docscrape.Errorf(docscrape.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]int)
	var links []docscrape.DiscoveredLink

	for _, r := range regions {
		doc.Find(r.Selector).Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			resolved := resolve(base, href)
			if resolved == "" {
				return
			}

			link := docscrape.DiscoveredLink{
				URL:      resolved,
				Priority: r.Priority,
				Text:     strings.Join(strings.Fields(sel.Text()), " "),
				Source:   r.Source,
			}
			if idx, ok := seen[resolved]; ok {
				if r.Priority < links[idx].Priority {
					links[idx] = link
				}
				return
			}
			seen[resolved] = len(links)
			links = append(links, link)
		})
	}

	return links, nil
}

// resolve returns href resolved against base without its fragment, or ""
// for empty, in-page, and non-http(s) links.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
