package goquery

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docscrape"
)

var _ docscrape.FrameworkDetector = (*Detector)(nil)

// Detector identifies documentation frameworks from HTML content.
// It checks the generator meta tag first, then structural markers that
// are unique to each documentation generator.
type Detector struct{}

// NewDetector creates a new Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// markers lists framework-specific selectors in detection order.
var markers = []struct {
	framework docscrape.Framework
	selectors []string
}{
	{docscrape.FrameworkDocusaurus, []string{"#__docusaurus_skipToContent_fallback", "#__docusaurus", ".theme-doc-sidebar-container"}},
	{docscrape.FrameworkMkDocs, []string{"[data-md-color-scheme]", "[data-md-component]", ".md-nav--primary"}},
	{docscrape.FrameworkSphinx, []string{".toctree-wrapper", ".wy-nav-side", ".sphinxsidebar"}},
	{docscrape.FrameworkVuePress, []string{"#VPContent", ".VPDoc", ".theme-default-content", ".vuepress-navbar"}},
	{docscrape.FrameworkAntora, []string{"body.article .nav-container", ".nav-menu .nav-list", "article.doc"}},
}

// Detect returns FrameworkUnknown if the framework cannot be determined.
func (d *Detector) Detect(html []byte) docscrape.Framework {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return docscrape.FrameworkUnknown
	}

	if f := fromGenerator(doc); f != docscrape.FrameworkUnknown {
		return f
	}

	for _, m := range markers {
		for _, sel := range m.selectors {
			if doc.Find(sel).Length() > 0 {
				return m.framework
			}
		}
	}
	return docscrape.FrameworkUnknown
}

func fromGenerator(doc *goquery.Document) docscrape.Framework {
	generator, _ := doc.Find("meta[name='generator']").Attr("content")
	generator = strings.ToLower(generator)

	switch {
	case generator == "":
		return docscrape.FrameworkUnknown
	case strings.Contains(generator, "docusaurus"):
		return docscrape.FrameworkDocusaurus
	case strings.Contains(generator, "mkdocs"):
		return docscrape.FrameworkMkDocs
	case strings.Contains(generator, "sphinx"):
		return docscrape.FrameworkSphinx
	case strings.Contains(generator, "vitepress"), strings.Contains(generator, "vuepress"):
		return docscrape.FrameworkVuePress
	case strings.Contains(generator, "antora"):
		return docscrape.FrameworkAntora
	}
	return docscrape.FrameworkUnknown
}
