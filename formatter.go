package docscrape

import "strings"

// FormatPages concatenates stored pages into one markdown document.
// Each page gets a heading with its title, or its URL when the title is
// empty.
func FormatPages(pages []*StoredPage) string {
	if len(pages) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		heading := p.Title
		if heading == "" {
			heading = p.URL
		}
		b.WriteString("## " + heading + "\n")
		if p.Title != "" {
			b.WriteString("<!-- " + p.URL + " -->\n")
		}
		b.WriteString(strings.TrimSpace(p.Content))
	}
	return b.String()
}
