package main

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/fwojciec/docscrape"
)

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// truncateURL shortens a URL for display by showing only the path.
// This makes progress more useful when many URLs share the same host prefix.
func truncateURL(rawURL string, maxLen int) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		if len(rawURL) <= maxLen {
			return rawURL
		}
		return rawURL[:maxLen-3] + "..."
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

// progressLine redraws a single status line in place.
type progressLine struct {
	w     io.Writer
	quiet bool
	width int
}

func (p *progressLine) print(s docscrape.ProgressSnapshot) {
	if p.quiet {
		return
	}
	total := s.Processed + s.Failed + int64(s.Pending+s.InFlight)
	text := fmt.Sprintf("[%d/%d] failed %d, %d in flight, %s, %.1f pages/s",
		s.Processed+s.Failed, total, s.Failed, s.InFlight, FormatBytes(s.BytesDownloaded), s.Rate)
	pad := ""
	if n := p.width - len(text); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.width = len(text)
	fmt.Fprintf(p.w, "\r%s%s", text, pad)
}

func (p *progressLine) clear() {
	if p.quiet || p.width == 0 {
		return
	}
	fmt.Fprintf(p.w, "\r%s\r", strings.Repeat(" ", p.width))
	p.width = 0
}

func printSummary(w io.Writer, s *docscrape.Summary) {
	fmt.Fprintf(w, "Processed %d, skipped %d, failed %d, pending %d\n", s.Processed, s.Skipped, s.Failed, s.Pending)
	printClasses(w, s.FailuresByClass)
	for _, f := range s.Failures {
		fmt.Fprintf(w, "  %-10s %s\n", f.Class, truncateURL(f.URL, 60))
	}
}

func printClasses(w io.Writer, byClass map[string]int) {
	if len(byClass) == 0 {
		return
	}
	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	parts := make([]string, len(classes))
	for i, c := range classes {
		parts[i] = fmt.Sprintf("%s %d", c, byClass[c])
	}
	fmt.Fprintf(w, "Failures by class: %s\n", strings.Join(parts, ", "))
}
