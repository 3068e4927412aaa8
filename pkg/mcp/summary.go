package mcp

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryLen = 512

// bodySummary shortens a non-JSON response body for error messages. HTML
// error pages (proxies, gateways) are reduced to their title or first heading.
func bodySummary(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "<empty>"
	}
	if looksLikeHTML(trimmed) {
		if s := htmlSummary(trimmed); s != "" {
			return s
		}
	}
	return truncate(trimmed, maxSummaryLen)
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func looksLikeHTML(text string) bool {
	head := strings.ToLower(text)
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<title")
}

func htmlSummary(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return ""
	}
	return firstNonEmpty(
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.Join(strings.Fields(v), " "); s != "" {
			return s
		}
	}
	return ""
}
