package fetcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMinContentLength is the smallest page accepted as a real product page.
const DefaultMinContentLength = 1000

var (
	// blockedTitle matches the error markers as whole words, so part numbers
	// such as W10403880 do not trip it.
	blockedTitle = regexp.MustCompile(`(?i)\b(?:access denied|403|error|not found)\b`)
	// siteTitle is the suffix of every page served by the site itself.
	siteTitle = regexp.MustCompile(`(?i)\s*[|–-]\s*PartSelect(?:\.com)?\s*$`)
	// siteErrorTitle is a site page whose whole title is an error.
	siteErrorTitle = regexp.MustCompile(`(?i)^(?:page\s+)?(?:access denied|403(?:\s+forbidden)?|(?:server\s+)?error|not found)$`)
)

// Challenge pages render a normal title, so their body is checked as well.
var challengeMarkers = []string{
	"checking your browser",
	"cf-browser-verification",
	"verify you are human",
	"pardon our interruption",
}

// Validate rejects error, block and challenge pages. An empty title is read
// from the document itself.
func Validate(title, html string, minLength int) error {
	if minLength <= 0 {
		minLength = DefaultMinContentLength
	}
	if title == "" {
		title = documentTitle(html)
	}

	if blockedPageTitle(title) {
		return NewFetchError(CodeBlocked, fmt.Sprintf("page access denied or error: %q", title), nil)
	}

	lowerHTML := strings.ToLower(html)
	for _, marker := range challengeMarkers {
		if strings.Contains(lowerHTML, marker) {
			return NewFetchError(CodeBlocked, fmt.Sprintf("bot challenge detected (%s)", marker), nil)
		}
	}

	if len(html) < minLength {
		return NewFetchError(CodeInsufficientContent, fmt.Sprintf("page content too short: %d chars", len(html)), nil)
	}
	return nil
}

// blockedPageTitle reports whether title belongs to an error or block page.
// Site titles name products ("Error Code Display Board - PartSelect.com"), so
// they only count when the title itself is the error.
func blockedPageTitle(title string) bool {
	title = strings.TrimSpace(title)
	if loc := siteTitle.FindStringIndex(title); loc != nil {
		return siteErrorTitle.MatchString(strings.TrimSpace(title[:loc[0]]))
	}
	return blockedTitle.MatchString(title)
}

func documentTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
