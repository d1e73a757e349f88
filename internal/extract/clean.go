package extract

import (
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// cleanText strips markup, decodes entities and collapses whitespace.
func cleanText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		s = html.UnescapeString(stripPolicy.Sanitize(s))
	}
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// dedupeKey makes entries that differ only by whitespace compare equal.
func dedupeKey(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitAndClean splits a delimited block, trims every token and drops empty
// and repeated tokens while keeping document order.
func splitAndClean(text, delimiter string) []string {
	out := []string{}
	if strings.TrimSpace(text) == "" {
		return out
	}
	seen := make(map[string]struct{})
	for _, token := range strings.Split(text, delimiter) {
		token = cleanText(token)
		if token == "" {
			continue
		}
		key := dedupeKey(token)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, token)
	}
	return out
}

// parsePrice parses "44.95", "$1,044.50" or " 12 " into a non-negative value
// rounded to cents.
func parsePrice(text string) (float64, bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Round(v*100) / 100, true
}

func isPrice(text string) bool {
	_, ok := parsePrice(text)
	return ok
}

func parseRating(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || v < 0 || v > 5 || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func isRating(text string) bool {
	_, ok := parseRating(text)
	return ok
}

func parseCount(text string) (int, bool) {
	v, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(text), ",", ""))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func isCount(text string) bool {
	_, ok := parseCount(text)
	return ok
}

// isPartCode rejects captures like "Number" that the loose label patterns
// can pick up: a part code has at least one digit.
func isPartCode(text string) bool {
	return len(text) >= 3 && strings.ContainsAny(text, "0123456789")
}
