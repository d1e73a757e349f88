package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Strategy is one named way of recovering a value from a page. Run reports
// ok only for a non-empty, plausible value.
type Strategy[T any] struct {
	Name string
	Run  func(doc *Document) (T, bool)
}

// FirstMatch tries strategies in priority order and returns the first
// accepted value together with the name of the strategy that produced it.
func FirstMatch[T any](doc *Document, strategies ...Strategy[T]) (T, string, bool) {
	for _, s := range strategies {
		if v, ok := s.Run(doc); ok {
			return v, s.Name, true
		}
	}
	var zero T
	return zero, "", false
}

// Accept narrows a string strategy with a plausibility check, so a match that
// fails validation lets the next strategy run.
func Accept(s Strategy[string], valid func(string) bool) Strategy[string] {
	return Strategy[string]{
		Name: s.Name,
		Run: func(doc *Document) (string, bool) {
			v, ok := s.Run(doc)
			if !ok || !valid(v) {
				return "", false
			}
			return v, true
		},
	}
}

// Map post-processes the value of a string strategy.
func Map(s Strategy[string], fn func(string) string) Strategy[string] {
	return Strategy[string]{
		Name: s.Name,
		Run: func(doc *Document) (string, bool) {
			v, ok := s.Run(doc)
			if !ok {
				return "", false
			}
			v = fn(v)
			return v, v != ""
		},
	}
}

// Pattern runs a named rule over the serialized HTML.
func Pattern(rule Rule) Strategy[string] {
	return Strategy[string]{
		Name: rule.Name,
		Run: func(doc *Document) (string, bool) {
			return rule.Find(doc.HTML())
		},
	}
}

// SelectorText takes the cleaned text of the first element matching selector
// that has any text.
func SelectorText(name, selector string) Strategy[string] {
	return Strategy[string]{
		Name: name,
		Run: func(doc *Document) (string, bool) {
			q, err := doc.Query()
			if err != nil {
				return "", false
			}
			var text string
			q.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				text = cleanText(s.Text())
				return text == ""
			})
			return text, text != ""
		},
	}
}

// SelectorAttr takes an attribute value of the first matching element.
func SelectorAttr(name, selector, attr string) Strategy[string] {
	return Strategy[string]{
		Name: name,
		Run: func(doc *Document) (string, bool) {
			q, err := doc.Query()
			if err != nil {
				return "", false
			}
			v, exists := q.Find(selector).First().Attr(attr)
			v = strings.TrimSpace(v)
			return v, exists && v != ""
		},
	}
}

// LabeledBlock finds a "div.bold" heading whose text satisfies match and
// returns the text that follows it: the bare text directly after the heading,
// then the next element sibling, then the parent's text with the heading
// removed.
func LabeledBlock(name string, match func(label string) bool) Strategy[string] {
	return Strategy[string]{
		Name: name,
		Run: func(doc *Document) (string, bool) {
			q, err := doc.Query()
			if err != nil {
				return "", false
			}
			var text string
			q.Find("div.bold").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				label := cleanText(s.Text())
				if !match(label) {
					return true
				}
				text = trailingText(s)
				if text == "" {
					if next := s.Next(); next.Length() > 0 {
						text = cleanText(next.Text())
					}
				}
				if text == "" {
					text = cleanText(strings.Replace(cleanText(s.Parent().Text()), label, "", 1))
				}
				return text == ""
			})
			return text, text != ""
		},
	}
}

// trailingText joins the text nodes between s and its next element sibling.
func trailingText(s *goquery.Selection) string {
	var b strings.Builder
	for n := s.Nodes[0].NextSibling; n != nil && n.Type != html.ElementNode; n = n.NextSibling {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	return cleanText(b.String())
}
