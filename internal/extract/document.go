package extract

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Document is an immutable HTML snapshot of one page. The goquery tree is
// parsed lazily so pattern-only strategies never pay for it.
type Document struct {
	url  string
	html string

	once sync.Once
	doc  *goquery.Document
	err  error
}

func NewDocument(url, html string) *Document {
	return &Document{url: url, html: html}
}

func (d *Document) URL() string {
	return d.url
}

func (d *Document) HTML() string {
	return d.html
}

// Query returns the parsed tree. Callers must not mutate it; use
// Selection.Clone before removing nodes.
func (d *Document) Query() (*goquery.Document, error) {
	d.once.Do(func() {
		d.doc, d.err = goquery.NewDocumentFromReader(strings.NewReader(d.html))
		if d.err != nil {
			d.err = fmt.Errorf("failed to parse HTML: %w", d.err)
		}
	})
	return d.doc, d.err
}

// VisibleText returns the page text without script, style and noscript content.
func (d *Document) VisibleText() (string, error) {
	q, err := d.Query()
	if err != nil {
		return "", err
	}
	body := q.Find("body")
	if body.Length() == 0 {
		body = q.Selection
	}
	visible := body.Clone()
	visible.Find("script, style, noscript, template").Remove()
	return visible.Text(), nil
}
