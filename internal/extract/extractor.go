package extract

import (
	"context"
	"errors"
	"fmt"

	"partselect/parser/internal/domain"
	"partselect/parser/internal/observability"

	log "github.com/sirupsen/logrus"
)

// Source is a fetched product page. Trigger expands an interactive section
// and returns the updated HTML.
type Source interface {
	URL() string
	HTML() string
	Trigger(ctx context.Context, section domain.Section) (string, error)
}

// FieldError is a recoverable failure of one extractor.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// Report describes how a record was assembled: the strategy that won for
// every field and the fields that fell back to defaults.
type Report struct {
	Strategies map[string]string
	Failures   []FieldError
}

// Failed reports whether field recorded a failure.
func (r Report) Failed(field string) bool {
	for _, f := range r.Failures {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Extractor runs every field extractor over a page snapshot and assembles
// the record. It holds no per-request state and is safe for concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract never fails: every extractor error is caught at its boundary and
// the field keeps its default value.
func (e *Extractor) Extract(ctx context.Context, src Source) (domain.PartRecord, Report) {
	doc := NewDocument(src.URL(), src.HTML())
	report := Report{Strategies: make(map[string]string)}
	raw := RawFields{URL: src.URL()}

	for _, fe := range fieldExtractors {
		strategy, err := runIsolated(ctx, fe, doc, src, &raw)
		if strategy != "" {
			report.Strategies[fe.name] = strategy
		}
		if err != nil {
			report.Failures = append(report.Failures, FieldError{Field: fe.name, Err: err})
		}
	}

	record, malformed := Assemble(raw)
	report.Failures = append(report.Failures, malformed...)

	logFailures(src.URL(), report.Failures)
	observability.RecordsExtracted.Inc()

	log.Debugf("Extracted %s with %d field failures", src.URL(), len(report.Failures))
	return record, report
}

// ExtractHTML extracts a record from static HTML. Interactive sections cannot
// be expanded, so model compatibility stays empty.
func (e *Extractor) ExtractHTML(url, html string) (domain.PartRecord, Report) {
	return e.Extract(context.Background(), staticSource{url: url, html: html})
}

func logFailures(url string, failures []FieldError) {
	for _, f := range failures {
		observability.FieldFailures.WithLabelValues(f.Field).Inc()
		if errors.Is(f.Err, ErrNotFound) {
			log.Debugf("Field %s not found on %s: %v", f.Field, url, f.Err)
		} else {
			log.Warnf("⚠️ Field %s failed on %s: %v", f.Field, url, f.Err)
		}
	}
}

// runIsolated works on a scratch copy so a panicking extractor leaves no
// half-written values behind.
func runIsolated(ctx context.Context, fe fieldExtractor, doc *Document, src Source, raw *RawFields) (strategy string, err error) {
	defer func() {
		if r := recover(); r != nil {
			strategy = ""
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	scratch := *raw
	strategy, err = fe.run(ctx, doc, src, &scratch)
	*raw = scratch
	return strategy, err
}

type staticSource struct {
	url  string
	html string
}

func (s staticSource) URL() string  { return s.url }
func (s staticSource) HTML() string { return s.html }

func (s staticSource) Trigger(context.Context, domain.Section) (string, error) {
	return "", fmt.Errorf("static page has no interactive sections: %w", ErrNotFound)
}
