package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"partselect/parser/internal/config"
	"partselect/parser/internal/domain"
	"partselect/parser/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// HTTPFetcher fetches the server-rendered HTML without a browser. It is much
// cheaper than BrowserFetcher, but interactive sections cannot be expanded.
type HTTPFetcher struct {
	rl            ratelimit.Limiter
	config        config.FetcherConfig
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier
	breaker       *circuitBreaker
}

func NewHTTPFetcher(cfg config.FetcherConfig, proxySupplier proxy.ProxySupplier) *HTTPFetcher {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5")

	// Get initial proxy
	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	return &HTTPFetcher{
		rl:            newLimiter(cfg.MaxRequestsPerSecond),
		config:        cfg,
		httpClient:    client,
		proxySupplier: proxySupplier,
		breaker:       newCircuitBreaker(time.Duration(cfg.CircuitBreakerMinutes) * time.Minute),
	}
}

func newLimiter(perSecond int) ratelimit.Limiter {
	if perSecond <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(perSecond)
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	if err := f.breaker.check(); err != nil {
		return nil, err
	}

	html, err := f.fetchHTML(ctx, url)
	if err == nil {
		err = Validate("", html, f.config.MinContentLength)
	}

	if CodeOf(err) == CodeBlocked && f.proxySupplier != nil {
		if newProxy := f.proxySupplier.Get(); newProxy != "" {
			log.Warnf("🚫 Blocked on %s, switching to proxy %s", url, newProxy)
			f.httpClient.SetProxy(newProxy)

			html, err = f.fetchHTML(ctx, url)
			if err == nil {
				err = Validate("", html, f.config.MinContentLength)
			}
			if err == nil {
				log.Infof("✅ Retry successful with new proxy")
			}
		}
	}

	if err != nil {
		if CodeOf(err) == CodeBlocked {
			f.breaker.trigger()
		}
		return nil, err
	}

	log.Debugf("Fetched %s (%d bytes)", url, len(html))
	return &staticPage{url: url, html: html}, nil
}

func (f *HTTPFetcher) fetchHTML(ctx context.Context, url string) (string, error) {
	f.rl.Take()

	resp, err := f.httpClient.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		if ctx.Err() != nil {
			return "", NewFetchError(CodeUnreachable, "request cancelled", ctx.Err())
		}
		return "", NewFetchError(CodeUnreachable, "failed to fetch URL", err)
	}

	if resp.IsError() {
		code := CodeUnreachable
		switch resp.StatusCode() {
		case http.StatusForbidden, http.StatusTooManyRequests:
			code = CodeBlocked
		}
		return "", NewFetchError(code, fmt.Sprintf("HTTP error: %s", resp.Status()), nil)
	}

	return resp.String(), nil
}

func (f *HTTPFetcher) Close() error {
	return f.httpClient.Close()
}

// staticPage serves server-rendered HTML. Sections that need JavaScript are
// answered with the original HTML, so extractors fall back to whatever the
// server already rendered.
type staticPage struct {
	url  string
	html string
}

func (p *staticPage) URL() string  { return p.url }
func (p *staticPage) HTML() string { return p.html }

func (p *staticPage) Trigger(ctx context.Context, section domain.Section) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch section {
	case domain.SectionModelCrossReference, domain.SectionVideoGallery:
		return p.html, nil
	}
	return "", errors.New("unknown section " + string(section))
}

func (p *staticPage) Close() error { return nil }
