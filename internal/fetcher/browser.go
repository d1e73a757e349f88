package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"partselect/parser/internal/config"
	"partselect/parser/internal/domain"
	"partselect/parser/internal/proxy"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

const (
	domStableWindow = 300 * time.Millisecond
	domStableDiff   = 0.1
)

// BrowserFetcher renders pages in a shared headless Chromium. Tabs come from
// a bounded pool and go back to it when the Page is closed.
type BrowserFetcher struct {
	browser    *rod.Browser
	pagePool   rod.Pool[rod.Page]
	config     config.FetcherConfig
	browserCfg config.BrowserConfig
	rl         ratelimit.Limiter
	breaker    *circuitBreaker
}

func NewBrowserFetcher(cfg config.FetcherConfig, browserCfg config.BrowserConfig, proxySupplier proxy.ProxySupplier) (*BrowserFetcher, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.Bin != "" {
		l = l.Bin(browserCfg.Bin)
	}
	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			l = l.Proxy(proxyURL)
			log.Infof("🔗 Using browser proxy: %s", proxyURL)
		}
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("window-size"), "1920,1080")
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	log.Infof("🌐 Browser launched with a pool of %d pages", browserCfg.MaxPages)

	return &BrowserFetcher{
		browser:    browser,
		pagePool:   rod.NewPagePool(browserCfg.MaxPages),
		config:     cfg,
		browserCfg: browserCfg,
		rl:         newLimiter(cfg.MaxRequestsPerSecond),
		breaker:    newCircuitBreaker(time.Duration(cfg.CircuitBreakerMinutes) * time.Minute),
	}, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	if err := f.breaker.check(); err != nil {
		return nil, err
	}
	f.rl.Take()

	page, err := f.pagePool.Get(func() (*rod.Page, error) {
		return f.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, NewFetchError(CodeUnreachable, "failed to acquire browser page", err)
	}

	bp := &browserPage{fetcher: f, page: page, url: url}
	html, err := f.load(ctx, page, url)
	if err != nil {
		_ = bp.Close()
		if CodeOf(err) == CodeBlocked {
			f.breaker.trigger()
		}
		return nil, err
	}
	bp.html = html

	log.Debugf("Rendered %s (%d bytes)", url, len(html))
	return bp, nil
}

// load navigates and waits for the page to settle. Stealth patches are
// installed before navigation so they apply to the product page itself.
func (f *BrowserFetcher) load(ctx context.Context, page *rod.Page, url string) (string, error) {
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		log.Warnf("⚠️ Stealth injection failed, proceeding without it: %v", err)
	}
	if f.config.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.config.UserAgent}); err != nil {
			log.Warnf("⚠️ Failed to override user agent: %v", err)
		}
	}

	timeout := time.Duration(f.config.Timeout) * time.Second
	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := page.Context(loadCtx)

	if err := p.Navigate(url); err != nil {
		return "", NewFetchError(CodeUnreachable, "navigation failed", err)
	}
	if err := p.WaitDOMStable(domStableWindow, domStableDiff); err != nil {
		log.Debugf("DOM did not settle on %s, using current DOM: %v", url, err)
	}
	simulateReading(p)

	html, err := p.HTML()
	if err != nil {
		return "", NewFetchError(CodeUnreachable, "failed to read page HTML", err)
	}
	title := ""
	if res, err := p.Eval(`() => document.title`); err == nil {
		title = res.Value.Str()
	}

	if err := Validate(title, html, f.config.MinContentLength); err != nil {
		return "", err
	}
	return html, nil
}

// simulateReading scrolls a little and back, like a reader skimming the page.
func simulateReading(p *rod.Page) {
	if _, err := p.Eval(`() => window.scrollTo(0, 200)`); err != nil {
		log.Debugf("Scroll simulation failed: %v", err)
		return
	}
	sleepCtx(p.GetContext(), time.Second)
	_, _ = p.Eval(`() => window.scrollTo(0, 0)`)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (f *BrowserFetcher) Close() error {
	log.Info("Closing browser...")
	f.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	return f.browser.Close()
}

type browserPage struct {
	fetcher *BrowserFetcher
	page    *rod.Page
	url     string
	html    string

	mu        sync.Mutex
	closeOnce sync.Once
}

func (p *browserPage) URL() string  { return p.url }
func (p *browserPage) HTML() string { return p.html }

// sectionScripts expand a section in place and report whether it was found.
var sectionScripts = map[domain.Section]string{
	domain.SectionModelCrossReference: `() => {
		const el = document.getElementById("ModelCrossReference");
		if (!el) return false;
		el.scrollIntoView();
		el.click();
		return true;
	}`,
	domain.SectionVideoGallery: `() => {
		const el = document.getElementById("PartVideos") || document.querySelector("[data-iframe-id]");
		if (!el) return false;
		el.scrollIntoView();
		return true;
	}`,
}

func (p *browserPage) Trigger(ctx context.Context, section domain.Section) (string, error) {
	script, ok := sectionScripts[section]
	if !ok {
		return "", fmt.Errorf("unknown section %q", section)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	actionCtx, cancel := context.WithTimeout(ctx, time.Duration(p.fetcher.browserCfg.ActionTimeout)*time.Second)
	defer cancel()
	page := p.page.Context(actionCtx)

	res, err := page.Eval(script)
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", section, err)
	}
	if !res.Value.Bool() {
		return "", fmt.Errorf("section %s not present on page", section)
	}
	if err := page.WaitDOMStable(domStableWindow, domStableDiff); err != nil {
		log.Debugf("DOM did not settle after expanding %s: %v", section, err)
	}

	// The action deadline may have passed while waiting; read with the caller's context.
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read HTML after expanding %s: %w", section, err)
	}
	return html, nil
}

// Close blanks the tab and returns it to the pool. It is safe to call twice.
func (p *browserPage) Close() error {
	p.closeOnce.Do(func() {
		if err := p.page.Navigate("about:blank"); err != nil {
			log.Warnf("⚠️ Failed to reset browser page: %v", err)
		}
		p.fetcher.pagePool.Put(p.page)
	})
	return nil
}
