package platinumlist

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"platinumlist-scraper/config"
	"platinumlist-scraper/services"
)

// PageDriver abstracts the rendering engine. The production implementation
// drives headless Chrome; tests substitute a canned driver.
type PageDriver interface {
	// CollectLinks loads a listing page and returns every anchor href on it.
	CollectLinks(ctx context.Context, pageURL string) ([]string, error)

	// FetchContent loads a detail page and returns its evaluated content.
	FetchContent(ctx context.Context, pageURL string) (services.PageContent, error)

	Close()
}

// ChromeDriver is the chromedp-backed PageDriver. One browser context is
// reused sequentially across all navigations in a run.
type ChromeDriver struct {
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelBrow  context.CancelFunc
	navTimeout  time.Duration
	settleDelay time.Duration
}

// NewChromeDriver launches a headless browser configured from cfg.
func NewChromeDriver(cfg *config.Config) (*ChromeDriver, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrow := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser process eagerly so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrow()
		cancelAlloc()
		return nil, fmt.Errorf("chrome: launch: %w", err)
	}

	return &ChromeDriver{
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelBrow:  cancelBrow,
		navTimeout:  time.Duration(cfg.NavTimeoutSec) * time.Second,
		settleDelay: time.Duration(cfg.SettleDelayMs) * time.Millisecond,
	}, nil
}

// CollectLinks implements PageDriver.
func (d *ChromeDriver) CollectLinks(ctx context.Context, pageURL string) ([]string, error) {
	runCtx, cancel := context.WithTimeout(d.browserCtx, d.navTimeout+d.settleDelay)
	defer cancel()

	var hrefs []string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(d.settleDelay),
		chromedp.Evaluate(`
			(function() {
				var out = [];
				var seen = {};
				var anchors = document.querySelectorAll('a[href]');
				for (var i = 0; i < anchors.length; i++) {
					var href = anchors[i].href;
					if (!href || seen[href]) continue;
					seen[href] = true;
					out.push(href);
				}
				return out;
			})()
		`, &hrefs),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome: collect %s: %w", pageURL, err)
	}
	return hrefs, nil
}

// FetchContent implements PageDriver.
func (d *ChromeDriver) FetchContent(ctx context.Context, pageURL string) (services.PageContent, error) {
	runCtx, cancel := context.WithTimeout(d.browserCtx, d.navTimeout+d.settleDelay)
	defer cancel()

	var html, text string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(d.settleDelay),
		chromedp.OuterHTML("html", &html),
		chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &text),
	)
	if err != nil {
		return services.PageContent{}, fmt.Errorf("chrome: fetch %s: %w", pageURL, err)
	}

	return services.PageContent{URL: pageURL, HTML: html, Text: text}, nil
}

// Close tears down the browser process.
func (d *ChromeDriver) Close() {
	d.cancelBrow()
	d.cancelAlloc()
}

// findChromeBinary locates the Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
