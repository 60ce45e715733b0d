// Package browser executes structural selector directives in a local
// headless Chrome, for deployments without the remote extraction service.
// Natural-language directives need the service and are rejected here.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"realestate-scraper/scraper/extract"
	"realestate-scraper/utils"
)

// Extractor drives a headless browser to evaluate selector directives.
type Extractor struct {
	chromeBin string
	retry     *utils.RetryConfig
	logger    *utils.Logger
}

// New creates a browser Extractor. chromeBin may be empty, in which case a
// browser binary is looked up on PATH.
func New(chromeBin string, maxRetries int, logger *utils.Logger) *Extractor {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &Extractor{
		chromeBin: chromeBin,
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		logger: logger,
	}
}

// Extract loads the page and assembles the directive's fields: one object
// per base element for listing directives, or a single object for a detail
// directive (empty base selector). The return shape matches the extraction
// service client's tagged union.
func (e *Extractor) Extract(ctx context.Context, pageURL string, d extract.Directive) (*extract.Result, error) {
	sel, ok := d.(extract.SelectorDirective)
	if !ok {
		return nil, &extract.Error{URL: pageURL, Message: "browser extractor supports selector directives only"}
	}

	spec, err := json.Marshal(sel)
	if err != nil {
		return nil, &extract.Error{URL: pageURL, Message: fmt.Sprintf("encode directive: %v", err)}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if e.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(e.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	var listings []map[string]any
	var detail map[string]any

	err = e.retry.Do(ctx, "browser-extract "+pageURL, func() error {
		tabCtx, cancelTab := chromedp.NewContext(allocCtx,
			chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancelTab()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 90*time.Second)
		defer cancelTimeout()

		tasks := chromedp.Tasks{
			chromedp.Navigate(pageURL),
			chromedp.Sleep(3 * time.Second),
		}
		if sel.BaseSelector != "" {
			tasks = append(tasks, chromedp.Evaluate(listingScript(spec), &listings))
		} else {
			tasks = append(tasks, chromedp.Evaluate(detailScript(spec), &detail))
		}

		if err := chromedp.Run(tabCtx, tasks...); err != nil {
			return fmt.Errorf("chromedp run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &extract.Error{URL: pageURL, Message: err.Error()}
	}

	if sel.BaseSelector != "" {
		e.logger.Debug("[browser] Extracted %d items from %s", len(listings), pageURL)
		if listings == nil {
			listings = []map[string]any{}
		}
		return &extract.Result{Kind: extract.KindListings, Listings: listings}, nil
	}

	if detail == nil {
		return nil, &extract.Error{URL: pageURL, Message: "detail extraction yielded no object"}
	}
	return &extract.Result{Kind: extract.KindDetail, Detail: detail}, nil
}

// listingScript builds one object per element matching the base selector.
// URL-named fields read the link target instead of the text content.
func listingScript(spec []byte) string {
	return `(function() {
		var spec = ` + string(spec) + `;
		var out = [];
		var bases = document.querySelectorAll(spec.baseSelector);
		for (var i = 0; i < bases.length; i++) {
			var item = {};
			for (var key in spec.fields) {
				var el = bases[i].querySelector(spec.fields[key]);
				if (!el) {
					item[key] = '';
				} else if (key === 'url') {
					item[key] = el.href || el.getAttribute('href') || '';
				} else {
					item[key] = (el.textContent || '').trim();
				}
			}
			out.push(item);
		}
		return out;
	})()`
}

// detailScript reads each field selector against the whole document.
func detailScript(spec []byte) string {
	return `(function() {
		var spec = ` + string(spec) + `;
		var item = {};
		for (var key in spec.fields) {
			var el = document.querySelector(spec.fields[key]);
			item[key] = el ? (el.textContent || '').trim() : '';
		}
		return item;
	})()`
}

// findChromeBinary locates a Chrome/Chromium binary on PATH.
func findChromeBinary() string {
	for _, name := range []string{
		"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome",
	} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
