package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"
)

// WebExtractor renders a page in a long-lived headless browser and
// extracts the main article text via readability. Construct once; call
// Extract per URL; Close on shutdown.
type WebExtractor struct {
	allocCtx  context.Context
	cancelAll context.CancelFunc
	brCtx     context.Context
	cancelBr  context.CancelFunc

	timeout  time.Duration
	maxChars int
}

// NewWebExtractor starts a reusable headless browser. userAgent is
// optional; timeout and maxChars are clamped to sane defaults.
func NewWebExtractor(timeout time.Duration, maxChars int, userAgent string) (*WebExtractor, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxChars <= 0 {
		maxChars = 200000
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	bctx, cancelBr := chromedp.NewContext(actx)

	return &WebExtractor{
		allocCtx:  actx,
		cancelAll: cancelAlloc,
		brCtx:     bctx,
		cancelBr:  cancelBr,
		timeout:   timeout,
		maxChars:  maxChars,
	}, nil
}

// Close tears down browser resources.
func (w *WebExtractor) Close() {
	if w.cancelBr != nil {
		w.cancelBr()
	}
	if w.cancelAll != nil {
		w.cancelAll()
	}
}

// Extract implements Extractor for web pages.
func (w *WebExtractor) Extract(ctx context.Context, ref string) (Document, error) {
	link := strings.TrimSpace(ref)
	if link == "" {
		return Document{}, fmt.Errorf("empty url")
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return Document{}, fmt.Errorf("parse url %s: %w", link, err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	html, err := w.outerHTML(ctx, link)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", link, err)
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", link, ErrNoUsableText)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return Document{}, fmt.Errorf("%s: %w", link, ErrNoUsableText)
	}
	if len(text) > w.maxChars {
		text = text[:w.maxChars]
	}
	return Document{
		SourceID:   SourceIDFromRef(link),
		RawText:    text,
		OriginKind: OriginWeb,
		OriginRef:  link,
	}, nil
}

func (w *WebExtractor) outerHTML(ctx context.Context, link string) (string, error) {
	tab, cancel := context.WithTimeout(w.brCtx, w.timeout)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		tab, dcancel = context.WithDeadline(tab, deadline)
		defer dcancel()
	}

	var html string
	err := chromedp.Run(tab,
		chromedp.Navigate(link),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
