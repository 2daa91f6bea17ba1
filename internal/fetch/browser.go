// Package fetch drives the browser that renders the activity feed.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"github.com/watchharvest/watchharvest/internal/log"
	"github.com/watchharvest/watchharvest/internal/types"
	"github.com/watchharvest/watchharvest/internal/utils"
)

// FetcherConfig configures the browser.
type FetcherConfig struct {
	UserAgent      string `yaml:"user_agent,omitempty" env:"FETCHER_USER_AGENT"`
	UserDataDir    string `yaml:"user_data_dir,omitempty" env:"FETCHER_USER_DATA_DIR"`
	Headless       bool   `yaml:"headless" env:"FETCHER_HEADLESS"`
	HistoryURL     string `yaml:"history_url" env:"FETCHER_HISTORY_URL" env-default:"https://myactivity.google.com/product/youtube?restrict=youtube"`
	ItemSelector   string `yaml:"item_selector" env:"FETCHER_ITEM_SELECTOR" env-default:"c-wiz.xDtZAf, div.CW0isc"`
	PageLoadWaitMS int    `yaml:"page_load_wait_ms" env:"FETCHER_PAGE_LOAD_WAIT_MS" env-default:"5000"`
	LoginWaitMS    int    `yaml:"login_wait_ms" env:"FETCHER_LOGIN_WAIT_MS" env-default:"5000"`
	ScrollDelayMS  int    `yaml:"scroll_delay_ms" env:"FETCHER_SCROLL_DELAY_MS" env-default:"5000"`
	DebugDir       string `yaml:"debug_dir,omitempty" env:"FETCHER_DEBUG_DIR" env-default:"debug"`
}

// ErrNotOpened is returned by the page methods before Open succeeded.
var ErrNotOpened = errors.New("browser has not been opened")

const (
	scrollHeightJS = `document.documentElement.scrollHeight`
	scrollBottomJS = `window.scrollTo(0, document.documentElement.scrollHeight)`
	listItemsJS    = `Array.from(document.querySelectorAll(%q)).map(e => e.outerHTML)`
)

// Browser renders the feed in Chrome. After Open it acts as the page growth
// and element source collaborator of the harvest loop.
type Browser struct {
	*FetcherConfig
	allocContext context.Context
	cancelAlloc  context.CancelFunc
	tabContext   context.Context
	cancelTab    context.CancelFunc
}

func NewBrowser(fc *FetcherConfig) *Browser {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(1920, 1080), // init with a desktop view
	)
	if !fc.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if fc.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(fc.UserAgent))
	}
	if fc.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(fc.UserDataDir))
	}
	allocContext, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	b := &Browser{
		FetcherConfig: fc,
		allocContext:  allocContext,
		cancelAlloc:   cancelAlloc,
	}
	if b.PageLoadWaitMS == 0 {
		b.PageLoadWaitMS = 5000
	}
	if b.ScrollDelayMS == 0 {
		b.ScrollDelayMS = 5000
	}
	return b
}

// Open starts a tab and loads urlStr. The login wait gives the user time to
// check that the session in the browser profile is signed in.
func (b *Browser) Open(ctx context.Context, urlStr string) error {
	logger := log.LoggerFromContext(ctx).With(slog.String("fetcher", "browser"), slog.String("url", urlStr))
	b.tabContext, b.cancelTab = chromedp.NewContext(b.allocContext)

	actions := []chromedp.Action{}
	if log.Debug {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			protocolVersion, product, revision, userAgent, jsVersion, err := browser.GetVersion().Do(ctx)
			if err != nil {
				logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
				return nil
			}
			logger.Debug(fmt.Sprintf("chrome version: protocolVersion=%s, product=%s, revision=%s, userAgent=%s, jsVersion=%s",
				protocolVersion, product, revision, userAgent, jsVersion))
			return nil
		}))
	}

	sleepTime := time.Duration(b.PageLoadWaitMS) * time.Millisecond
	actions = append(actions,
		chromedp.Navigate(urlStr),
		chromedp.Sleep(sleepTime),
	)
	logger.Debug(fmt.Sprintf("appended chrome actions: Navigate, Sleep(%v)", sleepTime))

	if b.LoginWaitMS > 0 {
		loginWait := time.Duration(b.LoginWaitMS) * time.Millisecond
		actions = append(actions,
			chromedp.ActionFunc(func(ctx context.Context) error {
				logger.Info(fmt.Sprintf("check that the browser session is signed in, continuing in %v", loginWait))
				return nil
			}),
			chromedp.Sleep(loginWait),
		)
	}

	if log.Debug {
		if err := os.MkdirAll(b.DebugDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create debug directory: %v", err)
		}
		r, err := utils.RandomString("history")
		if err != nil {
			return err
		}
		var buf []byte
		filename := path.Join(b.DebugDir, fmt.Sprintf("%s.png", r))
		actions = append(actions, chromedp.CaptureScreenshot(&buf))
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			logger.Debug(fmt.Sprintf("writing screenshot to file %s", filename))
			return os.WriteFile(filename, buf, 0644)
		}))
	}

	if err := chromedp.Run(b.tabContext, actions...); err != nil {
		return fmt.Errorf("failed to open %s: %w", urlStr, err)
	}
	return nil
}

// TriggerScroll scrolls to the bottom of the page and waits for the feed to
// render more entries. It reports whether the page height grew.
func (b *Browser) TriggerScroll(ctx context.Context) (bool, error) {
	if err := b.ready(ctx); err != nil {
		return false, err
	}
	var before, after int64
	delay := time.Duration(b.ScrollDelayMS) * time.Millisecond
	err := chromedp.Run(b.tabContext,
		chromedp.Evaluate(scrollHeightJS, &before),
		chromedp.Evaluate(scrollBottomJS, nil),
		chromedp.Sleep(delay),
		chromedp.Evaluate(scrollHeightJS, &after),
	)
	if err != nil {
		return false, fmt.Errorf("failed to scroll: %w", err)
	}
	log.LoggerFromContext(ctx).Debug("scrolled down the page", slog.Int64("before", before), slog.Int64("after", after))
	return after > before, nil
}

// ListElements returns the outer html of every feed element currently
// rendered, in document order.
func (b *Browser) ListElements(ctx context.Context) ([]types.Element, error) {
	if err := b.ready(ctx); err != nil {
		return nil, err
	}
	var htmls []string
	if err := chromedp.Run(b.tabContext, chromedp.Evaluate(fmt.Sprintf(listItemsJS, b.ItemSelector), &htmls)); err != nil {
		return nil, fmt.Errorf("failed to list feed elements: %w", err)
	}
	elements := make([]types.Element, 0, len(htmls))
	for _, h := range htmls {
		elements = append(elements, types.Element{HTML: h})
	}
	return elements, nil
}

func (b *Browser) ready(ctx context.Context) error {
	if b.tabContext == nil {
		return ErrNotOpened
	}
	return ctx.Err()
}

// Cancel closes the tab and the browser.
func (b *Browser) Cancel() {
	if b.cancelTab != nil {
		b.cancelTab()
	}
	b.cancelAlloc()
}
