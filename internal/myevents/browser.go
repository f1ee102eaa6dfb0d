package myevents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/parties247/party-fetcher/internal/logger"
)

const (
	tokenCookieName      = "token"
	localStorageTokenKey = "authToken"
)

// BrowserCookieSource loads the Go Out site in headless Chrome with the token installed
// and reads back the cookies the site sets for it.
type BrowserCookieSource struct {
	siteURL string
	timeout time.Duration
}

// NewBrowserCookieSource creates a cookie source for siteURL
func NewBrowserCookieSource(siteURL string, timeout time.Duration) *BrowserCookieSource {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &BrowserCookieSource{siteURL: siteURL, timeout: timeout}
}

// Cookies implements CookieSource
func (b *BrowserCookieSource) Cookies(ctx context.Context, token string) (map[string]string, error) {
	allocatorContext, allocatorCancel := chromedp.NewExecAllocator(
		ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.NoSandbox,
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer allocatorCancel()

	browserContext, browserCancel := chromedp.NewContext(allocatorContext)
	defer browserCancel()

	contextWithTimeout, contextCancel := context.WithTimeout(browserContext, b.timeout)
	defer contextCancel()

	script, err := setItemScript(localStorageTokenKey, token)
	if err != nil {
		return nil, err
	}

	var raw []*network.Cookie
	runError := chromedp.Run(
		contextWithTimeout,
		chromedp.Navigate(b.siteURL),
		// The three steps below are best effort; the cookies are read either way
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := network.SetCookie(tokenCookieName, token).WithURL(b.siteURL).Do(ctx); err != nil {
				logger.Debug("Unable to set token cookie", logger.Fields{"error": err.Error()})
			}
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := chromedp.Evaluate(script, nil).Do(ctx); err != nil {
				logger.Debug("Unable to store token in localStorage", logger.Fields{"error": err.Error()})
			}
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := chromedp.Reload().Do(ctx); err != nil {
				logger.Debug("Unable to reload page after installing token", logger.Fields{"error": err.Error()})
			}
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			cookies, err := network.GetCookies().Do(ctx)
			if err != nil {
				return err
			}
			raw = cookies
			return nil
		}),
	)
	if runError != nil {
		return nil, fmt.Errorf("running browser: %w", runError)
	}

	return cookieMap(raw), nil
}

// cookieMap keeps the named cookies, last one wins on duplicates
func cookieMap(cookies []*network.Cookie) map[string]string {
	out := make(map[string]string, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		out[c.Name] = c.Value
	}
	return out
}

// setItemScript builds a localStorage.setItem call with both arguments JSON-quoted
func setItemScript(key, value string) (string, error) {
	k, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("window.localStorage.setItem(%s, %s);", k, v), nil
}
