package myevents

import (
	"context"
	"fmt"

	"github.com/parties247/party-fetcher/internal/logger"
	"github.com/parties247/party-fetcher/internal/storage"
)

// CookieSource produces the browser cookies that go with an API token
type CookieSource interface {
	Cookies(ctx context.Context, token string) (map[string]string, error)
}

// EnsureAuthPayload makes sure the payload directory holds a token and a cookie jar.
// It does nothing when both files exist. Otherwise the token comes from GOOUT_TOKEN
// and the cookies from source; an empty cookie jar is written with a warning.
func EnsureAuthPayload(ctx context.Context, store *storage.Storage, source CookieSource) error {
	if store.Exists(storage.TokenFile, storage.CookiesFile) {
		return nil
	}

	if err := store.Ensure(); err != nil {
		return err
	}

	token, err := tokenFromEnv()
	if err != nil {
		return err
	}
	if err := store.WriteToken(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	if source == nil {
		return &AuthenticationError{Reason: "no cookie source configured to bootstrap authentication"}
	}
	cookies, err := source.Cookies(ctx, token)
	if err != nil {
		return fmt.Errorf("fetching cookies: %w", err)
	}
	if len(cookies) == 0 {
		logger.Warn("No cookies were retrieved from the browser; authentication may fail", logger.Fields{
			"dir": store.Dir(),
		})
	}

	if err := store.WriteCookies(cookies); err != nil {
		return fmt.Errorf("saving cookies: %w", err)
	}

	logger.Info("Bootstrapped Go Out auth payload", logger.Fields{"dir": store.Dir(), "cookies": len(cookies)})
	return nil
}
