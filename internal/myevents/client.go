package myevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/sling"
	"github.com/parties247/party-fetcher/internal/config"
	"github.com/parties247/party-fetcher/internal/goout"
	"github.com/parties247/party-fetcher/internal/logger"
	"github.com/parties247/party-fetcher/internal/metrics"
	"github.com/parties247/party-fetcher/internal/storage"
)

const (
	// CarouselName titles the records of this job
	CarouselName = "my_events"

	// currentDateLayout is ISO 8601 with microseconds and a numeric offset
	currentDateLayout = "2006-01-02T15:04:05.000000-07:00"

	activeEventsFilter = `{"Title":"","activeEvents":true}`
	maxErrorBody       = 200
)

// Client fetches the account's events from the authenticated Go Out API
type Client struct {
	cfg        config.MyEvents
	store      *storage.Storage
	cookies    CookieSource
	httpClient *http.Client
	now        func() time.Time
}

// StatusError is a non-2xx answer from the events endpoint
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("my events request failed: status %d: %s", e.StatusCode, e.Body)
}

type eventsParams struct {
	Skip        int    `url:"skip"`
	Limit       int    `url:"limit"`
	Filter      string `url:"filter"`
	CurrentDate string `url:"currentDate"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewClient creates a client whose auth payload lives in store.
// cookies is only consulted when the payload has to be bootstrapped.
func NewClient(cfg config.MyEvents, store *storage.Storage, cookies CookieSource) *Client {
	return &Client{
		cfg:     cfg,
		store:   store,
		cookies: cookies,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		now: time.Now,
	}
}

// FetchEvents returns the decoded events response.
// A 401 renews the token from the environment and retries once with the stored cookies.
func (c *Client) FetchEvents(ctx context.Context) (map[string]any, error) {
	token, err := c.readToken(ctx)
	if err != nil {
		return nil, err
	}

	params := eventsParams{
		Skip:        0,
		Limit:       c.cfg.Limit,
		Filter:      activeEventsFilter,
		CurrentDate: c.now().UTC().Format(currentDateLayout),
	}

	status, body, err := c.getEvents(ctx, token, params, nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		logger.Info("Go Out token expired, attempting renewal", nil)
		token, err = c.RenewToken(ctx)
		if err != nil {
			return nil, err
		}
		cookies, err := c.readCookies(ctx)
		if err != nil {
			return nil, err
		}
		status, body, err = c.getEvents(ctx, token, params, cookies)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status > 299 {
		return nil, &StatusError{StatusCode: status, Body: truncate(string(body))}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding my events: %w", err)
	}
	return payload, nil
}

// RenewToken logs in with GOOUT_EMAIL and GOOUT_PASSWORD and stores the new token
func (c *Client) RenewToken(ctx context.Context) (string, error) {
	email, password, err := credentialsFromEnv()
	if err != nil {
		return "", err
	}

	req, err := sling.New().Post(c.cfg.LoginURL).BodyJSON(loginRequest{Username: email, Password: password}).Request()
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("logging in to go out: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AuthenticationError{Reason: fmt.Sprintf("login failed: %d %s", resp.StatusCode, truncate(string(body)))}
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}

	token := stringField(data, "token")
	if token == "" {
		token = stringField(data, "access_token")
	}
	if token == "" {
		return "", &AuthenticationError{Reason: "no token provided in authentication response"}
	}

	if err := c.store.WriteToken(token); err != nil {
		return "", fmt.Errorf("saving token: %w", err)
	}

	metrics.Reauth("goout")
	logger.Info("Renewed Go Out API token", nil)
	return token, nil
}

// EventURLs turns an events response into untagged public event URLs
func EventURLs(payload map[string]any, eventBaseURL string) []string {
	return goout.CollectEventURLs(goout.EventsFromPayload(payload), eventBaseURL, "")
}

func (c *Client) getEvents(ctx context.Context, token string, params eventsParams, cookies map[string]string) (int, []byte, error) {
	req, err := sling.New().Get(c.cfg.EventsURL).
		QueryStruct(params).
		Set("Authorization", "Bearer "+token).
		Set("Accept", "application/json").
		Set("Origin", strings.TrimRight(c.cfg.SiteURL, "/")).
		Request()
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return 0, nil, fmt.Errorf("fetching my events: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading my events: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) readToken(ctx context.Context) (string, error) {
	if err := EnsureAuthPayload(ctx, c.store, c.cookies); err != nil {
		return "", err
	}
	token, err := c.store.ReadToken()
	if err != nil {
		return "", &AuthenticationError{Reason: "authentication token file is missing"}
	}
	return token, nil
}

func (c *Client) readCookies(ctx context.Context) (map[string]string, error) {
	if err := EnsureAuthPayload(ctx, c.store, c.cookies); err != nil {
		return nil, err
	}
	cookies, err := c.store.ReadCookies()
	if err != nil {
		return nil, fmt.Errorf("loading cookies: %w", err)
	}
	return cookies, nil
}

func stringField(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
