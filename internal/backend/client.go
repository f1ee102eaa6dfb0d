package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/sling"
	"github.com/parties247/party-fetcher/internal/config"
	"github.com/parties247/party-fetcher/internal/logger"
	"github.com/parties247/party-fetcher/internal/metrics"
)

const (
	LoginEndpoint    = "/api/admin/login"
	ImportEndpoint   = "/api/admin/import/carousel-urls"
	AddPartyEndpoint = "/api/admin/add-party"

	detailAlreadyAdded = "Party already added"
	detailAdded        = "Party added successfully"

	maxDetailLength = 200
)

// errUnauthorized marks a 401 on an authenticated call so the call is retried once
var errUnauthorized = errors.New("backend token rejected")

// Client is a Parties247 admin API client. It is not safe for concurrent use.
type Client struct {
	baseURL    string
	envFile    string
	token      string
	httpClient *http.Client
}

// PartyResult is the outcome of adding one party URL
type PartyResult struct {
	URL        string         `json:"url"`
	StatusCode int            `json:"status_code"`
	Detail     string         `json:"detail"`
	Payload    map[string]any `json:"payload,omitempty"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type importRequest struct {
	CarouselName string   `json:"carouselName"`
	Referral     *string  `json:"referral"`
	URLs         []string `json:"urls"`
}

type addPartyRequest struct {
	URL string `json:"url"`
}

type response struct {
	statusCode int
	body       []byte
}

// NewClient creates a backend client. No request is made until the first call.
func NewClient(cfg config.Backend) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		envFile: cfg.EnvFile,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Login exchanges the admin password for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context) (string, error) {
	password, err := AdminPassword(c.envFile)
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, LoginEndpoint, loginRequest{Password: password}, "")
	if err != nil {
		return "", err
	}
	if resp.statusCode == http.StatusUnauthorized {
		return "", ErrInvalidPassword
	}
	if !isSuccess(resp.statusCode) {
		return "", &HTTPError{Endpoint: LoginEndpoint, StatusCode: resp.statusCode, Detail: detailFromBody(resp.body)}
	}

	var data map[string]any
	if err := json.Unmarshal(resp.body, &data); err != nil {
		return "", &BackendError{Endpoint: LoginEndpoint, Err: fmt.Errorf("parsing response: %w", err)}
	}
	token := stringValue(data["token"])
	if token == "" {
		return "", &AuthenticationError{Reason: "login response missing token"}
	}

	c.token = token
	logger.Debug("Authenticated with Parties247 backend", nil)
	return token, nil
}

// ImportCarouselURLs replaces the contents of a carousel with urls.
// An empty referral is sent as null.
func (c *Client) ImportCarouselURLs(ctx context.Context, carouselName, referral string, urls []string) (map[string]any, error) {
	if carouselName == "" {
		return nil, validationError("carousel name must be provided")
	}

	body := importRequest{
		CarouselName: carouselName,
		URLs:         urls,
	}
	if body.URLs == nil {
		body.URLs = []string{}
	}
	if referral != "" {
		body.Referral = &referral
	}

	resp, err := c.postAuthorized(ctx, ImportEndpoint, body)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.statusCode) {
		return nil, &HTTPError{Endpoint: ImportEndpoint, StatusCode: resp.statusCode, Detail: detailFromBody(resp.body)}
	}

	var result map[string]any
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, &BackendError{Endpoint: ImportEndpoint, Err: fmt.Errorf("parsing response: %w", err)}
	}

	logger.Info("Imported carousel URLs", logger.Fields{"carousel": carouselName, "count": len(urls)})
	return result, nil
}

// AddPartyURL submits one event URL. Rejections by the backend are part of the
// result; only transport, authentication and malformed-success failures are errors.
func (c *Client) AddPartyURL(ctx context.Context, url string) (PartyResult, error) {
	if url == "" {
		return PartyResult{}, validationError("url must be provided")
	}

	resp, err := c.postAuthorized(ctx, AddPartyEndpoint, addPartyRequest{URL: url})
	if err != nil {
		return PartyResult{}, err
	}

	result := PartyResult{URL: url, StatusCode: resp.statusCode}

	switch {
	case resp.statusCode == http.StatusConflict:
		result.Payload = objectOrEmpty(resp.body)
		result.Detail = detailOr(result.Payload, detailAlreadyAdded)
		logger.Info("Backend reported existing party", logger.Fields{"url": url, "detail": result.Detail})

	case !isSuccess(resp.statusCode):
		result.Payload = objectOrEmpty(resp.body)
		result.Detail = detailOr(result.Payload, fmt.Sprintf("%d %s", resp.statusCode, http.StatusText(resp.statusCode)))
		logger.Error("Failed to add party URL", logger.Fields{"url": url, "status": resp.statusCode},
			errors.New(result.Detail))

	default:
		var payload any
		if err := json.Unmarshal(resp.body, &payload); err != nil {
			return PartyResult{}, &BackendError{Endpoint: AddPartyEndpoint, Err: fmt.Errorf("parsing response: %w", err)}
		}
		obj, ok := payload.(map[string]any)
		if !ok {
			obj = map[string]any{"data": payload}
		}
		result.Payload = obj
		result.Detail = detailOr(obj, detailAdded)
	}

	return result, nil
}

// AddPartyURLs submits urls one by one and logs a single status summary.
// Results keep the order of urls.
func (c *Client) AddPartyURLs(ctx context.Context, urls []string) ([]PartyResult, error) {
	results := make([]PartyResult, 0, len(urls))
	for _, url := range urls {
		result, err := c.AddPartyURL(ctx, url)
		if err != nil {
			return results, fmt.Errorf("adding %s: %w", url, err)
		}
		results = append(results, result)
	}

	if len(results) > 0 {
		logger.Info("Party add statuses: "+SummarizeResults(results), logger.Fields{"count": len(results)})
	}
	return results, nil
}

// SummarizeResults renders results as "url: status - detail; ..."
func SummarizeResults(results []PartyResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		line := fmt.Sprintf("%s: %d", r.URL, r.StatusCode)
		if r.Detail != "" {
			line += " - " + r.Detail
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "; ")
}

// postAuthorized posts with the bearer token, logging in first when there is none.
// A 401 clears the token and the request is sent once more with a fresh one; a second
// 401 is handed back to the caller like any other status.
func (c *Client) postAuthorized(ctx context.Context, endpoint string, body any) (*response, error) {
	var (
		resp    *response
		attempt int
	)

	operation := func() error {
		attempt++
		if attempt > 1 {
			logger.Info("Backend token expired, re-authenticating", logger.Fields{"endpoint": endpoint})
			metrics.Reauth("backend")
			c.token = ""
		}

		if c.token == "" {
			if _, err := c.Login(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}

		r, err := c.post(ctx, endpoint, body, c.token)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp = r

		if r.statusCode == http.StatusUnauthorized && attempt == 1 {
			return errUnauthorized
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1), ctx)
	if err := backoff.Retry(operation, policy); err != nil && !errors.Is(err, errUnauthorized) {
		return nil, err
	}
	return resp, nil
}

// post sends a JSON body and reads the whole response
func (c *Client) post(ctx context.Context, endpoint string, body any, token string) (*response, error) {
	builder := sling.New().Post(c.baseURL + endpoint).BodyJSON(body)
	if token != "" {
		builder = builder.Set("Authorization", "Bearer "+token)
	}

	req, err := builder.Request()
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("sending request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", endpoint, err)
	}

	metrics.BackendResponse(endpoint, resp.StatusCode)
	return &response{statusCode: resp.StatusCode, body: data}, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}

// objectOrEmpty decodes body as a JSON object, or returns an empty one
func objectOrEmpty(body []byte) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

func detailOr(payload map[string]any, fallback string) string {
	if detail := stringValue(payload["detail"]); detail != "" {
		return detail
	}
	return fallback
}

func detailFromBody(body []byte) string {
	if detail := stringValue(objectOrEmpty(body)["detail"]); detail != "" {
		return detail
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxDetailLength {
		text = text[:maxDetailLength]
	}
	return text
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
