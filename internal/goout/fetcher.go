package goout

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
	"github.com/parties247/party-fetcher/internal/logger"
	"github.com/parties247/party-fetcher/internal/metrics"
)

const (
	CategoryNightlife = "nightlife"
	CategoryWeekend   = "weekend"

	nightlifeEndpoint = "getEventsByTypeNew"
	weekendEndpoint   = "getWeekendEvents"

	// TimestampLayout is ISO 8601 with a numeric offset, e.g. 2026-10-17T09:30:00+00:00
	TimestampLayout = "2006-01-02T15:04:05-07:00"
)

// Fetcher retrieves Go Out event URLs with a graceful HTML fallback
type Fetcher struct {
	cfg      config.GoOut
	referral string
	client   *http.Client
	now      func() time.Time
}

// nightlifeRequest is the JSON body of the events-by-type endpoint
type nightlifeRequest struct {
	Skip         int      `json:"skip"`
	Limit        int      `json:"limit"`
	Location     string   `json:"location"`
	Types        []string `json:"Types"`
	ReceivedDate string   `json:"recivedDate"`
}

// weekendParams is the query string of the weekend endpoint
type weekendParams struct {
	Limit        int    `url:"limit"`
	Skip         int    `url:"skip"`
	ReceivedDate string `url:"recivedDate"`
	Location     string `url:"location"`
}

// New creates a Fetcher. An empty referral leaves URLs untagged.
func New(cfg config.GoOut, referral string) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil

	return &Fetcher{
		cfg:      cfg,
		referral: referral,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		now: time.Now,
	}
}

// Referral returns the affiliate code URLs are tagged with
func (f *Fetcher) Referral() string {
	return f.referral
}

// FetchNightlifeEvents returns Tel Aviv nightlife event URLs.
// The only error is cancellation of ctx.
func (f *Fetcher) FetchNightlifeEvents(ctx context.Context) ([]string, error) {
	body := nightlifeRequest{
		Skip:         0,
		Limit:        f.cfg.Limit,
		Location:     f.cfg.Location,
		Types:        f.cfg.NightlifeTypes,
		ReceivedDate: f.timestamp(),
	}
	builder := sling.New().Post(f.cfg.APIBaseURL() + nightlifeEndpoint).BodyJSON(body)
	return f.fetchEvents(ctx, CategoryNightlife, builder, f.cfg.NightlifePage)
}

// FetchWeekendEvents returns this weekend's event URLs.
// The only error is cancellation of ctx.
func (f *Fetcher) FetchWeekendEvents(ctx context.Context) ([]string, error) {
	params := weekendParams{
		Limit:        f.cfg.Limit,
		Skip:         0,
		ReceivedDate: f.timestamp(),
		Location:     f.cfg.Location,
	}
	builder := sling.New().Get(f.cfg.APIBaseURL() + weekendEndpoint).QueryStruct(params)
	return f.fetchEvents(ctx, CategoryWeekend, builder, f.cfg.WeekendPage)
}

func (f *Fetcher) timestamp() string {
	return f.now().UTC().Truncate(time.Second).Format(TimestampLayout)
}

func (f *Fetcher) fetchEvents(ctx context.Context, category string, builder *sling.Sling, fallbackPath string) ([]string, error) {
	req, err := builder.
		Set("Accept", "application/json").
		Set("Content-Type", "application/json").
		Request()
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	logger.Info("Fetching Go Out events", logger.Fields{"category": category, "url": req.URL.String()})

	payload, err := f.fetchAPI(ctx, req)
	if err != nil {
		logger.Warn("Go Out API request failed, falling back to HTML", logger.Fields{
			"category": category,
			"error":    err.Error(),
		})
		return f.scrapeHTML(ctx, category, fallbackPath)
	}

	if !HasEventList(payload) {
		logger.Info("No events returned from API, attempting HTML fallback", logger.Fields{"category": category})
		return f.scrapeHTML(ctx, category, fallbackPath)
	}

	urls := CollectEventURLs(EventsFromPayload(payload), f.cfg.EventBaseURL(), f.referral)
	metrics.FetchSource(category, "api")
	logger.Info("Collected event URLs from API", logger.Fields{"category": category, "count": len(urls)})
	return urls, nil
}

// fetchAPI performs the API call and decodes the JSON object it returns
func (f *Fetcher) fetchAPI(ctx context.Context, req *http.Request) (map[string]any, error) {
	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload map[string]any
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	return payload, nil
}

// scrapeHTML is the fallback path. Failures are logged and produce no URLs.
func (f *Fetcher) scrapeHTML(ctx context.Context, category, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageURL := strings.TrimRight(f.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	logger.Info("Scraping Go Out events from HTML", logger.Fields{"category": category, "url": pageURL})

	page, err := f.fetchPage(ctx, pageURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Error("Failed to scrape Go Out HTML page", logger.Fields{"category": category, "url": pageURL}, err)
		return []string{}, nil
	}

	slugs := ExtractSlugsFromHTML(page)
	if len(slugs) == 0 {
		logger.Warn("No event links found on Go Out HTML page", logger.Fields{
			"category": category,
			"title":    PageTitle(page),
		})
	}

	base := f.cfg.EventBaseURL()
	urls := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		urls = append(urls, AppendAffiliate(base+slug, f.referral))
	}

	metrics.FetchSource(category, "html")
	logger.Info("Collected event URLs from HTML", logger.Fields{"category": category, "count": len(urls)})
	return urls, nil
}

// fetchPage returns the raw body of an HTML page
func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := sling.New().Get(pageURL).Set("User-Agent", f.cfg.UserAgent).Request()
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	page, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return page, nil
}
