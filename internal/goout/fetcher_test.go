package goout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parties247/party-fetcher/internal/config"
)

var fixedNow = time.Date(2026, 10, 17, 21, 30, 15, 123456789, time.UTC)

// newTestFetcher points a Fetcher at server for both the API and the HTML pages
func newTestFetcher(server *httptest.Server, referral string) *Fetcher {
	cfg := config.Default().GoOut
	cfg.BaseURL = server.URL
	cfg.Timeout = 5 * time.Second

	f := New(cfg, referral)
	f.now = func() time.Time { return fixedNow }
	return f
}

type fakeGoOut struct {
	apiCalls  atomic.Int32
	htmlCalls atomic.Int32
	api       http.HandlerFunc
	html      string
	lastBody  []byte
	lastQuery string
	lastUA    string
}

func (g *fakeGoOut) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/endOne/getEventsByTypeNew", "/endOne/getWeekendEvents":
			g.apiCalls.Add(1)
			g.lastBody, _ = io.ReadAll(r.Body)
			g.lastQuery = r.URL.RawQuery
			if got := r.Header.Get("Accept"); got != "application/json" {
				t.Errorf("Accept = %q, want application/json", got)
			}
			g.api(w, r)
		case "/tickets/nightlife", "/weekend":
			g.htmlCalls.Add(1)
			g.lastUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(g.html))
		default:
			t.Errorf("unexpected request path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestFetcher_PrefersAPIData(t *testing.T) {
	fake := &fakeGoOut{
		api:  jsonHandler(http.StatusOK, `{"events":[{"Url":"foo"}]}`),
		html: `<a href='/event/html-fallback'></a>`,
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	f := newTestFetcher(server, "abc")
	urls, err := f.FetchNightlifeEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchNightlifeEvents() error: %v", err)
	}

	want := []string{AppendAffiliate(server.URL+"/event/foo", "abc")}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("FetchNightlifeEvents() = %v, want %v", urls, want)
	}
	if got := fake.apiCalls.Load(); got != 1 {
		t.Errorf("API calls = %d, want 1", got)
	}
	if got := fake.htmlCalls.Load(); got != 0 {
		t.Errorf("HTML calls = %d, want 0", got)
	}
}

func TestFetcher_NightlifeRequestBody(t *testing.T) {
	fake := &fakeGoOut{api: jsonHandler(http.StatusOK, `{"events":[{"slug":"x"}]}`)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		fake.handler(t)(w, r)
	}))
	defer server.Close()

	if _, err := newTestFetcher(server, "").FetchNightlifeEvents(context.Background()); err != nil {
		t.Fatalf("FetchNightlifeEvents() error: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(fake.lastBody, &body); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if body["skip"] != float64(0) || body["limit"] != float64(50) || body["location"] != "IL" {
		t.Errorf("unexpected paging/location in body: %v", body)
	}
	if body["recivedDate"] != "2026-10-17T21:30:15+00:00" {
		t.Errorf("recivedDate = %v, want 2026-10-17T21:30:15+00:00", body["recivedDate"])
	}
	types, _ := body["Types"].([]any)
	if len(types) != 2 || types[0] != "תל אביב" || types[1] != "מועדוני לילה" {
		t.Errorf("Types = %v", body["Types"])
	}
}

func TestFetcher_WeekendQuery(t *testing.T) {
	fake := &fakeGoOut{api: jsonHandler(http.StatusOK, `{"events":[{"id":7}]}`)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/endOne/getWeekendEvents" && r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		fake.handler(t)(w, r)
	}))
	defer server.Close()

	urls, err := newTestFetcher(server, "").FetchWeekendEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchWeekendEvents() error: %v", err)
	}

	if !reflect.DeepEqual(urls, []string{server.URL + "/event/7"}) {
		t.Errorf("FetchWeekendEvents() = %v", urls)
	}
	want := "limit=50&location=IL&recivedDate=2026-10-17T21%3A30%3A15%2B00%3A00&skip=0"
	if fake.lastQuery != want {
		t.Errorf("query = %q, want %q", fake.lastQuery, want)
	}
}

func TestFetcher_FallsBackToHTML(t *testing.T) {
	tests := []struct {
		name string
		api  http.HandlerFunc
	}{
		{"invalid JSON", jsonHandler(http.StatusOK, `<html>not json</html>`)},
		{"server error", jsonHandler(http.StatusInternalServerError, `{"events":[{"Url":"ignored"}]}`)},
		{"empty events", jsonHandler(http.StatusOK, `{"events":[]}`)},
		{"missing events", jsonHandler(http.StatusOK, `{"status":"ok"}`)},
		{"top-level array", jsonHandler(http.StatusOK, `[{"Url":"ignored"}]`)},
		{"events without slugs", jsonHandler(http.StatusOK, `{"events":"nope"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeGoOut{
				api:  tt.api,
				html: `<a href='/event/from-html'></a><a href="/event/from-html"></a><a href="/event/second">x</a>`,
			}
			server := httptest.NewServer(fake.handler(t))
			defer server.Close()

			urls, err := newTestFetcher(server, "").FetchWeekendEvents(context.Background())
			if err != nil {
				t.Fatalf("FetchWeekendEvents() error: %v", err)
			}

			want := []string{server.URL + "/event/from-html", server.URL + "/event/second"}
			if !reflect.DeepEqual(urls, want) {
				t.Errorf("FetchWeekendEvents() = %v, want %v", urls, want)
			}
			if got := fake.apiCalls.Load(); got != 1 {
				t.Errorf("API calls = %d, want 1", got)
			}
			if got := fake.htmlCalls.Load(); got != 1 {
				t.Errorf("HTML calls = %d, want 1", got)
			}
			if fake.lastUA != "Mozilla/5.0" {
				t.Errorf("HTML User-Agent = %q, want Mozilla/5.0", fake.lastUA)
			}
		})
	}
}

func TestFetcher_EventListWithoutObjectsSkipsFallback(t *testing.T) {
	fake := &fakeGoOut{
		api:  jsonHandler(http.StatusOK, `{"events":[1,2]}`),
		html: `<a href="/event/from-html">x</a>`,
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	urls, err := newTestFetcher(server, "").FetchNightlifeEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchNightlifeEvents() error: %v", err)
	}
	if urls == nil || len(urls) != 0 {
		t.Errorf("FetchNightlifeEvents() = %#v, want empty slice", urls)
	}
	if got := fake.htmlCalls.Load(); got != 0 {
		t.Errorf("HTML calls = %d, want 0", got)
	}
}

func TestFetcher_HTMLFallbackScansRawPage(t *testing.T) {
	fake := &fakeGoOut{
		api:  jsonHandler(http.StatusOK, `{"events":[]}`),
		html: `<title>Weekend</title><table><tr><td><a href="/event/first"></a></td></tr>/event/second</table><a href="/event/x&#45;y">z</a>`,
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	urls, err := newTestFetcher(server, "").FetchWeekendEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchWeekendEvents() error: %v", err)
	}
	want := []string{server.URL + "/event/first", server.URL + "/event/second", server.URL + "/event/x"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("FetchWeekendEvents() = %v, want %v", urls, want)
	}
}

func TestFetcher_FallbackTagsLikeAPI(t *testing.T) {
	apiServer := httptest.NewServer((&fakeGoOut{
		api: jsonHandler(http.StatusOK, `{"events":[{"Url":"same-party"}]}`),
	}).handler(t))
	defer apiServer.Close()

	htmlServer := httptest.NewServer((&fakeGoOut{
		api:  jsonHandler(http.StatusOK, `garbage`),
		html: `<a href="/event/same-party">x</a>`,
	}).handler(t))
	defer htmlServer.Close()

	fromAPI, _ := newTestFetcher(apiServer, "ref").FetchNightlifeEvents(context.Background())
	fromHTML, _ := newTestFetcher(htmlServer, "ref").FetchNightlifeEvents(context.Background())

	if len(fromAPI) != 1 || len(fromHTML) != 1 {
		t.Fatalf("got %v and %v, want one URL each", fromAPI, fromHTML)
	}
	wantAPI := apiServer.URL + "/event/same-party?aff=ref"
	wantHTML := htmlServer.URL + "/event/same-party?aff=ref"
	if fromAPI[0] != wantAPI || fromHTML[0] != wantHTML {
		t.Errorf("API URL %q / HTML URL %q not tagged identically", fromAPI[0], fromHTML[0])
	}
}

func TestFetcher_TransportErrorFallsBack(t *testing.T) {
	htmlServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="/event/rescued">x</a>`))
	}))
	defer htmlServer.Close()

	f := newTestFetcher(htmlServer, "")
	// The API lives on a closed server; only the HTML page is reachable
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()
	f.client.Transport = rewriteAPIHost{target: closedURL, base: http.DefaultTransport}

	urls, err := f.FetchNightlifeEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchNightlifeEvents() error: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{htmlServer.URL + "/event/rescued"}) {
		t.Errorf("FetchNightlifeEvents() = %v", urls)
	}
}

// rewriteAPIHost sends API requests (POST/JSON) to target and everything else through
type rewriteAPIHost struct {
	target string
	base   http.RoundTripper
}

func (r rewriteAPIHost) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept") == "application/json" {
		clone := req.Clone(req.Context())
		u, _ := clone.URL.Parse(r.target + req.URL.Path)
		clone.URL = u
		clone.Host = u.Host
		return r.base.RoundTrip(clone)
	}
	return r.base.RoundTrip(req)
}

func TestFetcher_HTMLFailureReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	urls, err := newTestFetcher(server, "ref").FetchWeekendEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchWeekendEvents() error: %v", err)
	}
	if urls == nil || len(urls) != 0 {
		t.Errorf("FetchWeekendEvents() = %#v, want empty slice", urls)
	}
}

func TestFetcher_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events":[{"Url":"never"}]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestFetcher(server, "").FetchNightlifeEvents(ctx); err == nil {
		t.Error("FetchNightlifeEvents() expected error for canceled context")
	}
}

func TestNew(t *testing.T) {
	cfg := config.Default().GoOut
	f := New(cfg, "ref")

	if f.client == nil {
		t.Fatal("fetcher client is nil")
	}
	if f.client.Timeout != cfg.Timeout {
		t.Errorf("client timeout = %v, want %v", f.client.Timeout, cfg.Timeout)
	}
	if transport, ok := f.client.Transport.(*http.Transport); !ok || transport.Proxy != nil {
		t.Error("fetcher transport should bypass proxies")
	}
	if f.Referral() != "ref" {
		t.Errorf("Referral() = %q, want ref", f.Referral())
	}
}
