package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.FetchSource("nightlife", "api")
	r.FetchSource("nightlife", "api")
	r.FetchSource("weekend", "html")
	r.BackendResponse("/api/admin/add-party", 409)
	r.Reauth("backend")
	r.Records("weekend", 7)

	if got := testutil.ToFloat64(r.fetchSource.WithLabelValues("nightlife", "api")); got != 2 {
		t.Errorf("fetch_total{nightlife,api} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.fetchSource.WithLabelValues("weekend", "html")); got != 1 {
		t.Errorf("fetch_total{weekend,html} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.backendResponses.WithLabelValues("/api/admin/add-party", "409")); got != 1 {
		t.Errorf("backend_responses_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.reauths.WithLabelValues("backend")); got != 1 {
		t.Errorf("reauthentications_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.records.WithLabelValues("weekend")); got != 7 {
		t.Errorf("records{weekend} = %v, want 7", got)
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.Records("nightlife", 3)

	path := filepath.Join(t.TempDir(), "party_fetcher.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), `party_fetcher_records{job="nightlife"} 3`) {
		t.Errorf("textfile missing records gauge:\n%s", data)
	}
}

func TestDefaultRecorder(t *testing.T) {
	previous := Default()
	r := New()
	SetDefault(r)
	defer SetDefault(previous)

	FetchSource("weekend", "api")
	BackendResponse("/api/admin/login", 200)
	Reauth("goout")
	Records("my_events", 2)

	if got := testutil.ToFloat64(r.fetchSource.WithLabelValues("weekend", "api")); got != 1 {
		t.Errorf("default FetchSource not recorded, got %v", got)
	}
	if got := testutil.ToFloat64(r.reauths.WithLabelValues("goout")); got != 1 {
		t.Errorf("default Reauth not recorded, got %v", got)
	}
}
