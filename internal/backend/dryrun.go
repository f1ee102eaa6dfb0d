package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// DryRun prints what would be sent to the backend without making any request
type DryRun struct {
	out io.Writer
}

// NewDryRun creates a dry-run stand-in writing to out (stdout when nil)
func NewDryRun(out io.Writer) *DryRun {
	if out == nil {
		out = os.Stdout
	}
	return &DryRun{out: out}
}

// ImportCarouselURLs prints the carousel import that would be posted
func (d *DryRun) ImportCarouselURLs(ctx context.Context, carouselName, referral string, urls []string) (map[string]any, error) {
	if carouselName == "" {
		return nil, validationError("carousel name must be provided")
	}

	fmt.Fprintf(d.out, "--- Carousel %s (%d URLs", carouselName, len(urls))
	if referral != "" {
		fmt.Fprintf(d.out, ", referral %s", referral)
	}
	fmt.Fprintln(d.out, ") ---")
	for i, url := range urls {
		fmt.Fprintf(d.out, "%d. %s\n", i+1, url)
	}
	fmt.Fprintln(d.out)

	return map[string]any{"carouselName": carouselName, "count": len(urls), "dry_run": true}, nil
}

// AddPartyURLs prints every party that would be added
func (d *DryRun) AddPartyURLs(ctx context.Context, urls []string) ([]PartyResult, error) {
	results := make([]PartyResult, 0, len(urls))
	for i, url := range urls {
		if url == "" {
			return results, validationError("url must be provided")
		}
		fmt.Fprintf(d.out, "--- Party %d/%d ---\n%s\n\n", i+1, len(urls), url)
		results = append(results, PartyResult{URL: url, StatusCode: http.StatusOK, Detail: "dry run"})
	}
	return results, nil
}
