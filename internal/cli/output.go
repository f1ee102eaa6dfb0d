package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/parties247/party-fetcher/internal/record"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	RunID       string               `json:"run_id"`
	CompletedAt time.Time            `json:"completed_at"`
	Jobs        []string             `json:"jobs"`
	Count       int                  `json:"count"`
	Events      []record.EventRecord `json:"events"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Events == nil {
		result.Events = []record.EventRecord{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results grouped by job, in the order the jobs ran
func writeText(w io.Writer, result *OutputResult) error {
	if result.Count == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	byJob := make(map[string][]record.EventRecord)
	order := append([]string(nil), result.Jobs...)
	for _, r := range result.Events {
		if _, ok := byJob[r.Title]; !ok && !contains(order, r.Title) {
			order = append(order, r.Title)
		}
		byJob[r.Title] = append(byJob[r.Title], r)
	}

	groups := 0
	for _, job := range order {
		events := byJob[job]
		if len(events) == 0 {
			continue
		}
		groups++
		fmt.Fprintf(w, "\n%s (%d events):\n", job, len(events))
		for _, evt := range events {
			fmt.Fprintf(w, "  %s\n", evt.URL)
		}
	}
	fmt.Fprintf(w, "\nTotal: %d events across %d jobs\n", result.Count, groups)

	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
