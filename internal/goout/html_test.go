package goout

import (
	"reflect"
	"testing"
)

func TestExtractSlugsFromHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			name: "anchor href",
			html: `<a href='/event/from-html'></a>`,
			want: []string{"from-html"},
		},
		{
			name: "absolute links and duplicates",
			html: `
				<html><body>
					<a href="https://www.go-out.co/event/first-party?aff=x">First</a>
					<a href="/event/second-party">Second</a>
					<a href="/event/first-party">First again</a>
				</body></html>`,
			want: []string{"first-party", "second-party"},
		},
		{
			name: "inline script state",
			html: `<div id="root"></div><script>window.__STATE__={"u":"/event/from-script"}</script>`,
			want: []string{"from-script"},
		},
		{
			name: "document order across attributes and text",
			html: `<div data-link="/event/a1"><p>see /event/b2</p><img src="/event/c3"></div>`,
			want: []string{"a1", "b2", "c3"},
		},
		{
			name: "slug stops at disallowed characters",
			html: `<a href="/event/neon_night">x</a>`,
			want: []string{"neon"},
		},
		{
			name: "entities are not decoded",
			html: `<a href="/event/foo&#45;bar">x</a>`,
			want: []string{"foo"},
		},
		{
			name: "source order kept for misplaced table text",
			html: `<table><tr><td><a href="/event/first"></a></td></tr>/event/second</table>`,
			want: []string{"first", "second"},
		},
		{
			name: "no events",
			html: `<html><body><p>Nothing tonight</p><a href="/events">list</a></body></html>`,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSlugsFromHTML([]byte(tt.html))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractSlugsFromHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"title", `<html><head><title>  Go Out | Nightlife </title></head></html>`, "Go Out | Nightlife"},
		{"first title wins", `<title>One</title><title>Two</title>`, "One"},
		{"no title", `<p>hello</p>`, ""},
		{"empty page", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PageTitle([]byte(tt.html)); got != tt.want {
				t.Errorf("PageTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
