// Package goout fetches public event listings from the Go Out site.
//
// The JSON API is tried first; when it fails, answers garbage or returns no events
// the fetcher scrapes the matching public HTML page for /event/<slug> links instead.
// Both paths produce the same output: an ordered, de-duplicated list of public event
// URLs, optionally tagged with an affiliate (aff) query parameter.
//
// Raw API events are loosely shaped maps whose identifying field varies between
// Url, url, slug, Slug, _id and id; ExtractSlug normalizes them.
package goout
