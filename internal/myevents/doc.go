// Package myevents fetches the events owned by the configured Go Out account.
//
// The Go Out API token lives in an auth payload directory next to the browser cookies
// captured for it. When the payload is missing it is bootstrapped from GOOUT_TOKEN and
// a CookieSource; when the API rejects the token it is renewed with GOOUT_EMAIL and
// GOOUT_PASSWORD and the request is sent once more with the stored cookies.
package myevents
