// Package backend talks to the Parties247 admin API.
//
// A Client logs in with the admin password, keeps the bearer token for its lifetime
// and uses it to import carousel URLs and to add individual parties. A 401 on an
// authenticated call clears the token, logs in again and retries the call once.
//
// A 409 from the add-party endpoint means the party already exists and is reported
// as a normal result, as is any other non-2xx answer from that endpoint. The import
// endpoint treats every non-2xx answer as an error.
package backend
