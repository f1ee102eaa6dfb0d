// Package storage provides JSON and text file persistence for the fetch jobs.
//
// A Storage is rooted at one directory. The my-events job keeps its Go Out auth
// payload there (token.txt and cookies.json, both readable by the owner only), and
// every job can write its records as events_<job>.json with the retrieval time and
// the record count.
package storage
