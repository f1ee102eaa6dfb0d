// Package jobs wires event sources to the Parties247 backend.
//
// The nightlife and weekend jobs import their URLs into the carousel of the same
// name. The my_events job adds every URL as an individual party. Each job returns
// the records it produced and, when given a Storage, writes them to
// events_<job>.json. RunAll runs jobs in order and merges their records.
package jobs
