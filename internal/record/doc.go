// Package record provides the normalized event record handed to the Parties247 backend.
//
// Each record pairs an event URL with the carousel (job) title it was collected for.
// Records are built from ordered URL lists and several lists can be merged into one
// collection while keeping job order.
package record
