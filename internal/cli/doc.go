// Package cli implements the command-line interface for party-fetcher.
//
// The cli package provides the Cobra-based CLI that runs the nightlife, weekend and
// my_events jobs, alone or in sequence, and reports the merged event records as text
// or JSON. It wires configuration, logging, metrics and the backend (or its dry-run
// stand-in) before handing control to the jobs package.
package cli
