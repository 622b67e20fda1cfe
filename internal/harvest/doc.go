// Package harvest implements the run orchestrator and record pipeline: it
// walks packages and granules, resolves granule text, extracts speeches,
// and appends assembled records to the line-delimited sink.
package harvest
