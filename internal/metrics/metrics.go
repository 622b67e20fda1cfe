// Package metrics exposes Prometheus collectors for the harvester.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequests tracks the number of collection API requests dispatched.
	APIRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_api_requests_total",
		Help: "The total number of collection API requests sent.",
	})
	// APIRetries tracks the number of retried API requests.
	APIRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_api_retries_total",
		Help: "The total number of API requests retried after a transient status.",
	})
	// RateLimitHits tracks the number of HTTP 429 responses from the API.
	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_rate_limit_hits_total",
		Help: "The total number of times the API rate limited the harvester.",
	})
	// Documents tracks the number of granule documents downloaded.
	Documents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_documents_total",
		Help: "The total number of granule documents downloaded.",
	})
	// Speeches tracks the number of speech records written.
	Speeches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_speeches_total",
		Help: "The total number of speech records written to the sink.",
	})
	// GranuleErrors tracks granules skipped because of a resolution error.
	GranuleErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_granule_errors_total",
		Help: "The total number of granules skipped after a resolution error.",
	})
)
