package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalPagesFetched tracks pages fetched and parsed successfully.
	TotalPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawlkit_pages_fetched_total",
		Help: "The total number of pages fetched and parsed successfully.",
	})
	// TotalFetchErrors tracks fetch attempts that ended in error.
	TotalFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawlkit_fetch_errors_total",
		Help: "The total number of failed fetch attempts.",
	})
	// TotalDuplicatesSkipped tracks pages skipped as content duplicates.
	TotalDuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawlkit_duplicates_skipped_total",
		Help: "The total number of pages whose content fingerprint was already stored.",
	})
	// TotalLinksDiscovered tracks links accepted into the frontier.
	TotalLinksDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawlkit_links_discovered_total",
		Help: "The total number of discovered links accepted into the frontier.",
	})
	// TotalBatchesDispatched tracks dispatched worker cohorts.
	TotalBatchesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawlkit_batches_dispatched_total",
		Help: "The total number of worker batches dispatched.",
	})
)
