package fetcher

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	getbookRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookfetch_getbook_requests",
		Help:    "Histogram of /getbook requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"code", "method"})

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookfetch_fetches_total",
		Help: "The total number of settled fetches by outcome",
	}, []string{"outcome"})

	fetchesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookfetch_fetches_discarded_total",
		Help: "The total number of results dropped because the fetcher was unmounted",
	})
)

func outcomeLabel(err *FetchError) string {
	switch {
	case err == nil:
		return "loaded"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrServer):
		return "server_error"
	case errors.Is(err, ErrParse):
		return "parse_error"
	default:
		return "network_error"
	}
}
