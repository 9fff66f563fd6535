package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal  *prometheus.CounterVec
	votesTotal         prometheus.Counter
	voteOptionsTotal   *prometheus.CounterVec
	tokenFailuresTotal *prometheus.CounterVec
	registerOnce       sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pollguard",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the poll API.",
		}, []string{"method", "path", "status"})

		votesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "pollguard",
			Name:      "votes_total",
			Help:      "Votes accepted by the vote ledger.",
		})

		voteOptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pollguard",
			Name:      "vote_events_total",
			Help:      "Vote events processed by the stats worker, per option index.",
		}, []string{"option"})

		tokenFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pollguard",
			Name:      "csrf_failures_total",
			Help:      "Rejected anti-forgery tokens per operation.",
		}, []string{"op"})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func IncVote() {
	if votesTotal == nil {
		return
	}
	votesTotal.Inc()
}

func IncVoteEvent(optionIndex int) {
	if voteOptionsTotal == nil {
		return
	}
	voteOptionsTotal.WithLabelValues(strconv.Itoa(optionIndex)).Inc()
}

func IncTokenFailure(op string) {
	if tokenFailuresTotal == nil {
		return
	}
	tokenFailuresTotal.WithLabelValues(op).Inc()
}
