package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics captures request and claim counters.
type Metrics interface {
	ObserveRequest(method, path string, status int)
	IncClaim(outcome string)
	IncFeedRefresh()
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) ObserveRequest(string, string, int) {}
func (Noop) IncClaim(string)                    {}
func (Noop) IncFeedRefresh()                    {}

// Prom implements Metrics backed by Prometheus counters.
type Prom struct {
	requests      *prometheus.CounterVec
	requestErrors *prometheus.CounterVec
	claims        *prometheus.CounterVec
	feedRefreshes prometheus.Counter
	once          sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests by method and path",
		}, []string{"method", "path"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "HTTP responses with status >= 400 by path",
		}, []string{"path"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pack_claims_total",
			Help:      "Pack claim calls by outcome (claimed or empty)",
		}, []string{"outcome"}),
		feedRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_refreshes_total",
			Help:      "Notification feed refetches triggered by change signals",
		}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.requests, p.requestErrors, p.claims, p.feedRefreshes)
	})
}

func (p *Prom) ObserveRequest(method, path string, status int) {
	p.requests.WithLabelValues(method, path).Inc()
	if status >= 400 {
		p.requestErrors.WithLabelValues(path).Inc()
	}
}

func (p *Prom) IncClaim(outcome string) {
	p.claims.WithLabelValues(outcome).Inc()
}

func (p *Prom) IncFeedRefresh() {
	p.feedRefreshes.Inc()
}
