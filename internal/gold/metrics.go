package gold

import "github.com/prometheus/client_golang/prometheus"

type CacheMetrics struct {
	Hits      prometheus.Counter
	Refreshes *prometheus.CounterVec
	Coalesced prometheus.Counter
	SpotPrice prometheus.Gauge
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goldcatalog",
			Subsystem: "spot_cache",
			Name:      "hits_total",
			Help:      "Spot price lookups answered from the cache",
		}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "goldcatalog",
			Subsystem: "spot_cache",
			Name:      "refreshes_total",
			Help:      "Upstream refreshes by outcome",
		}, []string{"result"}),
		Coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "goldcatalog",
			Subsystem: "spot_cache",
			Name:      "coalesced_total",
			Help:      "Lookups that shared another caller's refresh",
		}),
		SpotPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "goldcatalog",
			Name:      "spot_price_per_gram",
			Help:      "Last spot price stored in the cache",
		}),
	}
	reg.MustRegister(m.Hits, m.Refreshes, m.Coalesced, m.SpotPrice)
	return m
}

func (m *CacheMetrics) hit() {
	if m != nil {
		m.Hits.Inc()
	}
}

func (m *CacheMetrics) coalesced() {
	if m != nil {
		m.Coalesced.Inc()
	}
}

func (m *CacheMetrics) refreshed(p Price, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Refreshes.WithLabelValues("error").Inc()
		return
	}
	m.Refreshes.WithLabelValues("ok").Inc()
	m.SpotPrice.Set(p.PerGram)
}
