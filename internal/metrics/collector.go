package metrics

import (
	"net/http"

	"menu-spinner/internal/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shopping list sources reported to ObserveShoppingList.
const (
	SourceAI       = "ai"
	SourceFallback = "fallback"
	SourceCache    = "cache"
)

// Collector exposes menu activity as Prometheus metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	spins         prometheus.Counter
	replacements  prometheus.Counter
	lockToggles   prometheus.Counter
	shoppingLists *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	llmTokens     *prometheus.CounterVec
	catalogItems  prometheus.Gauge
}

// NewCollector registers the menu metrics plus the Go runtime collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		spins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "menu_spins_total",
			Help: "Number of menu randomizations",
		}),
		replacements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "menu_replacements_total",
			Help: "Number of single-slot replacements that changed the menu",
		}),
		lockToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "menu_lock_toggles_total",
			Help: "Number of lock toggles",
		}),
		shoppingLists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menu_shopping_lists_total",
			Help: "Shopping lists produced, by source",
		}, []string{"source"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "menu_llm_request_duration_seconds",
			Help:    "Latency of generative model calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"agent"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "menu_llm_tokens_total",
			Help: "Tokens consumed by generative model calls",
		}, []string{"agent", "kind"}),
		catalogItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "menu_catalog_items",
			Help: "Number of items in the food catalog",
		}),
	}

	c.registry.MustRegister(
		c.spins, c.replacements, c.lockToggles,
		c.shoppingLists, c.llmLatency, c.llmTokens, c.catalogItems,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) ObserveSpin()    { c.spins.Inc() }
func (c *Collector) ObserveReplace() { c.replacements.Inc() }
func (c *Collector) ObserveLock()    { c.lockToggles.Inc() }

// ObserveShoppingList counts a produced list by source (ai, fallback, cache).
func (c *Collector) ObserveShoppingList(source string) {
	c.shoppingLists.WithLabelValues(source).Inc()
}

// ObserveAgent records latency and token usage of one model call.
func (c *Collector) ObserveAgent(meta shared.AgentMeta) {
	if meta.Latency > 0 {
		c.llmLatency.WithLabelValues(meta.AgentName).Observe(meta.Latency.Seconds())
	}
	c.llmTokens.WithLabelValues(meta.AgentName, "prompt").Add(float64(meta.Usage.PromptTokens))
	c.llmTokens.WithLabelValues(meta.AgentName, "completion").Add(float64(meta.Usage.CompletionTokens))
}

// SetCatalogSize reports the current catalog size.
func (c *Collector) SetCatalogSize(n int) {
	c.catalogItems.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
