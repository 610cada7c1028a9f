package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector метрики просмотрщика расписания
type Collector struct {
	feedLoads       *prometheus.CounterVec
	entriesLoaded   prometheus.Gauge
	layoutPasses    *prometheus.CounterVec
	layoutFailures  prometheus.Counter
	filterRuns      *prometheus.CounterVec
	exports         *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	gatherer        prometheus.Gatherer
}

// NewCollector регистрирует метрики в reg. Если reg == nil, используется
// реестр по умолчанию. Уже зарегистрированные коллекторы переиспользуются.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		feedLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_feed_loads_total",
			Help: "Feed load attempts by source and result",
		}, []string{"source", "result"}),
		entriesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schedule_entries_loaded",
			Help: "Number of schedule entries in the current session",
		}),
		layoutPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_layout_passes_total",
			Help: "Layout passes by mode",
		}, []string{"mode"}),
		layoutFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedule_layout_failures_total",
			Help: "Layout passes skipped after a failure",
		}),
		filterRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_filter_evaluations_total",
			Help: "Filter chain evaluations by number of clauses",
		}, []string{"clauses"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_exports_total",
			Help: "Exports by format and result",
		}, []string{"format", "result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schedule_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	var err error
	if c.feedLoads, err = register(reg, c.feedLoads); err != nil {
		return nil, err
	}
	if c.entriesLoaded, err = register(reg, c.entriesLoaded); err != nil {
		return nil, err
	}
	if c.layoutPasses, err = register(reg, c.layoutPasses); err != nil {
		return nil, err
	}
	if c.layoutFailures, err = register(reg, c.layoutFailures); err != nil {
		return nil, err
	}
	if c.filterRuns, err = register(reg, c.filterRuns); err != nil {
		return nil, err
	}
	if c.exports, err = register(reg, c.exports); err != nil {
		return nil, err
	}
	if c.requests, err = register(reg, c.requests); err != nil {
		return nil, err
	}
	if c.requestDuration, err = register(reg, c.requestDuration); err != nil {
		return nil, err
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	} else {
		c.gatherer = prometheus.DefaultGatherer
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}

// Handler отдаёт метрики в формате Prometheus
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) FeedLoaded(source string, entries int) {
	c.feedLoads.WithLabelValues(source, "ok").Inc()
	c.entriesLoaded.Set(float64(entries))
}

func (c *Collector) FeedFailed(source string) {
	c.feedLoads.WithLabelValues(source, "error").Inc()
}

func (c *Collector) LayoutPass(allDays bool) {
	mode := "day"
	if allDays {
		mode = "all"
	}
	c.layoutPasses.WithLabelValues(mode).Inc()
}

func (c *Collector) LayoutFailed() {
	c.layoutFailures.Inc()
}

func (c *Collector) FilterEvaluated(clauses int) {
	c.filterRuns.WithLabelValues(strconv.Itoa(clauses)).Inc()
}

func (c *Collector) Exported(format string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.exports.WithLabelValues(format, result).Inc()
}

func (c *Collector) Request(method, route string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
