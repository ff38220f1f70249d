package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "beanbook"

// PrometheusRecorder implements Recorder on a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	brewsCreated        prometheus.Counter
	brewsDeleted        prometheus.Counter
	bagsCreated         prometheus.Counter
	favoritesToggled    *prometheus.CounterVec
	imagesUploaded      *prometheus.CounterVec
	creatorCache        *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
	eventsProcessed     *prometheus.CounterVec
	eventQueueDepth     prometheus.Gauge
	notifications       *prometheus.CounterVec
	realtimeSubscribers prometheus.Gauge
}

// NewPrometheus creates a recorder with process and Go runtime collectors registered.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		brewsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brews_created_total",
			Help:      "Brews logged.",
		}),
		brewsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brews_deleted_total",
			Help:      "Brews deleted.",
		}),
		bagsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bags_created_total",
			Help:      "Coffee bags logged.",
		}),
		favoritesToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "favorites_toggled_total",
			Help:      "Favorite toggles by direction.",
		}, []string{"direction"}),
		imagesUploaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_uploaded_total",
			Help:      "Images stored by kind.",
		}, []string{"kind"}),
		creatorCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "creator_cache_lookups_total",
			Help:      "Creator-name cache lookups by result.",
		}, []string{"result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Brew update events published to the change feed.",
		}, []string{"status"}),
		eventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "processed_total",
			Help:      "Brew update events consumed from the change feed.",
		}, []string{"status"}),
		eventQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "queue_depth",
			Help:      "Pending change-feed messages.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "push",
			Name:      "notifications_total",
			Help:      "Push notifications by kind and outcome.",
		}, []string{"kind", "status"}),
		realtimeSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "subscriptions",
			Help:      "Active live listener subscriptions.",
		}),
	}

	p.registry.MustRegister(
		p.httpRequests,
		p.httpDuration,
		p.brewsCreated,
		p.brewsDeleted,
		p.bagsCreated,
		p.favoritesToggled,
		p.imagesUploaded,
		p.creatorCache,
		p.eventsPublished,
		p.eventsProcessed,
		p.eventQueueDepth,
		p.notifications,
		p.realtimeSubscribers,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return p
}

// Handler exposes the registry in Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncBrewCreated() {
	p.brewsCreated.Inc()
}

func (p *PrometheusRecorder) IncBrewDeleted() {
	p.brewsDeleted.Inc()
}

func (p *PrometheusRecorder) IncBagCreated() {
	p.bagsCreated.Inc()
}

func (p *PrometheusRecorder) IncFavoriteToggled(added bool) {
	direction := "removed"
	if added {
		direction = "added"
	}
	p.favoritesToggled.WithLabelValues(direction).Inc()
}

func (p *PrometheusRecorder) IncImageUploaded(kind string) {
	p.imagesUploaded.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncCreatorCacheHit() {
	p.creatorCache.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncCreatorCacheMiss() {
	p.creatorCache.WithLabelValues("miss").Inc()
}

func (p *PrometheusRecorder) IncEventPublished(status string) {
	p.eventsPublished.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncEventProcessed(status string) {
	p.eventsProcessed.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) SetEventQueueDepth(depth int64) {
	p.eventQueueDepth.Set(float64(depth))
}

func (p *PrometheusRecorder) IncNotification(kind, status string) {
	p.notifications.WithLabelValues(kind, status).Inc()
}

func (p *PrometheusRecorder) AddRealtimeSubscribers(delta int) {
	p.realtimeSubscribers.Add(float64(delta))
}
