package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shop"

// 注文とHTTPのメトリクス
type Metrics struct {
	ordersCreated   *prometheus.CounterVec
	ordersRejected  *prometheus.CounterVec
	ordersCancelled prometheus.Counter
	stockRestored   prometheus.Counter
	httpDuration    *prometheus.HistogramVec
}

// regがnilなら何も記録しない
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders created, by order type.",
		}, []string{"order_type"}),
		ordersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Order creations that failed, by reason.",
		}, []string{"reason"}),
		ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled by users or admins.",
		}),
		stockRestored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_restored_units_total",
			Help:      "Units returned to stock by cancellations.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.ordersCreated, m.ordersRejected, m.ordersCancelled, m.stockRestored, m.httpDuration)
	return m
}

func (m *Metrics) OrderCreated(orderType string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(orderType)).Inc()
}

func (m *Metrics) OrderRejected(reason string) {
	if m == nil || m.ordersRejected == nil {
		return
	}
	m.ordersRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *Metrics) OrderCancelled() {
	if m == nil || m.ordersCancelled == nil {
		return
	}
	m.ordersCancelled.Inc()
}

func (m *Metrics) StockRestored(qty int64) {
	if m == nil || m.stockRestored == nil || qty <= 0 {
		return
	}
	m.stockRestored.Add(float64(qty))
}

// routeはパスのテンプレート（/orders/:id）を渡す
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
