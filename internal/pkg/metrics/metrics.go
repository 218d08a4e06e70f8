package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa os coletores Prometheus do serviço. Um *Metrics nil é válido e não registra nada.
type Metrics struct {
	ordersCreated   prometheus.Counter
	orderStatus     *prometheus.CounterVec
	orderRevenue    prometheus.Counter
	httpDuration    *prometheus.HistogramVec
	storageFallback *prometheus.CounterVec
}

// New registra os coletores no registerer informado.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gofarma_orders_created_total",
			Help: "Pedidos criados no checkout.",
		}),
		orderStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gofarma_order_status_changes_total",
			Help: "Mudanças de status de pedidos, por status de destino.",
		}, []string{"status"}),
		orderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gofarma_order_revenue_total",
			Help: "Soma dos totais dos pedidos criados (BRL).",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gofarma_http_request_duration_seconds",
			Help:    "Duração das requisições HTTP.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		storageFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gofarma_storage_fallback_total",
			Help: "Registros corrompidos descartados em favor do valor padrão.",
		}, []string{"collection"}),
	}
	reg.MustRegister(m.ordersCreated, m.orderStatus, m.orderRevenue, m.httpDuration, m.storageFallback)
	return m
}

// OrderCreated contabiliza um pedido novo e seu total.
func (m *Metrics) OrderCreated(total float64) {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
	m.orderRevenue.Add(total)
	m.orderStatus.WithLabelValues("pending").Inc()
}

// OrderStatusChanged contabiliza uma transição.
func (m *Metrics) OrderStatusChanged(status string) {
	if m == nil {
		return
	}
	m.orderStatus.WithLabelValues(status).Inc()
}

// ObserveHTTP registra a duração de uma requisição.
func (m *Metrics) ObserveHTTP(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, statusClass(status)).Observe(d.Seconds())
}

// StorageFallback contabiliza um valor corrompido substituído pelo padrão.
func (m *Metrics) StorageFallback(collection string) {
	if m == nil {
		return
	}
	m.storageFallback.WithLabelValues(collection).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
