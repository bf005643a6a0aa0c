package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "messages_total", Help: "Count of inbound chat messages"},
	)
	IntentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "intents_total", Help: "Classified intents by kind"},
		[]string{"kind"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted to the gateway"},
		[]string{"symbol", "side"},
	)
	ManagementTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "management_actions_total", Help: "Management commands executed"},
		[]string{"action"},
	)
	RejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gateway_rejections_total", Help: "Gateway calls rejected by the venue"},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(MessagesTotal, IntentsTotal, OrdersTotal, ManagementTotal, RejectionsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
