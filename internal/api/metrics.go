package api

import "github.com/prometheus/client_golang/prometheus"

var requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fastline",
	Subsystem: "gateway",
	Name:      "requests_total",
	Help:      "Gateway HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

var eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "fastline",
	Subsystem: "gateway",
	Name:      "events_published_total",
	Help:      "Fasting completion events by publish result.",
}, []string{"result"})

func init() {
	prometheus.MustRegister(requestsTotal, eventsPublished)
}
