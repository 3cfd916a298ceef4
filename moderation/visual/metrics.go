package visual

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var safesearchAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "escoba_safesearch_api_duration_sec",
	Help: "Duration of safe-search image classification API calls",
})

var safesearchAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "escoba_safesearch_api_count",
	Help: "Number of safe-search image classification API calls, by HTTP status code",
}, []string{"status"})
