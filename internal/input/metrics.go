package input

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "input_record_count",
		Help: "The number of records read (per source type).",
	}, []string{"type"})
	mlc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "input_malformed_line_count",
		Help: "The number of skipped log lines that could not be split into fields.",
	}, []string{"type"})
)

func inputRecordCounter(t string) prometheus.Counter {
	return rc.With(prometheus.Labels{"type": t})
}

func inputMalformedLineCounter(t string) prometheus.Counter {
	return mlc.With(prometheus.Labels{"type": t})
}
