package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "processor_envelope_count",
		Help: "The number of decoded envelopes (per packet type).",
	}, []string{"packet_type"})
	dec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "processor_decode_error_count",
		Help: "The number of records that failed to decode (per error kind).",
	}, []string{"kind"})
	fc = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "processor_frame_count",
		Help: "The number of decoded frames (per message type).",
	}, []string{"mType"})
	hec = promauto.NewCounter(prometheus.CounterOpts{
		Name: "processor_handler_error_count",
		Help: "The number of records a handler failed to handle.",
	})
)

func envelopeCounter(t string) prometheus.Counter {
	return ec.With(prometheus.Labels{"packet_type": t})
}

func decodeErrorCounter(kind string) prometheus.Counter {
	return dec.With(prometheus.Labels{"kind": kind})
}

func frameCounter(mType string) prometheus.Counter {
	return fc.With(prometheus.Labels{"mType": mType})
}

func handlerErrorCounter() prometheus.Counter {
	return hec
}
