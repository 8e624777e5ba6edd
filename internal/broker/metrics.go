package broker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	envelopesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_broker_envelopes_received_total",
		Help: "Total envelopes accepted on the reply endpoint",
	})

	envelopesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_broker_envelopes_rejected_total",
		Help: "Total envelopes rejected as malformed or schema-invalid",
	})

	envelopesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_broker_envelopes_processed_total",
		Help: "Total envelopes run through the pipeline, by outcome",
	}, []string{"outcome"})

	notifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_webhook_failures_total",
		Help: "Total webhook notifications that could not be delivered",
	})

	analysisFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_analysis_fallbacks_total",
		Help: "Total analysis calls that fell back to the fixed text",
	})

	updatesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_updates_published_total",
		Help: "Total processed reports broadcast on the publish endpoint",
	})
)
