package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification results
const (
	ResultSent       = "sent"
	ResultFailed     = "failed"
	ResultUnresolved = "unresolved"
)

var (
	RecordsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dbreview",
		Name:      "records_accepted_total",
		Help:      "Database records committed by batch ingestion.",
	})

	RecordsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dbreview",
		Name:      "records_rejected_total",
		Help:      "Batch entries that failed structural validation.",
	})

	BatchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dbreview",
		Name:      "batches_failed_total",
		Help:      "Batches rolled back by the storage engine.",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dbreview",
		Name:      "notifications_total",
		Help:      "Escalation notifications by result.",
	}, []string{"result"})
)
