package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"shopsync/internal/domain"
)

// Recorder exposes sync activity to Prometheus.
type Recorder struct {
	syncsTotal      *prometheus.CounterVec
	recordsTotal    *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
	webhooksTotal   *prometheus.CounterVec
	guardRejections prometheus.Counter
}

// NewRecorder registers the collectors on the given registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		syncsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsync_syncs_total",
			Help: "Completed sync operations by type, direction and status.",
		}, []string{"sync_type", "direction", "status"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsync_records_total",
			Help: "Processed records by sync type and outcome.",
		}, []string{"sync_type", "outcome"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopsync_sync_duration_seconds",
			Help:    "Wall-clock duration of sync operations.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"sync_type", "direction"}),
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shopsync_webhooks_total",
			Help: "Received webhooks by topic and result.",
		}, []string{"topic", "result"}),
		guardRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shopsync_guard_rejections_total",
			Help: "Sync attempts refused because a run was already in progress.",
		}),
	}
	reg.MustRegister(r.syncsTotal, r.recordsTotal, r.syncDuration, r.webhooksTotal, r.guardRejections)
	return r
}

func (r *Recorder) ObserveSync(syncType domain.SyncType, direction domain.Direction, summary *domain.SyncSummary, seconds float64) {
	r.syncsTotal.WithLabelValues(string(syncType), string(direction), string(summary.Status())).Inc()
	r.recordsTotal.WithLabelValues(string(syncType), "created").Add(float64(summary.Created))
	r.recordsTotal.WithLabelValues(string(syncType), "updated").Add(float64(summary.Updated))
	r.recordsTotal.WithLabelValues(string(syncType), "failed").Add(float64(summary.Failed))
	r.syncDuration.WithLabelValues(string(syncType), string(direction)).Observe(seconds)
}

func (r *Recorder) ObserveWebhook(topic, result string) {
	r.webhooksTotal.WithLabelValues(topic, result).Inc()
}

func (r *Recorder) ObserveGuardRejection() {
	r.guardRejections.Inc()
}
