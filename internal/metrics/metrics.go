package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the lead pipeline.
type Metrics struct {
	JobsFetched     prometheus.Counter
	PostingsSaved   prometheus.Counter
	PostingsSkipped prometheus.Counter
	LeadsQualified  prometheus.Counter
	LeadsRejected   prometheus.Counter
	EmailsSent      prometheus.Counter
	EmailsFailed    prometheus.Counter
	EmailsSkipped   prometheus.Counter
	ProcessingTime  prometheus.Histogram
}

// New creates the pipeline metrics on the given registry. Tests pass a
// private registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsFetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_jobs_fetched_total",
			Help: "Total number of raw job postings fetched from job boards",
		}),
		PostingsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_postings_saved_total",
			Help: "Total number of new job postings stored",
		}),
		PostingsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_postings_skipped_total",
			Help: "Total number of job postings skipped as duplicates",
		}),
		LeadsQualified: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_leads_qualified_total",
			Help: "Total number of leads that passed AI qualification",
		}),
		LeadsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_leads_rejected_total",
			Help: "Total number of postings rejected during qualification",
		}),
		EmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_emails_sent_total",
			Help: "Total number of outreach emails sent (including dry-run)",
		}),
		EmailsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_emails_failed_total",
			Help: "Total number of outreach email delivery failures",
		}),
		EmailsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_emails_skipped_total",
			Help: "Total number of outreach attempts skipped for missing recipients",
		}),
		ProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadgen_pipeline_duration_seconds",
			Help:    "Time spent running pipeline stages",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
