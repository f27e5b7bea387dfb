package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sells-group/domain-cli/internal/model"
)

// JobStatsSource reports how many in-memory jobs sit in each status.
type JobStatsSource interface {
	JobCounts() map[model.JobStatus]int
}

// JobCollector exports job counts at scrape time.
type JobCollector struct {
	source JobStatsSource
	desc   *prometheus.Desc
}

// NewJobCollector creates a collector backed by source.
func NewJobCollector(source JobStatsSource) *JobCollector {
	return &JobCollector{
		source: source,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "jobs"),
			"Batch jobs held in memory by status.",
			[]string{"status"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *JobCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *JobCollector) Collect(ch chan<- prometheus.Metric) {
	counts := c.source.JobCounts()
	for _, status := range []model.JobStatus{model.JobStatusProcessing, model.JobStatusCompleted, model.JobStatusFailed} {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(counts[status]), string(status))
	}
}
