package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics счётчики одного процесса; выгружаются в textfile для node-exporter
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched      prometheus.Counter
	FetchFailures     *prometheus.CounterVec
	ArticlesExtracted prometheus.Counter
	ArticlesDropped   *prometheus.CounterVec
	OverridesApplied  prometheus.Counter
	ItemsPublished    prometheus.Gauge
	LastSuccess       prometheus.Gauge
	RunDuration       prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bwf_news_listing_pages_fetched_total",
			Help: "Listing pages fetched successfully.",
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bwf_news_fetch_failures_total",
			Help: "Failed fetches by stage.",
		}, []string{"stage"}),
		ArticlesExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bwf_news_articles_extracted_total",
			Help: "Articles turned into news items.",
		}),
		ArticlesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bwf_news_articles_dropped_total",
			Help: "Candidates dropped by reason.",
		}, []string{"reason"}),
		OverridesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bwf_news_overrides_applied_total",
			Help: "Items whose image came from the override table.",
		}),
		ItemsPublished: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bwf_news_items_published",
			Help: "Items in the last written output file.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bwf_news_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bwf_news_run_duration_seconds",
			Help:    "Duration of a scrape run.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}),
	}

	m.registry.MustRegister(
		m.PagesFetched,
		m.FetchFailures,
		m.ArticlesExtracted,
		m.ArticlesDropped,
		m.OverridesApplied,
		m.ItemsPublished,
		m.LastSuccess,
		m.RunDuration,
	)
	return m
}

// ObserveRun фиксирует длительность прогона и, при успехе, время завершения
func (m *Metrics) ObserveRun(started time.Time, finished time.Time, ok bool) {
	m.RunDuration.Observe(finished.Sub(started).Seconds())
	if ok {
		m.LastSuccess.Set(float64(finished.Unix()))
	}
}

// WriteTextfile пишет метрики в файл; пустой путь ничего не делает
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
