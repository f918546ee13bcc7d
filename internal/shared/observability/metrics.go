package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orphan_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesCollected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orphan_project_files_total",
		Help: "Number of files in the project set of the last analysis.",
	})

	EntryFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orphan_entry_files_total",
		Help: "Number of entry files seeding the last analysis.",
	})

	UnusedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orphan_unused_files_total",
		Help: "Number of unused files found by the last analysis.",
	})

	WavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orphan_waves_total",
		Help: "Total number of traversal waves dispatched.",
	})

	WaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orphan_wave_seconds",
		Help:    "Wall time per traversal wave.",
		Buckets: prometheus.DefBuckets,
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orphan_module_cache_hits_total",
		Help: "Module cache lookups satisfied without parsing.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orphan_module_cache_misses_total",
		Help: "Module cache lookups that triggered a parse.",
	})

	ResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orphan_resolutions_total",
		Help: "Specifier resolutions by outcome.",
	}, []string{"outcome"})

	WarningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orphan_warnings_total",
		Help: "Non-fatal warnings recorded during analysis.",
	}, []string{"code"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orphan_analysis_seconds",
		Help:    "End-to-end analysis wall time.",
		Buckets: prometheus.DefBuckets,
	})

	PluginEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orphan_plugin_entries_total",
		Help: "Entry files contributed per plugin.",
	}, []string{"plugin"})
)
