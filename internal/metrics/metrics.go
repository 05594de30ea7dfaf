package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters for one render run. Each run owns its registry
// so repeated runs in one process never collide.
type Metrics struct {
	reg *prometheus.Registry

	SegmentsExtracted prometheus.Counter
	SegmentsTruncated prometheus.Counter
	FramesRead        prometheus.Counter
	FramesDeclared    prometheus.Gauge
	AudioWindow       prometheus.Gauge
	TitleClips        prometheus.Gauge
	OutputDuration    prometheus.Gauge
	StageDuration     *prometheus.HistogramVec
	RunsFailed        *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		SegmentsExtracted: f.NewCounter(prometheus.CounterOpts{
			Name: "hlreel_segments_extracted_total",
			Help: "Segments read from the source video",
		}),
		SegmentsTruncated: f.NewCounter(prometheus.CounterOpts{
			Name: "hlreel_segments_truncated_total",
			Help: "Segments that ended early on a read, seek or normalize error",
		}),
		FramesRead: f.NewCounter(prometheus.CounterOpts{
			Name: "hlreel_frames_read_total",
			Help: "Frames decoded and normalized",
		}),
		FramesDeclared: f.NewGauge(prometheus.GaugeOpts{
			Name: "hlreel_frames_declared",
			Help: "Sum of segment frame range widths",
		}),
		AudioWindow: f.NewGauge(prometheus.GaugeOpts{
			Name: "hlreel_audio_window_seconds",
			Help: "Length of the trimmed soundtrack",
		}),
		TitleClips: f.NewGauge(prometheus.GaugeOpts{
			Name: "hlreel_title_clips",
			Help: "Title cards appended after the footage",
		}),
		OutputDuration: f.NewGauge(prometheus.GaugeOpts{
			Name: "hlreel_output_duration_seconds",
			Help: "Duration of the verified output movie",
		}),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hlreel_stage_duration_seconds",
				Help:    "Wall time per pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7m
			},
			[]string{"stage"},
		),
		RunsFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hlreel_runs_failed_total",
				Help: "Failed runs by stage",
			},
			[]string{"stage"},
		),
	}
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordSegment records one extracted segment.
func (m *Metrics) RecordSegment(frames int, truncated bool) {
	m.SegmentsExtracted.Inc()
	m.FramesRead.Add(float64(frames))
	if truncated {
		m.SegmentsTruncated.Inc()
	}
}

// RecordFailure counts a failed run against the stage that failed.
func (m *Metrics) RecordFailure(stage string) {
	m.RunsFailed.WithLabelValues(stage).Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
