package pipeline

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "boxjenkins"

// Metrics collects run statistics on a private registry. A batch run has no
// scrape endpoint, so the registry is written out as a node-exporter
// textfile instead.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration  *prometheus.GaugeVec
	candidates     *prometheus.CounterVec
	candidateAICc  *prometheus.GaugeVec
	fits           prometheus.Counter
	lambda         prometheus.Gauge
	whiteNoise     *prometheus.GaugeVec
	forecastPoints *prometheus.CounterVec
	lastSuccess    prometheus.Gauge
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
		}, []string{"stage"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidate models by outcome.",
		}, []string{"status"}),
		candidateAICc: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidate_aicc",
			Help:      "AICc of each accepted candidate after pruning.",
		}, []string{"candidate"}),
		fits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_fits_total",
			Help:      "Maximum-likelihood fits, pruning refits included.",
		}),
		lambda: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transform_lambda",
			Help:      "Power-transform exponent applied to the series.",
		}),
		whiteNoise: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "residuals_white_noise",
			Help:      "1 if no residual test rejected white noise for the candidate.",
		}, []string{"candidate"}),
		forecastPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_points_total",
			Help:      "Forecast points produced by horizon.",
		}, []string{"horizon"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.stageDuration, m.candidates, m.candidateAICc, m.fits,
		m.lambda, m.whiteNoise, m.forecastPoints, m.lastSuccess,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values for the node-exporter textfile
// collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

func (m *Metrics) recordCandidate(status, name string, aicc float64, whiteNoise bool) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(status).Inc()
	if name == "" {
		return
	}
	m.candidateAICc.WithLabelValues(name).Set(aicc)
	wn := 0.0
	if whiteNoise {
		wn = 1
	}
	m.whiteNoise.WithLabelValues(name).Set(wn)
}

func (m *Metrics) addFits(n int) {
	if m == nil {
		return
	}
	m.fits.Add(float64(n))
}

func (m *Metrics) setLambda(lambda float64) {
	if m == nil {
		return
	}
	m.lambda.Set(lambda)
}

func (m *Metrics) recordForecast(horizon, points int) {
	if m == nil {
		return
	}
	m.forecastPoints.WithLabelValues(fmt.Sprint(horizon)).Add(float64(points))
}

func (m *Metrics) markSuccess(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccess.Set(float64(t.Unix()))
}
