// Package config loads pipeline settings from defaults, an optional YAML
// file and BJ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/asamerry/Time-Series-Project/diagnostics"
	"github.com/asamerry/Time-Series-Project/sarima"
	"github.com/asamerry/Time-Series-Project/selection"
	"github.com/asamerry/Time-Series-Project/stability"
	"github.com/asamerry/Time-Series-Project/timeseries"
	"github.com/asamerry/Time-Series-Project/transform"
)

// EnvPrefix prefixes environment overrides, e.g. BJ_FORECAST_HORIZONS.
const EnvPrefix = "BJ"

// Config is the full pipeline configuration.
type Config struct {
	Input       string            `mapstructure:"input" json:"input" yaml:"input"`
	Sheet       string            `mapstructure:"sheet" json:"sheet,omitempty" yaml:"sheet,omitempty"`
	ValueColumn string            `mapstructure:"value_column" json:"value_column,omitempty" yaml:"value_column,omitempty"`
	Window      WindowConfig      `mapstructure:"window" json:"window" yaml:"window"`
	Transform   TransformConfig   `mapstructure:"transform" json:"transform" yaml:"transform"`
	Candidates  []Candidate       `mapstructure:"candidates" json:"candidates" yaml:"candidates"`
	Pruning     PruningConfig     `mapstructure:"pruning" json:"pruning" yaml:"pruning"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics" json:"diagnostics" yaml:"diagnostics"`
	Stability   StabilityConfig   `mapstructure:"stability" json:"stability" yaml:"stability"`
	Forecast    ForecastConfig    `mapstructure:"forecast" json:"forecast" yaml:"forecast"`
	Output      OutputConfig      `mapstructure:"output" json:"output" yaml:"output"`
	Workers     int               `mapstructure:"workers" json:"workers" yaml:"workers"`
	Log         LogConfig         `mapstructure:"log" json:"log" yaml:"log"`
}

// WindowConfig holds the training and testing windows as YYYY-MM labels,
// both ends inclusive. An empty training window uses the whole series; an
// empty testing window skips held-out evaluation.
type WindowConfig struct {
	TrainStart string `mapstructure:"train_start" json:"train_start,omitempty" yaml:"train_start,omitempty"`
	TrainEnd   string `mapstructure:"train_end" json:"train_end,omitempty" yaml:"train_end,omitempty"`
	TestStart  string `mapstructure:"test_start" json:"test_start,omitempty" yaml:"test_start,omitempty"`
	TestEnd    string `mapstructure:"test_end" json:"test_end,omitempty" yaml:"test_end,omitempty"`
}

// TransformConfig configures the stationarity transform.
type TransformConfig struct {
	Lambda    *float64 `mapstructure:"lambda" json:"lambda,omitempty" yaml:"lambda,omitempty"`
	GridMin   float64  `mapstructure:"grid_min" json:"grid_min" yaml:"grid_min"`
	GridMax   float64  `mapstructure:"grid_max" json:"grid_max" yaml:"grid_max"`
	GridStep  float64  `mapstructure:"grid_step" json:"grid_step" yaml:"grid_step"`
	DiffLag   int      `mapstructure:"diff_lag" json:"diff_lag" yaml:"diff_lag"`
	DiffOrder int      `mapstructure:"diff_order" json:"diff_order" yaml:"diff_order"`
	Period    int      `mapstructure:"period" json:"period" yaml:"period"`
}

// Candidate is one model order proposed from the ACF and PACF.
type Candidate struct {
	Name        string       `mapstructure:"name" json:"name" yaml:"name"`
	Order       sarima.Order `mapstructure:"order" json:"order" yaml:"order"`
	Fixed       []string     `mapstructure:"fixed" json:"fixed,omitempty" yaml:"fixed,omitempty"`
	IncludeMean bool         `mapstructure:"include_mean" json:"include_mean" yaml:"include_mean"`
}

// Spec converts the candidate into a model specification with the listed
// coefficients fixed at zero.
func (c Candidate) Spec() (sarima.Spec, error) {
	s, err := sarima.NewSpec(c.Name, c.Order, c.IncludeMean)
	if err != nil {
		return sarima.Spec{}, err
	}
	if len(c.Fixed) == 0 {
		return s, nil
	}
	return s.Fix(c.Fixed...)
}

// PruningConfig configures the coefficient pruning loop.
type PruningConfig struct {
	Threshold float64 `mapstructure:"threshold" json:"threshold" yaml:"threshold"`
	MaxRounds int     `mapstructure:"max_rounds" json:"max_rounds" yaml:"max_rounds"`
}

// DiagnosticsConfig configures the residual test battery.
type DiagnosticsConfig struct {
	Lags  int     `mapstructure:"lags" json:"lags" yaml:"lags"`
	Alpha float64 `mapstructure:"alpha" json:"alpha" yaml:"alpha"`
}

// StabilityConfig configures the unit-circle margin.
type StabilityConfig struct {
	Tolerance float64 `mapstructure:"tolerance" json:"tolerance" yaml:"tolerance"`
}

// ForecastConfig lists the horizons to forecast.
type ForecastConfig struct {
	Horizons   []int   `mapstructure:"horizons" json:"horizons" yaml:"horizons"`
	Multiplier float64 `mapstructure:"multiplier" json:"multiplier" yaml:"multiplier"`
}

// OutputConfig controls what the CLI writes.
type OutputConfig struct {
	Dir     string   `mapstructure:"dir" json:"dir" yaml:"dir"`
	Formats []string `mapstructure:"formats" json:"formats" yaml:"formats"`
	// Metrics, when set, is a file the run metrics are written to in the
	// node-exporter textfile format.
	Metrics string `mapstructure:"metrics" json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// Default returns the built-in configuration: second differences at lag 1,
// two seasonal candidates on a monthly period and a 24-month horizon.
func Default() *Config {
	return &Config{
		Window: WindowConfig{},
		Transform: TransformConfig{
			GridMin:   -2,
			GridMax:   2,
			GridStep:  0.01,
			DiffLag:   1,
			DiffOrder: 2,
			Period:    timeseries.PeriodMonthly,
		},
		Candidates: []Candidate{
			{Name: "sarma", Order: sarima.Order{P: 1, Q: 1, SP: 1, SQ: 1, Period: timeseries.PeriodMonthly}},
			{Name: "ma", Order: sarima.Order{Q: 2, SQ: 1, Period: timeseries.PeriodMonthly}},
		},
		Pruning: PruningConfig{
			Threshold: sarima.DefaultThreshold,
		},
		Diagnostics: DiagnosticsConfig{
			Lags:  diagnostics.DefaultOptions().Lags,
			Alpha: diagnostics.DefaultOptions().Alpha,
		},
		Stability: StabilityConfig{
			Tolerance: stability.DefaultTolerance,
		},
		Forecast: ForecastConfig{
			Horizons:   []int{24},
			Multiplier: 2,
		},
		Output: OutputConfig{
			Dir:     "out",
			Formats: []string{"json", "csv"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration. cfgFile may be empty, in which case
// ./boxjenkins.yaml is used if present. Environment variables override the
// file, e.g. BJ_TRANSFORM_DIFF_ORDER=1.
func Load(cfgFile string) (*Config, error) {
	return LoadWith(viper.New(), cfgFile)
}

// LoadWith is Load on a caller-supplied viper instance, so command-line
// flags bound to v take precedence over the file and environment.
func LoadWith(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("boxjenkins")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())
	if err := v.BindEnv("transform.lambda"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Decode into a zero value; mapstructure merges slices into existing
	// elements, so defaults live in viper only.
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("input", c.Input)
	v.SetDefault("sheet", c.Sheet)
	v.SetDefault("value_column", c.ValueColumn)
	v.SetDefault("window.train_start", c.Window.TrainStart)
	v.SetDefault("window.train_end", c.Window.TrainEnd)
	v.SetDefault("window.test_start", c.Window.TestStart)
	v.SetDefault("window.test_end", c.Window.TestEnd)
	v.SetDefault("transform.grid_min", c.Transform.GridMin)
	v.SetDefault("transform.grid_max", c.Transform.GridMax)
	v.SetDefault("transform.grid_step", c.Transform.GridStep)
	v.SetDefault("transform.diff_lag", c.Transform.DiffLag)
	v.SetDefault("transform.diff_order", c.Transform.DiffOrder)
	v.SetDefault("transform.period", c.Transform.Period)
	v.SetDefault("candidates", c.Candidates)
	v.SetDefault("pruning.threshold", c.Pruning.Threshold)
	v.SetDefault("pruning.max_rounds", c.Pruning.MaxRounds)
	v.SetDefault("diagnostics.lags", c.Diagnostics.Lags)
	v.SetDefault("diagnostics.alpha", c.Diagnostics.Alpha)
	v.SetDefault("stability.tolerance", c.Stability.Tolerance)
	v.SetDefault("forecast.horizons", c.Forecast.Horizons)
	v.SetDefault("forecast.multiplier", c.Forecast.Multiplier)
	v.SetDefault("output.dir", c.Output.Dir)
	v.SetDefault("output.formats", c.Output.Formats)
	v.SetDefault("output.metrics", c.Output.Metrics)
	v.SetDefault("workers", c.Workers)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
}

// Validate rejects values no stage could run with.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	for _, w := range []struct{ key, label string }{
		{"window.train_start", c.Window.TrainStart},
		{"window.train_end", c.Window.TrainEnd},
		{"window.test_start", c.Window.TestStart},
		{"window.test_end", c.Window.TestEnd},
	} {
		if w.label == "" {
			continue
		}
		if _, err := timeseries.ParseMonth(w.label); err != nil {
			add("%s: %v", w.key, err)
		}
	}
	if (c.Window.TestStart == "") != (c.Window.TestEnd == "") {
		add("window: test_start and test_end must be set together")
	}

	t := c.Transform
	if t.Lambda == nil && (t.GridStep <= 0 || t.GridMax < t.GridMin) {
		add("transform: grid [%g, %g] step %g is empty", t.GridMin, t.GridMax, t.GridStep)
	}
	if t.DiffLag < 1 {
		add("transform.diff_lag must be at least 1, got %d", t.DiffLag)
	}
	if t.DiffOrder < 0 {
		add("transform.diff_order must not be negative, got %d", t.DiffOrder)
	}

	if len(c.Candidates) == 0 {
		add("candidates: at least one candidate is required")
	}
	seen := map[string]bool{}
	for i, cand := range c.Candidates {
		if cand.Name == "" {
			add("candidates[%d]: name is required", i)
			continue
		}
		if seen[cand.Name] {
			add("candidates[%d]: duplicate name %q", i, cand.Name)
		}
		seen[cand.Name] = true
		if _, err := cand.Spec(); err != nil {
			add("candidates[%d] %s: %v", i, cand.Name, err)
		}
	}

	if c.Pruning.Threshold <= 0 {
		add("pruning.threshold must be positive, got %g", c.Pruning.Threshold)
	}
	if c.Pruning.MaxRounds < 0 {
		add("pruning.max_rounds must not be negative, got %d", c.Pruning.MaxRounds)
	}
	if c.Diagnostics.Lags < 1 {
		add("diagnostics.lags must be at least 1, got %d", c.Diagnostics.Lags)
	}
	if c.Diagnostics.Alpha <= 0 || c.Diagnostics.Alpha >= 1 {
		add("diagnostics.alpha must lie in (0, 1), got %g", c.Diagnostics.Alpha)
	}
	if c.Stability.Tolerance < 0 {
		add("stability.tolerance must not be negative, got %g", c.Stability.Tolerance)
	}
	if len(c.Forecast.Horizons) == 0 {
		add("forecast.horizons: at least one horizon is required")
	}
	for _, h := range c.Forecast.Horizons {
		if h < 1 {
			add("forecast.horizons: %d is not a positive horizon", h)
		}
	}
	if c.Workers < 0 {
		add("workers must not be negative, got %d", c.Workers)
	}
	for _, f := range c.Output.Formats {
		switch strings.ToLower(f) {
		case "json", "yaml", "csv", "xlsx":
		default:
			add("output.formats: unknown format %q", f)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Grid returns the λ grid.
func (c *Config) Grid() []float64 {
	return transform.Grid(c.Transform.GridMin, c.Transform.GridMax, c.Transform.GridStep)
}

// TransformerConfig builds the transformer settings.
func (c *Config) TransformerConfig() transform.Config {
	return transform.Config{
		Grid:      c.Grid(),
		Lambda:    c.Transform.Lambda,
		DiffLag:   c.Transform.DiffLag,
		DiffOrder: c.Transform.DiffOrder,
		Period:    c.Transform.Period,
	}
}

// SelectionConfig builds the candidate evaluator settings.
func (c *Config) SelectionConfig() (selection.Config, error) {
	out := selection.DefaultConfig()
	for _, cand := range c.Candidates {
		spec, err := cand.Spec()
		if err != nil {
			return selection.Config{}, fmt.Errorf("candidate %s: %w", cand.Name, err)
		}
		out.Candidates = append(out.Candidates, spec)
	}
	out.Prune = sarima.PruneOptions{
		Threshold: c.Pruning.Threshold,
		MaxRounds: c.Pruning.MaxRounds,
		Tolerance: c.Stability.Tolerance,
	}
	out.Diagnostics = diagnostics.Options{Lags: c.Diagnostics.Lags, Alpha: c.Diagnostics.Alpha}
	out.Tolerance = c.Stability.Tolerance
	out.Workers = c.Workers
	return out, nil
}

// Horizons returns the distinct configured horizons in ascending order.
func (c *Config) Horizons() []int {
	seen := map[int]bool{}
	var out []int
	for _, h := range c.Forecast.Horizons {
		if h > 0 && !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	sort.Ints(out)
	return out
}
