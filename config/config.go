// Package config provides configuration loading for runs and batches.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// MaxThresholds is the number of female population thresholds a cell tracks.
const MaxThresholds = 10

// MinGTStep is the finest fruit growth-time multiplier step a sweep accepts.
const MinGTStep = 0.01

// Config holds all run configuration.
type Config struct {
	Run       RunConfig       `yaml:"run"`
	Batch     BatchConfig     `yaml:"batch"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Output    OutputConfig    `yaml:"output"`
	Store     StoreConfig     `yaml:"store"`
	Log       LogConfig       `yaml:"log"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// RunConfig holds the settings of a single simulation run.
type RunConfig struct {
	DT              float64   `yaml:"dt"`
	Days            float64   `yaml:"days"`
	StartDay        int       `yaml:"start_day"`
	IgnoreFruit     bool      `yaml:"ignore_fruit"`
	IgnoreDiapause  bool      `yaml:"ignore_diapause"`
	ConstantTemp    float64   `yaml:"constant_temp"`
	TemperatureFile string    `yaml:"temperature_file"`
	Thresholds      []float64 `yaml:"thresholds"`
}

// BatchConfig holds the worker count and the scenario sweeps.
type BatchConfig struct {
	Workers    int             `yaml:"workers"`
	Population PopulationSweep `yaml:"population"`
	Fruit      FruitSweep      `yaml:"fruit"`
	Diapause   DiapauseSweep   `yaml:"diapause"`
	ConstTemp  ConstTempSweep  `yaml:"consttemp"`
}

// PopulationSweep varies the start day, initial population and seeded stage.
type PopulationSweep struct {
	StartDayFrom int       `yaml:"start_day_from"`
	StartDayTo   int       `yaml:"start_day_to"`
	InitialPops  []float64 `yaml:"initial_pops"`
	Stages       []string  `yaml:"stages"`
}

// FruitSweep varies the growth-time multiplier and the harvest lag.
type FruitSweep struct {
	Stage      string  `yaml:"stage"`
	InitialPop float64 `yaml:"initial_pop"`
	StartDay   int     `yaml:"start_day"`
	GTFrom     float64 `yaml:"gt_from"`
	GTTo       float64 `yaml:"gt_to"`
	GTStep     float64 `yaml:"gt_step"`
	LagTo      int     `yaml:"lag_to"`
	LagStep    int     `yaml:"lag_step"`
	LagWindow  int     `yaml:"lag_window"`
}

// DiapauseSweep varies the critical temperature and daylight hours.
type DiapauseSweep struct {
	Stage        string  `yaml:"stage"`
	InitialPop   float64 `yaml:"initial_pop"`
	StartDay     int     `yaml:"start_day"`
	CritTempFrom int     `yaml:"crit_temp_from"`
	CritTempTo   int     `yaml:"crit_temp_to"`
	DaylightFrom int     `yaml:"daylight_from"`
	DaylightTo   int     `yaml:"daylight_to"`
	Window       int     `yaml:"window"`
}

// ConstTempSweep runs the model at fixed temperatures.
type ConstTempSweep struct {
	Temps    []float64 `yaml:"temps"`
	StartDay int       `yaml:"start_day"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowDays          float64 `yaml:"window_days"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	DailyCSV            bool    `yaml:"daily_csv"`
	Plots               bool    `yaml:"plots"`
}

// OutputConfig selects the output directory.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// StoreConfig selects the run store backend.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Workers        int // Batch.Workers, or GOMAXPROCS when unset
	DiapauseWindow int // Batch.Diapause.Window, or Workers when unset
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// Default returns the embedded defaults. It panics if they do not parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func (c *Config) computeDerived() {
	c.Derived.Workers = c.Batch.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}
	c.Derived.DiapauseWindow = c.Batch.Diapause.Window
	if c.Derived.DiapauseWindow <= 0 {
		c.Derived.DiapauseWindow = c.Derived.Workers
	}
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() { c.computeDerived() }

// Validate reports every setting that cannot be run.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !(c.Run.DT > 0) {
		bad("run.dt must be positive, got %g", c.Run.DT)
	}
	if c.Run.Days < 0 {
		bad("run.days must not be negative, got %g", c.Run.Days)
	}
	if c.Run.StartDay < -1 {
		bad("run.start_day must be -1 or a day index, got %d", c.Run.StartDay)
	}
	if len(c.Run.Thresholds) > MaxThresholds {
		bad("run.thresholds holds %d levels, at most %d are tracked", len(c.Run.Thresholds), MaxThresholds)
	}

	p := c.Batch.Population
	if p.StartDayFrom < 0 || p.StartDayTo < p.StartDayFrom {
		bad("batch.population start days [%d, %d) are not a valid range", p.StartDayFrom, p.StartDayTo)
	}

	f := c.Batch.Fruit
	// Multipliers are rounded to two decimals.
	if !(f.GTStep >= MinGTStep) {
		bad("batch.fruit.gt_step must be at least %g, got %g", MinGTStep, f.GTStep)
	}
	if f.LagTo < 0 || f.LagTo > 366 {
		bad("batch.fruit.lag_to must be in [0, 366], got %d", f.LagTo)
	}
	if f.LagStep <= 0 || f.LagWindow <= 0 {
		bad("batch.fruit lag step and window must be positive, got %d and %d", f.LagStep, f.LagWindow)
	}

	d := c.Batch.Diapause
	if d.DaylightFrom < 0 || d.DaylightTo > 24 || d.DaylightTo < d.DaylightFrom {
		bad("batch.diapause daylight hours [%d, %d] must lie in [0, 24]", d.DaylightFrom, d.DaylightTo)
	}
	if d.CritTempTo < d.CritTempFrom {
		bad("batch.diapause critical temperatures [%d, %d] are not a valid range", d.CritTempFrom, d.CritTempTo)
	}

	if !(c.Telemetry.WindowDays > 0) {
		bad("telemetry.window_days must be positive, got %g", c.Telemetry.WindowDays)
	}

	switch c.Store.Kind {
	case "memory", "sqlite":
	default:
		bad("store.kind must be memory or sqlite, got %q", c.Store.Kind)
	}

	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
