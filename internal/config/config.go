// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Simulation() SimulationConfig
	Bayesian() BayesianConfig
	Benchmark() BenchmarkConfig
	Communication() CommunicationConfig
	Environment() EnvironmentConfig
	Report() ReportConfig

	// Simulation Setters
	SetSimulationAgents(int)
	SetSimulationRuns(int)
	SetSimulationSeed(int64)
	SetSimulationWorkers(int)
	SetSimulationAlgorithm(string)

	// Environment Setters
	SetEnvironmentLayout(string)
}

// Config holds the entire application configuration. Fields are exported for
// viper; code outside this package reads through the Interface getters.
type Config struct {
	LoggerCfg        LoggerConfig        `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	SimulationCfg    SimulationConfig    `mapstructure:"simulation" yaml:"simulation"`
	BayesianCfg      BayesianConfig      `mapstructure:"bayesian" yaml:"bayesian"`
	BenchmarkCfg     BenchmarkConfig     `mapstructure:"benchmark" yaml:"benchmark"`
	CommunicationCfg CommunicationConfig `mapstructure:"communication" yaml:"communication"`
	EnvironmentCfg   EnvironmentConfig   `mapstructure:"environment" yaml:"environment"`
	ReportCfg        ReportConfig        `mapstructure:"report" yaml:"report"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig               { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig           { return c.DatabaseCfg }
func (c *Config) Simulation() SimulationConfig       { return c.SimulationCfg }
func (c *Config) Bayesian() BayesianConfig           { return c.BayesianCfg }
func (c *Config) Benchmark() BenchmarkConfig         { return c.BenchmarkCfg }
func (c *Config) Communication() CommunicationConfig { return c.CommunicationCfg }
func (c *Config) Environment() EnvironmentConfig     { return c.EnvironmentCfg }
func (c *Config) Report() ReportConfig               { return c.ReportCfg }

func (c *Config) SetSimulationAgents(n int)        { c.SimulationCfg.Agents = n }
func (c *Config) SetSimulationRuns(n int)          { c.SimulationCfg.Runs = n }
func (c *Config) SetSimulationSeed(s int64)        { c.SimulationCfg.Seed = s }
func (c *Config) SetSimulationWorkers(n int)       { c.SimulationCfg.Workers = n }
func (c *Config) SetSimulationAlgorithm(a string)  { c.SimulationCfg.Algorithm = a }
func (c *Config) SetEnvironmentLayout(name string) { c.EnvironmentCfg.Layout = name }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the database connection details. An empty URL
// disables persistence.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// SimulationConfig controls the population and the batch.
type SimulationConfig struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
	Agents    int    `mapstructure:"agents" yaml:"agents"`
	Runs      int    `mapstructure:"runs" yaml:"runs"`
	Seed      int64  `mapstructure:"seed" yaml:"seed"`
	// MaxRounds caps an unconverged run; 0 disables the cap.
	MaxRounds int `mapstructure:"max_rounds" yaml:"max_rounds"`
	Workers   int `mapstructure:"workers" yaml:"workers"`
	// TickRate is rounds per second for watch mode; 0 runs unpaced.
	TickRate float64 `mapstructure:"tick_rate" yaml:"tick_rate"`
	// KeepAgents stores per-agent snapshots in every run result.
	KeepAgents bool `mapstructure:"keep_agents" yaml:"keep_agents"`
}

// BayesianConfig configures the sequential Bayesian strategy.
type BayesianConfig struct {
	Prior              float64 `mapstructure:"prior" yaml:"prior"`
	PosteriorThreshold float64 `mapstructure:"posterior_threshold" yaml:"posterior_threshold"`
	PositiveFeedback   bool    `mapstructure:"positive_feedback" yaml:"positive_feedback"`
}

// BenchmarkConfig sizes the two-phase quorum benchmark.
type BenchmarkConfig struct {
	WorstCaseRatio float64 `mapstructure:"worst_case_ratio" yaml:"worst_case_ratio"`
	Confidence     float64 `mapstructure:"confidence" yaml:"confidence"`
	Delta          float64 `mapstructure:"delta" yaml:"delta"`
	Diameter       float64 `mapstructure:"diameter" yaml:"diameter"`
}

// CommunicationConfig holds the Chebyshev range; peers talk when strictly
// closer than Range.
type CommunicationConfig struct {
	Range int `mapstructure:"range" yaml:"range"`
}

// EnvironmentConfig describes the map and its colouring.
type EnvironmentConfig struct {
	Layout string `mapstructure:"layout" yaml:"layout"`
	// Ratios lists every colour's share but the last, which takes the rest.
	Ratios       []float64 `mapstructure:"ratios" yaml:"ratios"`
	Colours      int       `mapstructure:"colours" yaml:"colours"`
	Pattern      string    `mapstructure:"pattern" yaml:"pattern"`
	ClusterScale float64   `mapstructure:"cluster_scale" yaml:"cluster_scale"`
}

// ReportConfig selects the report writer.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	// Output is a file path; empty writes to stdout.
	Output  string        `mapstructure:"output" yaml:"output"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "ghostswarm")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Simulation --
	v.SetDefault("simulation.algorithm", "bayesian")
	v.SetDefault("simulation.agents", 25)
	v.SetDefault("simulation.runs", 10)
	v.SetDefault("simulation.seed", 1)
	v.SetDefault("simulation.max_rounds", 50000)
	v.SetDefault("simulation.workers", 4)
	v.SetDefault("simulation.tick_rate", 0.0)
	v.SetDefault("simulation.keep_agents", false)

	// -- Bayesian --
	v.SetDefault("bayesian.prior", 1.0)
	v.SetDefault("bayesian.posterior_threshold", 0.99)
	v.SetDefault("bayesian.positive_feedback", true)

	// -- Benchmark --
	v.SetDefault("benchmark.worst_case_ratio", 0.52)
	v.SetDefault("benchmark.confidence", 0.975)
	v.SetDefault("benchmark.delta", 0.1)
	v.SetDefault("benchmark.diameter", 1240.0)

	// -- Communication --
	v.SetDefault("communication.range", 2)

	// -- Environment --
	v.SetDefault("environment.layout", "classic")
	v.SetDefault("environment.ratios", []float64{0.55})
	v.SetDefault("environment.colours", 2)
	v.SetDefault("environment.pattern", "uniform")
	v.SetDefault("environment.cluster_scale", 0.15)

	// -- Report --
	v.SetDefault("report.format", "text")
	v.SetDefault("report.output", "")
	v.SetDefault("report.timeout", "30s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The connection string usually carries a password, so it has a
	// dedicated variable besides the GHOSTSWARM_ prefix.
	_ = v.BindEnv("database.url", "GHOSTSWARM_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	s := c.SimulationCfg
	switch s.Algorithm {
	case "bayesian", "benchmark":
	default:
		return invalid("simulation.algorithm must be one of bayesian, benchmark; got %q", s.Algorithm)
	}
	if s.Agents <= 0 {
		return invalid("simulation.agents must be a positive integer")
	}
	if s.Runs <= 0 {
		return invalid("simulation.runs must be a positive integer")
	}
	if s.Workers <= 0 {
		return invalid("simulation.workers must be a positive integer")
	}
	if s.MaxRounds < 0 {
		return invalid("simulation.max_rounds cannot be negative")
	}
	if s.TickRate < 0 {
		return invalid("simulation.tick_rate cannot be negative")
	}

	if err := c.BayesianCfg.Validate(); err != nil {
		return err
	}
	if err := c.BenchmarkCfg.Validate(); err != nil {
		return err
	}
	if c.CommunicationCfg.Range < 1 {
		return invalid("communication.range must be at least 1")
	}
	if err := c.EnvironmentCfg.Validate(); err != nil {
		return err
	}
	if s.Algorithm == "benchmark" && c.EnvironmentCfg.Colours != 2 {
		return invalid("the benchmark algorithm supports exactly two colours, got %d", c.EnvironmentCfg.Colours)
	}

	switch c.ReportCfg.Format {
	case "text", "json":
	default:
		return invalid("report.format must be one of text, json; got %q", c.ReportCfg.Format)
	}
	return nil
}

// Validate checks the Bayesian strategy parameters.
func (b BayesianConfig) Validate() error {
	if b.Prior < 0 {
		return invalid("bayesian.prior cannot be negative")
	}
	if b.PosteriorThreshold <= 0 || b.PosteriorThreshold >= 1 {
		return invalid("bayesian.posterior_threshold must be in (0,1)")
	}
	return nil
}

// Validate checks the benchmark sizing parameters.
func (b BenchmarkConfig) Validate() error {
	if b.WorstCaseRatio <= 0.5 || b.WorstCaseRatio >= 1 {
		return invalid("benchmark.worst_case_ratio must be in (0.5,1)")
	}
	if b.Confidence <= 0 || b.Confidence >= 1 {
		return invalid("benchmark.confidence must be in (0,1)")
	}
	if b.Delta <= 0 || b.Delta >= 1 {
		return invalid("benchmark.delta must be in (0,1)")
	}
	if b.Diameter <= 0 {
		return invalid("benchmark.diameter must be positive")
	}
	return nil
}

// Validate checks the colour ratios against the colour count.
func (e EnvironmentConfig) Validate() error {
	if e.Layout == "" {
		return invalid("environment.layout is required")
	}
	if len(e.Ratios) == 0 {
		return invalid("environment.ratios must list at least one ratio")
	}
	sum := 0.0
	for _, r := range e.Ratios {
		if r <= 0 {
			return invalid("environment.ratios must all be positive, got %v", r)
		}
		sum += r
	}
	if sum >= 1 {
		return invalid("environment.ratios must sum to less than 1, got %v", sum)
	}
	if e.Colours != len(e.Ratios)+1 {
		return invalid("environment.colours must be len(ratios)+1 = %d, got %d", len(e.Ratios)+1, e.Colours)
	}
	switch e.Pattern {
	case "uniform", "exact", "clustered":
	default:
		return invalid("environment.pattern must be one of uniform, exact, clustered; got %q", e.Pattern)
	}
	if e.ClusterScale < 0 {
		return invalid("environment.cluster_scale cannot be negative")
	}
	return nil
}
