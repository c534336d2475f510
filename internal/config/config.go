package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"peaktrail/internal/timeline"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "PEAKTRAIL"

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PipelineConfig selects bucket granularity, peaks, thresholds and scale.
type PipelineConfig struct {
	Granularity          string   `yaml:"granularity" envconfig:"GRANULARITY" validate:"required,oneof=day month year year-season"`
	Rollup               string   `yaml:"rollup" envconfig:"ROLLUP" validate:"omitempty,oneof=month year"`
	PeakMode             string   `yaml:"peak_mode" envconfig:"PEAK_MODE" validate:"required,oneof=top fixed all combined"`
	TopN                 int      `yaml:"top_n" envconfig:"TOP_N" validate:"gte=1,lte=1000"`
	Peaks                []string `yaml:"peaks" envconfig:"PEAKS" validate:"required_if=PeakMode fixed,dive,required"`
	DeathRateThreshold   float64  `yaml:"death_rate_threshold" envconfig:"DEATH_RATE_THRESHOLD" validate:"gte=0"`
	SuccessRateThreshold float64  `yaml:"success_rate_threshold" envconfig:"SUCCESS_RATE_THRESHOLD" validate:"gte=0"`
	ScaleMin             float64  `yaml:"scale_min" envconfig:"SCALE_MIN" validate:"gt=0"`
	ScaleMax             float64  `yaml:"scale_max" envconfig:"SCALE_MAX" validate:"gtefield=ScaleMin"`
	DashedThickness      float64  `yaml:"dashed_thickness" envconfig:"DASHED_THICKNESS" validate:"gt=0"`
	OnMalformed          string   `yaml:"on_malformed" envconfig:"ON_MALFORMED" validate:"oneof=skip fail"`
	RequireMembers       bool     `yaml:"require_members" envconfig:"REQUIRE_MEMBERS"`
	RequireUnclaimed     bool     `yaml:"require_unclaimed" envconfig:"REQUIRE_UNCLAIMED"`
	RequireUndisputed    bool     `yaml:"require_undisputed" envconfig:"REQUIRE_UNDISPUTED"`
}

// PathsConfig contains file system paths. Relative paths are resolved
// against BaseDir, or the working directory when BaseDir is empty.
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR"`
	InputDir        string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	OutputDir       string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir         string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	ExpeditionsFile string `yaml:"expeditions_file" envconfig:"EXPEDITIONS_FILE" validate:"required"`
	PeaksFile       string `yaml:"peaks_file" envconfig:"PEAKS_FILE" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics.
type TelemetryConfig struct {
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (if any), then PEAKTRAIL_* environment variables. An empty path searches
// the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their file or default value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes a YAML file over cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// findConfigFile returns the first config file found in common locations
func findConfigFile() string {
	locations := []string{
		"peaktrail.yaml",
		"config.yaml",
		"configs/peaktrail.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when output is %q", c.Logging.Output)
	}

	if _, err := c.Pipeline.ToTimeline(); err != nil {
		return err
	}

	return nil
}

// ToTimeline converts the pipeline section into a timeline.Config.
func (p PipelineConfig) ToTimeline() (timeline.Config, error) {
	g, err := timeline.ParseGranularity(p.Granularity)
	if err != nil {
		return timeline.Config{}, err
	}

	var rollup timeline.Granularity
	if p.Rollup != "" {
		if rollup, err = timeline.ParseGranularity(p.Rollup); err != nil {
			return timeline.Config{}, err
		}
	}

	selector, err := p.Selector()
	if err != nil {
		return timeline.Config{}, err
	}

	policy, err := timeline.ParseMalformedPolicy(p.OnMalformed)
	if err != nil {
		return timeline.Config{}, err
	}

	cfg := timeline.Config{
		Granularity: g,
		Rollup:      rollup,
		Selector:    selector,
		Thresholds: timeline.Thresholds{
			DeathRate:   p.DeathRateThreshold,
			SuccessRate: p.SuccessRateThreshold,
		},
		Scale: timeline.ScaleParams{
			Min:             p.ScaleMin,
			Max:             p.ScaleMax,
			DashedThickness: p.DashedThickness,
		},
		Reconcile: timeline.ReconcileOptions{
			Granularity:       g,
			RequireUnclaimed:  p.RequireUnclaimed,
			RequireUndisputed: p.RequireUndisputed,
			RequireMembers:    p.RequireMembers,
			OnMalformed:       policy,
		},
	}
	return cfg, cfg.Validate()
}

// Selector returns the peak selector described by PeakMode.
func (p PipelineConfig) Selector() (timeline.PeakSelector, error) {
	switch p.PeakMode {
	case PeakModeTop:
		return timeline.TopN{N: p.TopN}, nil
	case PeakModeFixed:
		return timeline.Fixed{IDs: p.Peaks}, nil
	case PeakModeAll:
		return timeline.All{}, nil
	case PeakModeCombined:
		return timeline.Combined{}, nil
	default:
		return nil, &timeline.ValidationError{Field: "peak_mode", Message: "must be top, fixed, all or combined", Value: p.PeakMode}
	}
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Granularity:          DefaultGranularity,
			PeakMode:             PeakModeTop,
			TopN:                 DefaultTopN,
			DeathRateThreshold:   DefaultDeathRateThreshold,
			SuccessRateThreshold: DefaultSuccessRateThreshold,
			ScaleMin:             DefaultScaleMin,
			ScaleMax:             DefaultScaleMax,
			DashedThickness:      DefaultDashedThickness,
			OnMalformed:          DefaultOnMalformed,
			RequireMembers:       true,
			RequireUnclaimed:     true,
			RequireUndisputed:    true,
		},
		Paths: PathsConfig{
			InputDir:        DefaultInputDir,
			OutputDir:       DefaultOutputDir,
			LogsDir:         DefaultLogsDir,
			ExpeditionsFile: DefaultExpeditionsFile,
			PeaksFile:       DefaultPeaksFile,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/peaktrail.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Telemetry: TelemetryConfig{
			Environment:   "development",
			EnableTracing: false,
			EnableMetrics: true,
			TraceExporter: "stdout",
			SampleRatio:   1.0,
		},
	}
}
