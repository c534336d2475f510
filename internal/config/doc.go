// Package config provides centralized configuration management for peaktrail.
// It loads configuration from multiple sources, validates it, and converts the
// pipeline section into a timeline.Config.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PEAKTRAIL_<SECTION>_<FIELD>:
//
//	PEAKTRAIL_PIPELINE_GRANULARITY=year
//	PEAKTRAIL_PIPELINE_PEAK_MODE=fixed
//	PEAKTRAIL_PIPELINE_PEAKS=EVER,LHOT
//	PEAKTRAIL_PATHS_INPUT_DIR=/data/himalaya
//	PEAKTRAIL_LOGGING_LEVEL=debug
//	PEAKTRAIL_SERVER_PORT=9000
//
// # Path Management
//
// PathsConfig.Resolve turns the configured directories and file names into a
// Paths value with absolute locations for every input and output file:
//
//	paths, err := cfg.Paths.Resolve()
//	csvPath := paths.PeakTimelineCSV("EVER")
//
// # Validation
//
// Struct tags are checked with go-playground/validator, then the pipeline
// section is converted with ToTimeline so that invalid combinations (a month
// rollup on a year run, a fixed peak mode with no peaks) fail at load time.
package config
