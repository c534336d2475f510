package config

import (
	"time"

	"peaktrail/internal/timeline"
)

// Application constants
const (
	AppName = "peaktrail"

	// Peak selection modes
	PeakModeTop      = "top"
	PeakModeFixed    = "fixed"
	PeakModeAll      = "all"
	PeakModeCombined = "combined"

	// Pipeline defaults
	DefaultGranularity          = string(timeline.GranularityYearSeason)
	DefaultTopN                 = 5
	DefaultDeathRateThreshold   = timeline.DefaultDeathRateThreshold
	DefaultSuccessRateThreshold = timeline.DefaultSuccessRateThreshold
	DefaultScaleMin             = timeline.DefaultScaleMin
	DefaultScaleMax             = timeline.DefaultScaleMax
	DefaultDashedThickness      = timeline.DefaultDashedThickness
	DefaultOnMalformed          = string(timeline.MalformedSkip)

	// File paths (relative to the base directory)
	DefaultInputDir        = "data"
	DefaultOutputDir       = "output"
	DefaultLogsDir         = "logs"
	DefaultExpeditionsFile = "exped.csv"
	DefaultPeaksFile       = "peaks.csv"

	// Output file names
	TimelineCSVName   = "timeline.csv"
	TimelineJSONName  = "timeline.json"
	TimelineXLSXName  = "timeline.xlsx"
	PeakLookupCSVName = "peaks.csv"
	SummaryReportName = "summary.txt"

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// HTTP
	DefaultRateLimit      = 50 // requests per second
	DefaultBurstSize      = 100
	DefaultRequestTimeout = 60 * time.Second
	APIBasePath           = "/api"
	MetricsEndpoint       = "/metrics"
)
