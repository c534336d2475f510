// Package app wires the peaktrail server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Initialize logging and OpenTelemetry from the configuration
//	2. Resolve and create the output and log directories
//	3. Create the timeline and health services
//	4. Set up the chi router, middleware chain and handlers
//	5. Load the input tables and start the HTTP server
//	6. Shut down gracefully on SIGINT/SIGTERM
//
// # Usage
//
//	cfg, err := config.Load(path)
//	application, err := app.NewApplication(cfg, nil)
//	if err := application.Run(); err != nil {
//	    os.Exit(1)
//	}
//
// # Middleware Order
//
// RequestID, RealIP, OTel, StructuredLogger, Recovery, SecurityHeaders,
// RateLimiter, then a per-route Timeout on /api. /metrics is mounted outside
// the group.
package app
