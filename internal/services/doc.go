// Package services implements the business logic behind the HTTP API.
//
// TimelineService owns the loaded expedition and peak tables and the
// timeline computed with the configured pipeline. Reload re-reads both
// tables concurrently; requests that override granularity or peak selection
// recompute from the loaded records and leave the cached default untouched.
//
// HealthService reports liveness and readiness. The service is ready once
// input data is loaded and the output directory is writable.
package services
