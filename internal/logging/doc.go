// Package logging builds the slog loggers used across sprocket.
//
// Two output formats are supported: a console handler that renders a compact
// header line followed by indented fields, and a JSON handler for log files
// and machine consumption. Component loggers carry a standardized component
// attribute so ingest stages can be told apart in mixed output.
package logging
