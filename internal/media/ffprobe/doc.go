// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Ingest uses it to read frame rates and frame counts off video
// representations when the manifest does not carry them.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, format name)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
package ffprobe
