// Package logging configures the log/slog logger used by the scorefusion
// CLI. Logs go to stderr by default, optionally also to a size-rotated file,
// so stdout stays reserved for fused results.
package logging
