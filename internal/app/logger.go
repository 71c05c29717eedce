package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Deployments that ship logs set
// LOG_FORMAT=json; anything else gets the text handler. Outside production
// the level drops to debug.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && !cfg.IsProduction() {
		opts.Level = slog.LevelDebug
	}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
