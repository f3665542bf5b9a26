package cmd

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// newLogger writes human readable logs to stderr. Every line carries the
// run_id of the current invocation.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level.SetLevel(zap.DebugLevel)
		cfg.DisableStacktrace = false
	}
	return cfg.Build(zap.Fields(zap.String("run_id", uuid.NewString())))
}
