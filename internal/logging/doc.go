// Package logging provides structured logging for designorch.
//
// The package wraps zap with:
//   - a Trace level below Debug
//   - console output (stderr by default) plus an optional OpenTelemetry bridge
//   - correlation fields pulled from the context (trace, run, task, provider)
//   - redaction of provider credentials
//   - per-level sampling; errors are never sampled
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.Info(ctx, "run started", zap.Int("tasks", n))
//
// Output carries the correlation fields:
//
//	{"level":"info","ts":"2026-03-02T10:15:30Z","msg":"run started","run.id":"...","tasks":3}
//
// Configuration comes from the "logging" section of the designorch config
// file and the DESIGNORCH_LOGGING_* environment variables.
package logging
