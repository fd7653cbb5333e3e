package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides structured logging with domain helpers
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new JSON logger
func NewLogger() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// EvaluationLogger logs a damping matrix evaluation
func (l *Logger) EvaluationLogger(scenarioID string, t float64, entries int, duration time.Duration) {
	l.Info("Matrix Evaluated",
		"scenario_id", scenarioID,
		"time", t,
		"entries", entries,
		"duration_us", duration.Microseconds(),
	)
}

// SimulationLogger logs a completed simulation run
func (l *Logger) SimulationLogger(scenarioID string, t0, tmax float64, timePoints int, duration time.Duration) {
	l.Info("Simulation Completed",
		"scenario_id", scenarioID,
		"t0", t0,
		"tmax", tmax,
		"time_points", timePoints,
		"duration_ms", duration.Milliseconds(),
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}
