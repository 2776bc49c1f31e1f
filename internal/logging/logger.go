package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/InayatKang/ilina007-Smart-Irrigation-Analyzer/internal/config"
)

// New returns a colored text logger for dev builds and a JSON logger
// otherwise. Output goes to w, or stdout when w is nil.
func New(w io.Writer, cfg config.Config, version string, appName string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	if version == "dev" || cfg.AppEnv == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}
