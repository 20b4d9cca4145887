package telemetry

import (
	"fmt"
	"log/slog"
)

// SlogAPI implements API on top of the default slog logger.
type SlogAPI struct{}

func (SlogAPI) pairs(id string, params []any) []any {
	out := make([]any, 0, 2+len(params)*2)
	if id != "" {
		out = append(out, "id", id)
	}
	for i, p := range params {
		out = append(out, fmt.Sprintf("params.%d", i), p)
	}
	return out
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	slog.Error("broken component", s.pairs(id, params)...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	slog.Warn("warning", s.pairs(id, params)...)
}

func (s SlogAPI) ReportDebug(msg string, params ...any) {
	slog.Debug(msg, s.pairs("", params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
}
