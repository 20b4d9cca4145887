package main

import (
	"context"
	"errors"
	"log/slog"
	"medprice-backend/internal/stores"
	"medprice-backend/lib/restyutil"
	"medprice-backend/lib/serviceutil"
	"medprice-backend/lib/telemetry"
	"os"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "medprice-server")
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("no telemetry.json5 found, traces and metrics will not be exported")
	} else if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	output, err := restyutil.NewFilesystemOutput("<dev_state>/resty/stores")
	if err != nil {
		slog.Warn("http exchanges will not be dumped", "err", err)
		return
	}
	slog.Debug("dumping http exchanges", "dir", output.Directory())
	stores.SetRestyInstrumentOutput(output)
}
