package testutil

import (
	"context"
	"errors"
	"fmt"
	"medprice-backend/lib/telemetry"
	"os"
	"sync"
	"testing"
)

var setupOnce sync.Once

// SetupTelemetry installs slog (verbose under `go test -v`) and, when a telemetry.json5
// can be found above the cwd, exports the test's traces so upstream requests can be
// inspected. Telemetry is set up once per test binary.
func SetupTelemetry(t testing.TB, name string) {
	t.Helper()

	setupOnce.Do(func() {
		telemetry.InitSlog(testing.Verbose())

		err := telemetry.SetupFromEnv(context.Background(), fmt.Sprintf("test:%s", name))
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			t.Fatal(err)
		}
	})
}

// ShutdownTelemetry flushes whatever SetupTelemetry exported, call it from TestMain.
func ShutdownTelemetry() {
	err := telemetry.Shutdown(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to shutdown telemetry:", err)
	}
}
