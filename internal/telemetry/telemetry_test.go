package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := &Recorder{}
	scoped := NewScopedAPI("stores", recorder)

	scoped.ReportBroken("vtex.fetch", errors.New("boom"), "Pague Menos")
	scoped.ReportWarning("html.parse-price", "R$ --")
	scoped.ReportDebug("vtex offers", 3)
	scoped.ReportCount("offers", 12)

	broken := recorder.Reports(KindBroken, "")
	require.Len(t, broken, 1)
	require.Equal(t, "stores: vtex.fetch", broken[0].ID)
	require.Equal(t, "Pague Menos", broken[0].Params[1])

	require.Len(t, recorder.Reports(KindWarning, "html.parse-price"), 1)
	require.Equal(t, "stores: vtex offers", recorder.Reports(KindDebug, "")[0].ID)
	require.Equal(t, int64(12), recorder.Reports(KindCount, "offers")[0].Count)
	require.Empty(t, recorder.Reports(KindBroken, "html"))
}

func TestNestedScopes(t *testing.T) {
	recorder := &Recorder{}
	NewScopedAPI("search", NewScopedAPI("server", recorder)).ReportWarning("cache")

	warnings := recorder.Reports(KindWarning, "")
	require.Len(t, warnings, 1)
	require.Equal(t, "server: search: cache", warnings[0].ID)
}
