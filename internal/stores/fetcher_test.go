package stores

import (
	"medprice-backend/internal/telemetry"
	"medprice-backend/lib/testutil"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	testutil.ShutdownTelemetry()
	os.Exit(code)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		store Store
		valid bool
	}{
		{name: "vtex", store: Store{Name: "A", Kind: KindVtex, Domain: "www.a.com.br"}, valid: true},
		{name: "vtex without domain", store: Store{Name: "A", Kind: KindVtex}},
		{name: "vtex base_url", store: Store{Name: "A", Kind: KindVtex, BaseUrl: "http://localhost:8080"}, valid: true},
		{name: "vtex base_url without scheme", store: Store{Name: "A", Kind: KindVtex, BaseUrl: "localhost:8080"}},
		{name: "no name", store: Store{Kind: KindVtex, Domain: "www.a.com.br"}},
		{name: "unknown kind", store: Store{Name: "A", Kind: "magento"}},
		{
			name: "raiadrogasil",
			store: Store{
				Name: "Droga Raia", Kind: KindRaiaDrogasil, Brand: "drogaraia",
				BaseUrl: "https://api.example.com", SiteUrl: "https://www.drogaraia.com.br",
			},
			valid: true,
		},
		{
			name: "raiadrogasil without brand",
			store: Store{
				Name: "Droga Raia", Kind: KindRaiaDrogasil,
				BaseUrl: "https://api.example.com", SiteUrl: "https://www.drogaraia.com.br",
			},
		},
		{
			name:  "html",
			store: newHtmlStore("https://www.example.com.br/busca?q={query}", 0),
			valid: true,
		},
		{
			name:  "html without placeholder",
			store: newHtmlStore("https://www.example.com.br/busca", 0),
		},
		{
			name: "negative rate",
			store: Store{
				Name: "A", Kind: KindVtex, Domain: "www.a.com.br", RateLimit: -1,
			},
		},
	}

	for _, c := range cases {
		err := c.store.Validate()
		if c.valid {
			require.NoError(t, err, c.name)
		} else {
			require.Error(t, err, c.name)
		}
	}
}

func TestBuildDefaultStores(t *testing.T) {
	fetchers, err := Build(DefaultStores(), &telemetry.Recorder{})
	require.NoError(t, err)

	names := make([]string, len(fetchers))
	for i, f := range fetchers {
		names[i] = f.Name()
	}
	require.Equal(t, []string{"Extrafarma", "Pague Menos", "Globo", "Drogasil"}, names)

	_, isVtex := fetchers[0].(Vtex)
	require.True(t, isVtex)
	_, isRD := fetchers[3].(RaiaDrogasil)
	require.True(t, isRD)
}

func TestBuildSkipsDisabled(t *testing.T) {
	stores := DefaultStores()
	stores[1].Disabled = true

	fetchers, err := Build(stores, &telemetry.Recorder{})
	require.NoError(t, err)
	require.Len(t, fetchers, 3)
	for _, f := range fetchers {
		require.NotEqual(t, "Pague Menos", f.Name())
	}
}

func TestBuildRejectsDuplicatesAndInvalid(t *testing.T) {
	stores := append(DefaultStores(),
		Store{Name: "pague  menos", Kind: KindVtex, Domain: "www.other.com.br"},
		Store{Name: "Broken", Kind: KindHtml},
	)

	_, err := Build(stores, &telemetry.Recorder{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicates store Pague Menos")
	require.Contains(t, err.Error(), "Broken")
}

func TestHttpClientOptions(t *testing.T) {
	plain := newHttpClient(Store{Name: "A", Kind: KindVtex, Domain: "a"}, &telemetry.Recorder{})
	_, isTransport := plain.GetClient().Transport.(*http.Transport)
	require.True(t, isTransport)

	bypass := newHttpClient(Store{
		Name:             "B",
		Kind:             KindVtex,
		Domain:           "b",
		CloudflareBypass: true,
		TimeoutSeconds:   3,
		UserAgent:        "medprice/1.0",
	}, &telemetry.Recorder{})
	_, isTransport = bypass.GetClient().Transport.(*http.Transport)
	require.False(t, isTransport)
	require.Equal(t, "medprice/1.0", bypass.Header.Get("user-agent"))
	require.Equal(t, int64(3), int64(bypass.GetClient().Timeout.Seconds()))
}
