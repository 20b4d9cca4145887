package search

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service, _ := newTestService(t, Options{})
	server := httptest.NewServer(NewHandler(service, slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(server.Close)
	return server
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestHttpSearch(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{
		"/api/search?remedio=dipirona",
		"/api/search?q=dipirona",
		"/?remedio=dipirona",
	} {
		res, err := http.Get(server.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode, path)
		require.Equal(t, "s-maxage=60", res.Header.Get("cache-control"))

		offers := decode[[]OfferJSON](t, res)
		require.Len(t, offers, 3, path)
		require.Equal(t, OfferJSON{
			Loja:   "Pague Menos",
			Nome:   "dipirona dipirona",
			Preco:  12.3,
			Link:   "https://paguemenos/1",
			Imagem: "https://paguemenos/1.jpg",
		}, offers[0])
		require.Equal(t, 25.9, offers[2].Preco)
	}
}

func TestHttpSearchWireKeys(t *testing.T) {
	server := newTestServer(t)

	res, err := http.Get(server.URL + "/api/search?remedio=dipirona&lojas=extrafarma")
	require.NoError(t, err)
	defer res.Body.Close()

	var raw []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&raw))
	require.Len(t, raw, 1)
	require.Equal(t, map[string]any{
		"loja":   "Extrafarma",
		"nome":   "dipirona dipirona",
		"preco":  25.9,
		"link":   "https://extrafarma/1",
		"imagem": "",
	}, raw[0])
}

func TestHttpSearchStoreFilter(t *testing.T) {
	server := newTestServer(t)

	for _, query := range []string{
		"lojas=drogasil,extrafarma",
		"lojas=drogasil&lojas=extrafarma",
		"lojas=Drogasil,%20Extrafarma",
	} {
		res, err := http.Get(server.URL + "/api/search?remedio=dipirona&" + query)
		require.NoError(t, err)
		offers := decode[[]OfferJSON](t, res)
		require.Len(t, offers, 2, query)
		require.Equal(t, "Drogasil", offers[0].Loja)
		require.Equal(t, "Extrafarma", offers[1].Loja)
	}
}

func TestHttpSearchMissingQuery(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/api/search", "/api/search?remedio=%20%20", "/"} {
		res, err := http.Get(server.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)
		body := decode[map[string]string](t, res)
		require.Equal(t, missingQueryMessage, body["mensagem"])
	}
}

func TestHttpSearchUnknownStore(t *testing.T) {
	server := newTestServer(t)

	res, err := http.Get(server.URL + "/api/search?remedio=dipirona&lojas=panvel")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	body := decode[map[string]string](t, res)
	require.Contains(t, body["error"], "panvel")
}

func TestHttpSearchPost(t *testing.T) {
	server := newTestServer(t)

	res, err := http.Post(
		server.URL+"/api/search",
		"application/json",
		strings.NewReader(`{"remedio": "dipirona", "lojas": ["pague menos", "globo"]}`),
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	offers := decode[[]OfferJSON](t, res)
	require.Len(t, offers, 1)
	require.Equal(t, "Pague Menos", offers[0].Loja)

	res, err = http.PostForm(server.URL+"/api/search", url.Values{
		"remedio": {"dipirona"},
		"lojas":   {"drogasil"},
	})
	require.NoError(t, err)
	offers = decode[[]OfferJSON](t, res)
	require.Len(t, offers, 1)
	require.Equal(t, "Drogasil", offers[0].Loja)

	res, err = http.Post(server.URL+"/api/search", "application/json", strings.NewReader(`{"remedio": `))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()
}

func TestHttpStoresAndHealth(t *testing.T) {
	server := newTestServer(t)

	res, err := http.Get(server.URL + "/api/stores")
	require.NoError(t, err)
	require.Equal(t, []StoreJSON{
		{Nome: "Extrafarma", Tipo: "vtex"},
		{Nome: "Pague Menos", Tipo: "vtex"},
		{Nome: "Drogasil", Tipo: "raiadrogasil"},
		{Nome: "Globo", Tipo: "vtex"},
	}, decode[[]StoreJSON](t, res))

	res, err = http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, res))
}

func TestHttpCors(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/search?remedio=dipirona", nil)
	require.NoError(t, err)
	req.Header.Set("origin", "https://front.example.com")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, "*", res.Header.Get("access-control-allow-origin"))
}

func TestConnectSearch(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(server.Client(), server.URL)

	offers, err := client.Search(context.Background(), SearchRequest{Remedio: "dipirona", Lojas: []string{"globo"}})
	require.NoError(t, err)
	require.NotNil(t, offers)
	require.Empty(t, offers)

	offers, err = client.Search(context.Background(), SearchRequest{Q: "dipirona"})
	require.NoError(t, err)
	require.Len(t, offers, 3)
	require.Equal(t, 12.3, offers[0].Preco)

	_, err = client.Search(context.Background(), SearchRequest{})
	require.Error(t, err)
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.Search(context.Background(), SearchRequest{Remedio: "dipirona", Lojas: []string{"panvel"}})
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
