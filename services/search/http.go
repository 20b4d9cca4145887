package search

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const missingQueryMessage = "Use ?remedio=nome_do_medicamento"

// search responses may be shared by caches for a minute
const cacheControl = "s-maxage=60"

// NewHandler routes the JSON API and the Connect endpoint of `service`.
func NewHandler(service Service, logger *slog.Logger) http.Handler {
	h := handler{service: service, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		MaxAge:         300,
	}))

	r.Get("/", h.searchQuery)
	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", h.searchQuery)
		r.Post("/search", h.searchBody)
		r.Get("/stores", h.stores)
	})

	procedure, connectHandler := NewConnectHandler(service)
	r.Handle(procedure, connectHandler)

	return r
}

type handler struct {
	service Service
	logger  *slog.Logger
}

// searchQuery handles GET /api/search?remedio=...&lojas=a,b
func (h handler) searchQuery(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	h.search(w, r, SearchRequest{
		Remedio: values.Get("remedio"),
		Q:       values.Get("q"),
		Lojas:   values["lojas"],
	})
}

// searchBody handles POST /api/search with a json or form body.
func (h handler) searchBody(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("content-type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			h.logger.Warn("invalid search body", "err", err)
			writeError(w, h.logger, http.StatusBadRequest, "invalid json body")
			return
		}
	} else {
		err := r.ParseForm()
		if err != nil {
			h.logger.Warn("invalid search form", "err", err)
			writeError(w, h.logger, http.StatusBadRequest, "invalid form body")
			return
		}
		req = SearchRequest{
			Remedio: r.Form.Get("remedio"),
			Q:       r.Form.Get("q"),
			Lojas:   r.Form["lojas"],
		}
	}

	h.search(w, r, req)
}

func (h handler) search(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	offers, err := h.service.Search(r.Context(), req.query(), req.storeNames())
	switch {
	case errors.Is(err, ErrMissingQuery):
		writeJSON(w, h.logger, http.StatusOK, map[string]string{
			"mensagem": missingQueryMessage,
		})
		return
	case errors.Is(err, ErrUnknownStore):
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("search failed", "query", req.query(), "err", err)
		writeError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("cache-control", cacheControl)
	writeJSON(w, h.logger, http.StatusOK, ToOffersJSON(offers))
}

func (h handler) stores(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, toStoresJSON(h.service.Stores()))
}

func (h handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		logger.Error("failed to encode json response", "err", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, map[string]string{"error": message})
}
