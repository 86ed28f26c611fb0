package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/placement"
)

// CardSource resolves cards for the catalog routes and card placements.
type CardSource interface {
	Get(name string) (*card.Card, error)
	All() []*card.Card
}

// OptionsSource returns the placement options currently in effect.
// The D-Bus PlacementServer satisfies it, so both surfaces share one config.
type OptionsSource interface {
	Options() placement.Options
}

// Handler serves the HTTP API.
type Handler struct {
	cards   CardSource
	options OptionsSource
	logger  *slog.Logger
	router  chi.Router
}

// NewHandler builds the router. cards may be nil, in which case the catalog
// is empty and every card lookup fails.
func NewHandler(cards CardSource, options OptionsSource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		cards:   cards,
		options: options,
		logger:  logger,
	}
	h.router = h.buildRouter()
	return h
}

func (h *Handler) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthzHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/cards", h.listCardsHandler)
		r.Get("/cards/{name}", h.getCardHandler)
		r.Get("/options", h.optionsHandler)
		r.Post("/place", h.placeHandler)
	})

	return r
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}
