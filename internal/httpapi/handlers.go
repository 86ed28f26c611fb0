package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/hovercard/internal/adapter/output"
	"github.com/jmylchreest/hovercard/internal/card"
	"github.com/jmylchreest/hovercard/internal/placement"
)

// maxBodyBytes bounds a place request body.
const maxBodyBytes = 64 << 10

type rectRequest struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type placeRequest struct {
	Trigger  rectRequest     `json:"trigger"`
	Viewport placement.Size  `json:"viewport"`
	Popover  *placement.Size `json:"popover,omitempty"`
	Card     string          `json:"card,omitempty"`
	Gap      *int            `json:"gap,omitempty"`
	Margin   *int            `json:"margin,omitempty"`
	Priority []string        `json:"priority,omitempty"`
}

type optionsResponse struct {
	Gap      int              `json:"gap"`
	Margin   int              `json:"margin"`
	Priority []placement.Side `json:"priority"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// busStatus is implemented by option sources that also own a bus name.
type busStatus interface {
	Running() bool
}

func (h *Handler) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if bs, ok := h.options.(busStatus); ok {
		resp["dbus"] = bs.Running()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) listCardsHandler(w http.ResponseWriter, _ *http.Request) {
	cards := []*card.Card{}
	if h.cards != nil {
		cards = h.cards.All()
	}
	writeJSON(w, http.StatusOK, cards)
}

func (h *Handler) getCardHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.lookup(chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) optionsHandler(w http.ResponseWriter, _ *http.Request) {
	opts := h.currentOptions()
	priority := opts.Priority
	if len(priority) == 0 {
		priority = placement.DefaultPriority()
	}
	writeJSON(w, http.StatusOK, optionsResponse{
		Gap:      opts.Gap,
		Margin:   opts.Margin,
		Priority: priority,
	})
}

func (h *Handler) placeHandler(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	opts, err := h.requestOptions(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	popover := placement.Size{}
	if req.Popover != nil {
		popover = *req.Popover
	} else {
		c, err := h.lookup(req.Card)
		if err != nil {
			h.writeError(w, err)
			return
		}
		popover = c.Size()
	}

	trigger := placement.NewRect(req.Trigger.Left, req.Trigger.Top, req.Trigger.Width, req.Trigger.Height)
	report := output.NewReport(trigger, req.Viewport, popover, opts)
	report.Card = req.Card

	h.logger.Debug("http placement computed",
		"card", req.Card,
		"side", report.Result.Placement.String(),
		"clamped", report.Result.Clamped,
		"shifted", report.Result.Shifted,
	)
	writeJSON(w, http.StatusOK, report)
}

// requestOptions overlays per-request overrides on the active options.
func (h *Handler) requestOptions(req placeRequest) (placement.Options, error) {
	opts := h.currentOptions()
	if req.Gap != nil {
		if *req.Gap < 0 {
			return opts, fmt.Errorf("gap must not be negative: %d", *req.Gap)
		}
		opts.Gap = *req.Gap
	}
	if req.Margin != nil {
		if *req.Margin < 0 {
			return opts, fmt.Errorf("margin must not be negative: %d", *req.Margin)
		}
		opts.Margin = *req.Margin
	}
	if len(req.Priority) > 0 {
		priority, err := placement.ParsePriority(req.Priority)
		if err != nil {
			return opts, err
		}
		opts.Priority = priority
	}
	return opts, nil
}

func (h *Handler) currentOptions() placement.Options {
	if h.options == nil {
		return placement.DefaultOptions()
	}
	return h.options.Options()
}

func (h *Handler) lookup(name string) (*card.Card, error) {
	if h.cards == nil {
		return nil, fmt.Errorf("%w: %s", card.ErrUnknownCard, name)
	}
	return h.cards.Get(name)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, card.ErrUnknownCard) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	h.logger.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (req placeRequest) validate() error {
	switch {
	case req.Popover == nil && req.Card == "":
		return errors.New("one of popover or card is required")
	case req.Popover != nil && req.Card != "":
		return errors.New("popover and card are mutually exclusive")
	case req.Trigger.Width < 0 || req.Trigger.Height < 0:
		return fmt.Errorf("trigger size must not be negative: %dx%d", req.Trigger.Width, req.Trigger.Height)
	case req.Viewport.Width < 0 || req.Viewport.Height < 0:
		return fmt.Errorf("viewport size must not be negative: %dx%d", req.Viewport.Width, req.Viewport.Height)
	case req.Popover != nil && (req.Popover.Width < 0 || req.Popover.Height < 0):
		return fmt.Errorf("popover size must not be negative: %dx%d", req.Popover.Width, req.Popover.Height)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}
