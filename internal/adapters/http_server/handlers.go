package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/b-coman/prop-management-sub006/internal/adapters/observability"
	"github.com/b-coman/prop-management-sub006/internal/app"
	"github.com/b-coman/prop-management-sub006/internal/domain"
)

type Handlers struct {
	Cal  *app.CalendarService
	Mut  *app.MutationService
	Sync *app.SyncService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/properties/{propertyID}", func(r chi.Router) {
		r.Get("/calendar/{month}", h.getMonth)
		r.Put("/calendar/{month}/days/{day}", h.toggleDay)
		r.Post("/calendar/days", h.toggleRange)
		r.Get("/feeds", h.listFeeds)
		r.Post("/feeds", h.addFeed)
	})
	s.mux.Patch("/v1/feeds/{feedID}", h.patchFeed)
	s.mux.Delete("/v1/feeds/{feedID}", h.deleteFeed)
	s.mux.Post("/v1/feeds/{feedID}/sync", h.syncFeed)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP. Guard refusals are
// conflicts and carry the guard's message verbatim so the UI can show it;
// feed fetch/parse failures are upstream faults, not ours.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccessDenied):
		writeProblem(w, http.StatusForbidden, "Forbidden", "access denied")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "resource not found")
	case domain.IsGuardError(err):
		observability.ObserveGuardRejection(guardReason(err))
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrFeedDisabled):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrFeedFetch), errors.Is(err, domain.ErrFeedParse):
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func guardReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrActiveHold):
		return "hold"
	case errors.Is(err, domain.ErrExternallyBlocked):
		return "external"
	default:
		return "booking"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func monthParam(r *http.Request) (domain.YearMonth, error) {
	return domain.ParseYearMonth(chi.URLParam(r, "month"))
}

// ---- calendar ----

func (h *Handlers) getMonth(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	ym, err := monthParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid month", "month must look like 2025-06")
		return
	}

	view, err := h.Cal.ResolveMonth(r.Context(), propertyID, ym)
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(view)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write month view body")
	}
}

type toggleDayRequest struct {
	Block bool `json:"block"`
}

func (h *Handlers) toggleDay(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	ym, err := monthParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid month", "month must look like 2025-06")
		return
	}
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil || day < 1 || day > ym.Days() {
		writeProblem(w, http.StatusBadRequest, "Invalid day", "day is out of range for the month")
		return
	}
	var req toggleDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"block\": true|false}")
		return
	}

	if err := h.Mut.ToggleDay(r.Context(), propertyID, ym, day, req.Block); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"month": ym.String(), "day": day, "block": req.Block})
}

type toggleRangeRequest struct {
	Dates []domain.MonthDay `json:"dates"`
	Block bool              `json:"block"`
}

func (h *Handlers) toggleRange(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	var req toggleRangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"dates\": [...], \"block\": true|false}")
		return
	}
	if len(req.Dates) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "dates must not be empty")
		return
	}

	res, err := h.Mut.ToggleRange(r.Context(), propertyID, req.Dates, req.Block)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- feeds ----

func (h *Handlers) listFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.Sync.ListFeeds(r.Context(), chi.URLParam(r, "propertyID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if feeds == nil {
		feeds = []domain.ICalFeed{}
	}
	writeJSON(w, http.StatusOK, feeds)
}

type addFeedRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (h *Handlers) addFeed(w http.ResponseWriter, r *http.Request) {
	var req addFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"name\": ..., \"url\": ...}")
		return
	}
	if req.Name == "" || req.URL == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "name and url are required")
		return
	}

	f, err := h.Sync.AddFeed(r.Context(), chi.URLParam(r, "propertyID"), req.Name, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

type patchFeedRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handlers) patchFeed(w http.ResponseWriter, r *http.Request) {
	var req patchFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected {\"enabled\": true|false}")
		return
	}

	feedID := chi.URLParam(r, "feedID")
	if err := h.Sync.SetFeedEnabled(r.Context(), feedID, *req.Enabled); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": feedID, "enabled": *req.Enabled})
}

func (h *Handlers) deleteFeed(w http.ResponseWriter, r *http.Request) {
	released, err := h.Sync.DeleteFeed(r.Context(), chi.URLParam(r, "feedID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"datesReleased": released})
}

func (h *Handlers) syncFeed(w http.ResponseWriter, r *http.Request) {
	res, err := h.Sync.SyncFeed(r.Context(), chi.URLParam(r, "feedID"))
	if err != nil {
		observability.ObserveFeedSync("error")
		writeError(w, err)
		return
	}
	observability.ObserveFeedSync("success")
	writeJSON(w, http.StatusOK, res)
}
