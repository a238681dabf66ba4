// Package http exposes the pipeline over HTTP: health, readiness and
// metrics endpoints, a read-only query API for visualizations, and the
// mutation endpoints UI controls call.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nightsift/sighting-data-service/internal/domain"
	"github.com/nightsift/sighting-data-service/internal/engine"
)

// Server exposes the pipeline's query, mutation, health, and metrics routes.
type Server struct {
	httpServer *http.Server
	engine     *engine.Engine
	logger     *slog.Logger
}

// NewServer wires all routes onto a chi router around the given engine.
func NewServer(addr string, eng *engine.Engine, logger *slog.Logger) *Server {
	s := &Server{
		engine: eng,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/summary", s.handleSummary)
		r.Get("/options", s.handleOptions)
		r.Get("/events", s.handleEvents)

		r.Post("/filters/countries/{code}", s.handleToggleCountry)
		r.Post("/filters/shapes/{shape}", s.handleToggleShape)
		r.Put("/filters/duration-bucket", s.handleSetBucket)
		r.Put("/filters/year-range", s.handleSetYearRange)
		r.Put("/filters/duration-range", s.handleSetDurationRange)
		r.Put("/sort", s.handleSetSort)
		r.Put("/active-view", s.handleSetActiveView)
	})

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// No write timeout: /api/events holds its connection open.
		IdleTimeout: 60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.engine.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// apiSighting is the wire form of a record. Coordinates are pointers so
// that non-finite values serialize as null ("unplottable") instead of
// breaking JSON encoding.
type apiSighting struct {
	ID              string   `json:"id"`
	Datetime        string   `json:"datetime"`
	OccurredAt      string   `json:"occurred_at"`
	ReportedAt      string   `json:"reported_at,omitempty"`
	City            string   `json:"city"`
	Region          string   `json:"region"`
	Country         string   `json:"country"`
	Shape           string   `json:"shape"`
	DurationSeconds float64  `json:"duration_seconds"`
	DurationBucket  string   `json:"duration_bucket"`
	Comments        string   `json:"comments"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
}

func toAPISighting(s domain.Sighting) apiSighting {
	out := apiSighting{
		ID:              s.ID,
		Datetime:        s.RawDatetimeText,
		OccurredAt:      s.OccurredAt.Format(time.RFC3339),
		City:            s.City,
		Region:          s.RegionCode,
		Country:         s.CountryCode,
		Shape:           s.ShapeCategory,
		DurationSeconds: s.DurationSeconds,
		DurationBucket:  string(s.DurationBucket),
		Comments:        s.Comments,
		Latitude:        finiteOrNil(s.Latitude),
		Longitude:       finiteOrNil(s.Longitude),
	}
	if !s.ReportedAt.IsZero() {
		out.ReportedAt = s.ReportedAt.Format(time.RFC3339)
	}
	return out
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	view := s.engine.View()
	records := make([]apiSighting, len(view))
	for i, rec := range view {
		records[i] = toAPISighting(rec)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":     s.engine.TotalCount(),
		"shown":     len(records),
		"sort_mode": s.engine.SortMode(),
		"records":   records,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.summary())
}

func (s *Server) summary() map[string]any {
	buckets := s.engine.BucketCounts()
	return map[string]any{
		"total":       s.engine.TotalCount(),
		"shown":       len(s.engine.View()),
		"sort_mode":   s.engine.SortMode(),
		"active_view": s.engine.ActiveView(),
		"buckets": map[string]int{
			"short":  buckets[domain.BucketShort],
			"medium": buckets[domain.BucketMedium],
			"long":   buckets[domain.BucketLong],
		},
		"criteria": s.engine.Criteria(),
	}
}

// handleOptions serves the shared enumerations so UI option lists and the
// pipeline validate against the same allow-lists.
func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"countries": domain.AllowedCountries,
		"shapes":    domain.AllowedShapes,
		"buckets":   []domain.DurationBucket{domain.BucketShort, domain.BucketMedium, domain.BucketLong},
		"sort_modes": []engine.SortMode{
			engine.SortNewest, engine.SortOldest,
			engine.SortDurationHigh, engine.SortDurationLow,
			engine.SortCountryAZ, engine.SortShapeAZ,
		},
		"views": []engine.ViewKind{
			engine.ViewGrid, engine.ViewMap, engine.ViewTimeline, engine.ViewHeatmap,
		},
	})
}

// handleEvents streams view-change notifications as server-sent events.
// Single-slot like the notifier underneath: a new subscriber displaces the
// previous one, matching the one-active-visualization design.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// Buffered by one: a burst of mutations coalesces into a single
	// refresh, which is all a redraw needs.
	changes := make(chan struct{}, 1)
	s.engine.OnViewChanged(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	send := func() {
		data, err := json.Marshal(s.summary())
		if err != nil {
			s.logger.Error("marshal view event", "error", err)
			return
		}
		_, _ = w.Write([]byte("event: view-changed\ndata: "))
		_, _ = w.Write(data)
		_, _ = w.Write([]byte("\n\n"))
		flusher.Flush()
	}
	send()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-changes:
			send()
		}
	}
}

func (s *Server) handleToggleCountry(w http.ResponseWriter, r *http.Request) {
	s.engine.ToggleCountry(chi.URLParam(r, "code"))
	writeJSON(w, http.StatusOK, s.summary())
}

func (s *Server) handleToggleShape(w http.ResponseWriter, r *http.Request) {
	s.engine.ToggleShape(chi.URLParam(r, "shape"))
	writeJSON(w, http.StatusOK, s.summary())
}

func (s *Server) handleSetBucket(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Bucket string `json:"bucket"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.engine.SetDurationBucketFilter(body.Bucket); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.summary())
}

// Range bodies are clamped by the engine, never rejected.
func (s *Server) handleSetYearRange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Min int `json:"min"`
		Max int `json:"max"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.engine.SetYearRange(body.Min, body.Max)
	writeJSON(w, http.StatusOK, s.summary())
}

func (s *Server) handleSetDurationRange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Min int `json:"min"`
		Max int `json:"max"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.engine.SetDurationMinutesRange(body.Min, body.Max)
	writeJSON(w, http.StatusOK, s.summary())
}

func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	mode, err := engine.ParseSortMode(body.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.engine.SetSortMode(mode)
	writeJSON(w, http.StatusOK, s.summary())
}

func (s *Server) handleSetActiveView(w http.ResponseWriter, r *http.Request) {
	var body struct {
		View string `json:"view"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	view, err := engine.ParseViewKind(body.View)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.engine.SetActiveView(view)
	writeJSON(w, http.StatusOK, s.summary())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
