package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventstats/internal/logger"
	"eventstats/internal/metrics"
	"eventstats/internal/store"
	"eventstats/pkg/models"
)

// Stats is the breakdown query surface the server exposes.
type Stats interface {
	Breakdown(ctx context.Context, dimension, start, end string) ([]models.BreakdownRow, error)
}

// Server is the thin HTTP layer over the breakdown queries.
type Server struct {
	stats Stats
	srv   *http.Server
}

// NewServer creates a server listening on addr.
func NewServer(addr string, stats Stats) *Server {
	s := &Server{stats: stats}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the route table. Split out so tests can drive it with
// httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, dimension := range []string{"browser", "os", "device"} {
		mux.HandleFunc("GET /stats/"+dimension, s.handleStats(dimension))
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Infof("API server listening on %s", s.srv.Addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleStats(dimension string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var start, end string
		switch {
		case len(q) == 0:
			// Whole table.
		case len(q) == 2 && q.Has("start_date") && q.Has("end_date"):
			var err error
			if start, err = validateTimestamp(q.Get("start_date")); err != nil {
				s.writeError(w, dimension, http.StatusBadRequest, err.Error())
				return
			}
			if end, err = validateTimestamp(q.Get("end_date")); err != nil {
				s.writeError(w, dimension, http.StatusBadRequest, err.Error())
				return
			}
		default:
			s.writeError(w, dimension, http.StatusBadRequest,
				"only one start_date and one end_date or none should be provided")
			return
		}

		rows, err := s.stats.Breakdown(r.Context(), dimension, start, end)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.writeError(w, dimension, http.StatusNotFound, "no events found for indicated timeframe")
		case err != nil:
			logger.Errorf("Breakdown query failed (dimension=%s): %v", dimension, err)
			s.writeError(w, dimension, http.StatusInternalServerError, "querying the event table failed")
		default:
			s.writeJSON(w, dimension, http.StatusOK, rows)
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, dimension string, status int, body any) {
	metrics.StatsRequests.WithLabelValues(dimension, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, dimension string, status int, msg string) {
	s.writeJSON(w, dimension, status, map[string]string{"error": msg})
}

// validateTimestamp accepts exactly the "2006-01-02T15:04:05Z" shape and
// converts it to the stored "2006-01-02 15:04:05" layout.
func validateTimestamp(v string) (string, error) {
	t, err := time.Parse("2006-01-02T15:04:05Z", v)
	if err != nil {
		return "", fmt.Errorf("%q is not a valid datetime in the ISO 8601 format, e.g. 2020-02-13T20:56:34Z", v)
	}
	return t.Format("2006-01-02 15:04:05"), nil
}
