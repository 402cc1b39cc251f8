// Package httpapi exposes the prediction pipeline over REST, plus the
// health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emberwatch/fire-risk-service/internal/domain"
	"github.com/emberwatch/fire-risk-service/internal/pipeline"
)

// Predictor is the pipeline surface the API serves.
type Predictor interface {
	PredictRegion(ctx context.Context, regionID string) (*pipeline.Result, error)
	ExplainCell(ctx context.Context, regionID, cellID string) (*pipeline.CellDetail, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// DefaultPredictTimeout caps a whole prediction run triggered over HTTP.
const DefaultPredictTimeout = 30 * time.Second

// Params bundles the server's collaborators.
type Params struct {
	Addr           string
	Catalog        *domain.Catalog
	Predictor      Predictor
	Ready          ReadinessChecker
	ModelLoaded    bool
	PredictTimeout time.Duration
	Logger         *slog.Logger
}

// Server exposes the prediction API and operational HTTP endpoints.
type Server struct {
	httpServer     *http.Server
	catalog        *domain.Catalog
	predictor      Predictor
	modelLoaded    bool
	predictTimeout time.Duration
	logger         *slog.Logger
}

// NewServer creates the HTTP server with all API and operational routes.
func NewServer(p Params) *Server {
	timeout := p.PredictTimeout
	if timeout <= 0 {
		timeout = DefaultPredictTimeout
	}

	s := &Server{
		catalog:        p.Catalog,
		predictor:      p.Predictor,
		modelLoaded:    p.ModelLoaded,
		predictTimeout: timeout,
		logger:         p.Logger,
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/regions", s.handleListRegions)
		r.Get("/regions/{regionID}", s.handleGetRegion)
		r.Get("/regions/{regionID}/cells/{cellID}", s.handleExplainCell)
		r.Post("/predict", s.handlePredict)
	})
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(p.Ready))
	r.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         p.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: timeout + 10*time.Second, // must outlast a full prediction run
		IdleTimeout:  60 * time.Second,
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

func (s *Server) handleListRegions(w http.ResponseWriter, _ *http.Request) {
	regions := s.catalog.List()
	infos := make([]regionInfo, 0, len(regions))
	for _, region := range regions {
		infos = append(infos, newRegionInfo(region))
	}
	writeJSON(w, http.StatusOK, listRegionsResponse{Count: len(infos), Regions: infos})
}

func (s *Server) handleGetRegion(w http.ResponseWriter, r *http.Request) {
	region, err := s.catalog.Get(chi.URLParam(r, "regionID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	cells, err := domain.Partition(region)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, regionDetailResponse{
		Region: newRegionInfo(region),
		Cells:  cells,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeStatus(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.RegionID == "" {
		s.writeStatus(w, http.StatusBadRequest, errors.New("region_id is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.predictTimeout)
	defer cancel()

	result, err := s.predictor.PredictRegion(ctx, req.RegionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExplainCell(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.predictTimeout)
	defer cancel()

	detail, err := s.predictor.ExplainCell(ctx, chi.URLParam(r, "regionID"), chi.URLParam(r, "cellID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:           "healthy",
		ModelLoaded:      s.modelLoaded,
		RegionsAvailable: s.catalog.Count(),
	})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// writeError maps domain errors to HTTP statuses: unknown ids are 404,
// malformed regions 400, anything else an opaque 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var invalid *domain.InvalidRegionError
	switch {
	case errors.Is(err, domain.ErrUnknownRegion) || errors.Is(err, domain.ErrUnknownCell):
		s.writeStatus(w, http.StatusNotFound, err)
	case errors.As(err, &invalid):
		s.writeStatus(w, http.StatusBadRequest, err)
	default:
		s.logger.Error("request failed", "error", err)
		s.writeStatus(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}

// --- response types ---

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type regionInfo struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Center      latLng             `json:"center"`
	Bounds      domain.BoundingBox `json:"bounds"`
	GridCount   int                `json:"grid_count"`
}

func newRegionInfo(region domain.Region) regionInfo {
	lat, lng := region.Bounds.Center()
	return regionInfo{
		ID:          region.ID,
		Name:        region.Name,
		Description: region.Description,
		Center:      latLng{Lat: lat, Lng: lng},
		Bounds:      region.Bounds,
		GridCount:   region.CellCount(),
	}
}

type listRegionsResponse struct {
	Count   int          `json:"count"`
	Regions []regionInfo `json:"regions"`
}

type regionDetailResponse struct {
	Region regionInfo        `json:"region"`
	Cells  []domain.GridCell `json:"cells"`
}

type predictRequest struct {
	RegionID string `json:"region_id"`
}

type healthResponse struct {
	Status           string `json:"status"`
	ModelLoaded      bool   `json:"model_loaded"`
	RegionsAvailable int    `json:"regions_available"`
}
