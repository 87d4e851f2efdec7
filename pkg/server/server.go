package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mpepping/deal-view/internal/limiter"
	"github.com/mpepping/deal-view/internal/state"
	"github.com/mpepping/deal-view/pkg/limits"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	// ErrEmptyBody is returned when a mutation request has no body
	ErrEmptyBody = errors.New("request body is required")
)

// DealServer exposes the deal store over HTTP
type DealServer struct {
	store   *state.Store
	limiter *limiter.ClientLimiter
	logger  *zap.Logger

	// Metrics
	mutations   *prometheus.CounterVec
	rateLimited prometheus.Counter
}

// ViewResponse is the derived view plus the flags a UI needs to render controls
type ViewResponse struct {
	Deals             []state.Deal   `json:"deals"`
	Total             int            `json:"total"`
	ProductFilters    []string       `json:"productFilters"`
	ProviderFilter    *int           `json:"providerFilter"`
	SortMode          state.SortMode `json:"sortMode"`
	HasProductFilters bool           `json:"hasProductFilters"`
	HasProviderFilter bool           `json:"hasProviderFilter"`
	ControlsEnabled   bool           `json:"controlsEnabled"`
}

type productFilterRequest struct {
	Value string `json:"value"`
}

type productFiltersRequest struct {
	Values []string `json:"values"`
}

type providerFilterRequest struct {
	ProviderID *int `json:"providerId"`
}

type sortRequest struct {
	Mode string `json:"mode"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewDealServer creates a new deal server
func NewDealServer(st *state.Store, lim *limiter.ClientLimiter, logger *zap.Logger) *DealServer {
	return &DealServer{
		store:   st,
		limiter: lim,
		logger:  logger,
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealview_api_mutations_total",
				Help: "Total number of state mutations by operation",
			},
			[]string{"operation"},
		),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealview_api_rate_limited_total",
			Help: "Total number of mutation requests rejected by the rate limiter",
		}),
	}
}

// Routes returns the API router
func (s *DealServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.logger))

	r.Get("/api/deals", s.handleView)
	r.Get("/api/watch", s.handleWatch)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Post("/api/filters/products", s.handleToggleProduct)
		r.Put("/api/filters/products", s.handleSetProducts)
		r.Put("/api/filters/provider", s.handleSetProvider)
		r.Post("/api/filters/provider/toggle", s.handleToggleProvider)
		r.Delete("/api/filters/provider", s.handleClearProvider)
		r.Put("/api/sort", s.handleSort)
	})

	return r
}

// View builds the current view response
func (s *DealServer) View() ViewResponse {
	deals, snap := s.store.ViewWithSnapshot()
	return ViewResponse{
		Deals:             deals,
		Total:             len(snap.Deals),
		ProductFilters:    snap.ProductFilters,
		ProviderFilter:    snap.ProviderFilter,
		SortMode:          snap.SortMode,
		HasProductFilters: len(snap.ProductFilters) > 0,
		HasProviderFilter: snap.ProviderFilter != nil,
		ControlsEnabled:   len(snap.Deals) > 0,
	}
}

func (s *DealServer) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.View())
}

func (s *DealServer) handleToggleProduct(w http.ResponseWriter, r *http.Request) {
	var req productFilterRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.store.ToggleProductFilter(req.Value)
	s.mutated(w, "toggle_product")
}

func (s *DealServer) handleSetProducts(w http.ResponseWriter, r *http.Request) {
	var req productFiltersRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.store.SetProductFilters(req.Values...)
	s.mutated(w, "set_products")
}

func (s *DealServer) handleSetProvider(w http.ResponseWriter, r *http.Request) {
	var req providerFilterRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.ProviderID == nil {
		s.store.ClearProviderFilter()
	} else {
		s.store.SetProviderFilter(*req.ProviderID)
	}
	s.mutated(w, "set_provider")
}

// handleToggleProvider clears the filter when the active provider is selected again
func (s *DealServer) handleToggleProvider(w http.ResponseWriter, r *http.Request) {
	var req providerFilterRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.ProviderID == nil {
		s.writeError(w, http.StatusBadRequest, "providerId is required")
		return
	}

	// Read and write are separate store calls; concurrent togglers may race
	if current, ok := s.store.ProviderFilter(); ok && current == *req.ProviderID {
		s.store.ClearProviderFilter()
	} else {
		s.store.SetProviderFilter(*req.ProviderID)
	}
	s.mutated(w, "toggle_provider")
}

func (s *DealServer) handleClearProvider(w http.ResponseWriter, r *http.Request) {
	s.store.ClearProviderFilter()
	s.mutated(w, "clear_provider")
}

func (s *DealServer) handleSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.store.SetSortMode(state.ParseSortMode(req.Mode))
	s.mutated(w, "set_sort")
}

func (s *DealServer) mutated(w http.ResponseWriter, operation string) {
	s.mutations.WithLabelValues(operation).Inc()
	s.writeJSON(w, http.StatusOK, s.View())
}

func (s *DealServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r)
		if client != "" && !s.limiter.Allow(client) {
			s.rateLimited.Inc()
			s.logger.Warn("rate limit exceeded",
				zap.String("client_ip", client),
			)
			s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *DealServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := decodeBody(r, v)
	if err == nil {
		return true
	}

	s.logger.Warn("invalid request body",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	s.writeError(w, http.StatusBadRequest, err.Error())
	return false
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, limits.RequestBodyBytesMax))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid request body: %w", err)
	}

	return nil
}

func (s *DealServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

func (s *DealServer) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// clientIP extracts the host part of the remote address
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Describe implements prometheus.Collector
func (s *DealServer) Describe(ch chan<- *prometheus.Desc) {
	s.mutations.Describe(ch)
	s.rateLimited.Describe(ch)
}

// Collect implements prometheus.Collector
func (s *DealServer) Collect(ch chan<- prometheus.Metric) {
	s.mutations.Collect(ch)
	s.rateLimited.Collect(ch)
}
