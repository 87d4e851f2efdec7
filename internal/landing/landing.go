package landing

import (
	"embed"
	"html/template"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/mpepping/deal-view/internal/state"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFiles embed.FS

// productOptions are the categories offered as product filter controls
var productOptions = []string{"Broadband", "TV", "Mobile"}

var sortOptions = []state.SortMode{
	state.SortDefault,
	state.SortUpfrontCost,
	state.SortTotalContractCost,
}

// Handler provides HTTP handlers for the landing page.
// The page controls call the /api routes on the same origin and reload.
type Handler struct {
	store    *state.Store
	logger   *zap.Logger
	template *template.Template
}

type option struct {
	Value  string
	Label  string
	Active bool
}

type pageData struct {
	Deals           []state.Deal
	Total           int
	ControlsEnabled bool
	Products        []option
	Providers       []option
	Sorts           []option
}

// NewHandler creates a new landing page handler
func NewHandler(st *state.Store, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:    st,
		logger:   logger,
		template: tmpl,
	}, nil
}

// ServeHTTP serves the landing page
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		h.serveIndex(w, r)
	case "/health":
		h.serveHealth(w, r)
	case "/ready":
		h.serveReady(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.template == nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	deals, snap := h.store.ViewWithSnapshot()
	data := pageData{
		Deals:           deals,
		Total:           len(snap.Deals),
		ControlsEnabled: len(snap.Deals) > 0,
		Products:        productControls(snap.ProductFilters),
		Providers:       providerControls(snap),
		Sorts:           sortControls(snap.SortMode),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.ExecuteTemplate(w, "deals.html.tmpl", data); err != nil {
		h.logger.Error("failed to render template", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (h *Handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy"}`))
}

// serveReady reports ready once a non-empty catalogue is loaded
func (h *Handler) serveReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.store == nil || h.store.Len() == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.Write([]byte(`{"status":"ready"}`))
}

func productControls(active []string) []option {
	opts := make([]option, 0, len(productOptions))
	for _, label := range productOptions {
		value := strings.ToLower(label)
		opts = append(opts, option{
			Value:  value,
			Label:  label,
			Active: slices.Contains(active, value),
		})
	}
	return opts
}

// providerControls lists each catalogue provider once, in catalogue order
func providerControls(snap state.Snapshot) []option {
	seen := make(map[int]bool)
	opts := make([]option, 0)
	for _, d := range snap.Deals {
		if seen[d.Provider.ID] {
			continue
		}
		seen[d.Provider.ID] = true
		opts = append(opts, option{
			Value:  strconv.Itoa(d.Provider.ID),
			Label:  d.Provider.Name,
			Active: snap.ProviderFilter != nil && *snap.ProviderFilter == d.Provider.ID,
		})
	}
	return opts
}

func sortControls(current state.SortMode) []option {
	labels := map[state.SortMode]string{
		state.SortDefault:           "Recommended",
		state.SortUpfrontCost:       "Upfront cost",
		state.SortTotalContractCost: "Total contract cost",
	}

	opts := make([]option, 0, len(sortOptions))
	for _, m := range sortOptions {
		opts = append(opts, option{
			Value:  string(m),
			Label:  labels[m],
			Active: m == current,
		})
	}
	return opts
}
