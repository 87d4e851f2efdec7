package landing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mpepping/deal-view/internal/state"
	"go.uber.org/zap"
)

func loadedStore() *state.Store {
	st := state.NewStore(zap.NewNop())
	st.LoadDeals([]state.Deal{
		{ID: 10, Title: "Sky Broadband & TV", Provider: state.Provider{ID: 1, Name: "Sky"}, Cost: state.Cost{UpfrontCost: 19.95, TotalContractCost: 642}, ProductTypes: []string{"Broadband", "TV"}, ContractLength: 18},
		{ID: 11, Title: "BT Broadband", Provider: state.Provider{ID: 3, Name: "BT"}, Cost: state.Cost{UpfrontCost: 0, TotalContractCost: 360}, ProductTypes: []string{"Broadband", "Phone"}, ContractLength: 12},
		{ID: 12, Title: "BT Fibre & TV", Provider: state.Provider{ID: 3, Name: "BT"}, Cost: state.Cost{UpfrontCost: 49.99, TotalContractCost: 1018.8}, ProductTypes: []string{"Fibre Broadband", "TV"}, ContractLength: 24},
	})
	return st
}

func newTestHandler(t *testing.T, st *state.Store) *Handler {
	t.Helper()
	handler, err := NewHandler(st, zap.NewNop())
	if err != nil {
		t.Fatalf("NewHandler failed: %v", err)
	}
	return handler
}

func serve(handler http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestServeHealth(t *testing.T) {
	handler := newTestHandler(t, state.NewStore(zap.NewNop()))

	w := serve(handler, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	if body := w.Body.String(); body != `{"status":"healthy"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestServeReady(t *testing.T) {
	handler := newTestHandler(t, loadedStore())

	w := serve(handler, "/ready")

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	if body := w.Body.String(); body != `{"status":"ready"}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestServeReadyEmptyCatalogue(t *testing.T) {
	handler := newTestHandler(t, state.NewStore(zap.NewNop()))

	w := serve(handler, "/ready")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestServeReadyNotInitialized(t *testing.T) {
	handler := &Handler{
		store:  nil, // Not initialized
		logger: zap.NewNop(),
	}

	w := serve(handler, "/ready")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	if w := serve(handler, "/"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected index status 503, got %d", w.Code)
	}
}

func TestServeIndex(t *testing.T) {
	st := loadedStore()
	handler := newTestHandler(t, st)

	w := serve(handler, "/")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected Content-Type %s", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"Showing 3 of 3 deals",
		"Sky Broadband &amp; TV",
		`value="3"`,
		"£49.99",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	// Each provider is offered once
	if n := strings.Count(body, `class="js-filter-provider"`); n != 2 {
		t.Errorf("expected 2 provider controls, got %d", n)
	}

	if strings.Contains(body, "disabled") {
		t.Error("controls should be enabled with a loaded catalogue")
	}
}

func TestServeIndexControlsCallAPI(t *testing.T) {
	handler := newTestHandler(t, loadedStore())

	body := serve(handler, "/").Body.String()

	for _, route := range []string{
		`"/api/filters/products"`,
		`"/api/filters/provider/toggle"`,
		`"/api/sort"`,
	} {
		if !strings.Contains(body, route) {
			t.Errorf("page does not call %s", route)
		}
	}
}

func TestServeIndexFiltered(t *testing.T) {
	st := loadedStore()
	st.ToggleProductFilter("broadband")
	st.ToggleProductFilter("tv")
	st.SetProviderFilter(3)
	st.SetSortMode(state.SortUpfrontCost)
	handler := newTestHandler(t, st)

	body := serve(handler, "/").Body.String()

	if !strings.Contains(body, "Showing 1 of 3 deals") {
		t.Error("expected filtered deal count")
	}
	if !strings.Contains(body, `data-deal-id="12"`) || strings.Contains(body, `data-deal-id="10"`) {
		t.Error("expected only the BT broadband and TV deal")
	}
	if !strings.Contains(body, `value="tv" checked`) {
		t.Error("expected tv control checked")
	}
	if !strings.Contains(body, `value="upfrontCost" selected`) {
		t.Error("expected upfront sort selected")
	}
}

func TestServeIndexNoMatches(t *testing.T) {
	st := loadedStore()
	st.ToggleProductFilter("mobile")
	handler := newTestHandler(t, st)

	body := serve(handler, "/").Body.String()

	if !strings.Contains(body, "No deals match the selected filters.") {
		t.Error("expected empty state row")
	}
}

func TestServeIndexEmptyCatalogue(t *testing.T) {
	handler := newTestHandler(t, state.NewStore(zap.NewNop()))

	body := serve(handler, "/").Body.String()

	if !strings.Contains(body, "disabled") {
		t.Error("controls should be disabled with an empty catalogue")
	}
}

func TestServeNotFound(t *testing.T) {
	handler := newTestHandler(t, state.NewStore(zap.NewNop()))

	w := serve(handler, "/nonexistent")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
