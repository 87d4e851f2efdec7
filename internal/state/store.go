package state

import (
	"slices"
	"sync"

	"github.com/mpepping/deal-view/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Snapshot is the raw store state delivered to subscribers.
// Subscribers must treat it as read-only.
type Snapshot struct {
	Deals          []Deal
	ProductFilters []string
	ProviderFilter *int
	SortMode       SortMode
}

// Option configures a Store
type Option func(*Store)

// WithCategoryRules replaces the default category rules
func WithCategoryRules(rules CategoryRules) Option {
	return func(s *Store) {
		s.rules = rules
	}
}

// Store owns the deal catalogue and the filter criteria.
//
// Mutations update state under the lock, release it and then broadcast a
// Snapshot. Subscribers may read the store from their callback. A subscriber
// that mutates the store starts a nested broadcast which finishes before the
// outer one resumes, so later subscribers of the outer broadcast receive the
// older snapshot. Concurrent mutators broadcast in the order they release the
// lock, which may differ from the order they took it; subscribers that need
// the latest state should re-read the store instead of trusting the snapshot.
type Store struct {
	mu             sync.RWMutex
	deals          []Deal
	productFilters map[string]struct{}
	providerFilter *int
	sortMode       SortMode
	rules          CategoryRules

	notifier *notify.Notifier[Snapshot]
	logger   *zap.Logger

	// Metrics
	broadcasts     prometheus.Counter
	viewsComputed  prometheus.Counter
	catalogueLoads prometheus.Counter
}

// NewStore creates a store with an empty catalogue and no filters
func NewStore(logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		deals:          make([]Deal, 0),
		productFilters: make(map[string]struct{}),
		sortMode:       SortDefault,
		rules:          DefaultCategoryRules(),
		notifier:       notify.New[Snapshot](),
		logger:         logger,
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealview_broadcasts_total",
			Help: "Total number of state broadcasts to subscribers",
		}),
		viewsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealview_views_computed_total",
			Help: "Total number of derived view computations",
		}),
		catalogueLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dealview_catalogue_loads_total",
			Help: "Total number of catalogue replacements",
		}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Subscribe registers fn for every broadcast and returns its unsubscribe function
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	return s.notifier.Subscribe(fn)
}

// Watch returns a channel-backed subscription with the given buffer
func (s *Store) Watch(buffer int) *notify.Subscription[Snapshot] {
	return notify.Watch(s.notifier, buffer)
}

// LoadDeals replaces the catalogue wholesale
func (s *Store) LoadDeals(deals []Deal) {
	catalogue := cloneDeals(deals)

	s.mu.Lock()
	s.deals = catalogue
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.catalogueLoads.Inc()
	s.logger.Debug("catalogue loaded",
		zap.Int("deals", len(catalogue)),
	)

	s.broadcast(snap)
}

// ToggleProductFilter adds the normalized token if absent, removes it otherwise.
// Blank tokens are ignored.
func (s *Store) ToggleProductFilter(raw string) {
	token := normalizeToken(raw)
	if token == "" {
		s.logger.Debug("ignoring blank product filter")
		return
	}

	s.mu.Lock()
	_, active := s.productFilters[token]
	if active {
		delete(s.productFilters, token)
	} else {
		s.productFilters[token] = struct{}{}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("product filter toggled",
		zap.String("token", token),
		zap.Bool("active", !active),
		zap.Strings("product_filters", snap.ProductFilters),
	)

	s.broadcast(snap)
}

// SetProductFilters replaces the whole product filter set
func (s *Store) SetProductFilters(raw ...string) {
	filters := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if token := normalizeToken(r); token != "" {
			filters[token] = struct{}{}
		}
	}

	s.mu.Lock()
	s.productFilters = filters
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("product filters replaced",
		zap.Strings("product_filters", snap.ProductFilters),
	)

	s.broadcast(snap)
}

// SetProviderFilter restricts the view to one provider
func (s *Store) SetProviderFilter(providerID int) {
	s.mu.Lock()
	s.providerFilter = &providerID
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("provider filter set",
		zap.Int("provider_id", providerID),
	)

	s.broadcast(snap)
}

// ClearProviderFilter removes the provider restriction
func (s *Store) ClearProviderFilter() {
	s.mu.Lock()
	s.providerFilter = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("provider filter cleared")

	s.broadcast(snap)
}

// SetSortMode replaces the sort mode; unknown modes become SortDefault
func (s *Store) SetSortMode(mode SortMode) {
	if !mode.Valid() {
		s.logger.Warn("unknown sort mode, using default",
			zap.String("sort_mode", string(mode)),
		)
		mode = SortDefault
	}

	s.mu.Lock()
	s.sortMode = mode
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("sort mode set",
		zap.String("sort_mode", string(mode)),
	)

	s.broadcast(snap)
}

// View recomputes the filtered and sorted deals on every call.
// The returned deals are copies the caller may modify.
func (s *Store) View() []Deal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.viewsComputed.Inc()
	return ComputeView(s.deals, s.criteriaLocked(), s.rules)
}

// ViewWithSnapshot returns the view together with the state it was computed from
func (s *Store) ViewWithSnapshot() ([]Deal, Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.viewsComputed.Inc()
	return ComputeView(s.deals, s.criteriaLocked(), s.rules), s.snapshotLocked()
}

// Snapshot returns the current raw state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len returns the catalogue size
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deals)
}

// HasProductFilters reports whether any product filter is active
func (s *Store) HasProductFilters() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.productFilters) > 0
}

// HasProviderFilter reports whether a provider filter is active
func (s *Store) HasProviderFilter() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.providerFilter != nil
}

// ProductFiltersSorted returns the active product filter tokens in order
func (s *Store) ProductFiltersSorted() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedFiltersLocked()
}

// ProviderFilter returns the active provider id, if any
func (s *Store) ProviderFilter() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.providerFilter == nil {
		return 0, false
	}
	return *s.providerFilter, true
}

// SortMode returns the current sort mode
func (s *Store) SortMode() SortMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortMode
}

func (s *Store) broadcast(snap Snapshot) {
	s.broadcasts.Inc()
	s.notifier.Broadcast(snap)
}

func (s *Store) sortedFiltersLocked() []string {
	filters := make([]string, 0, len(s.productFilters))
	for token := range s.productFilters {
		filters = append(filters, token)
	}
	slices.Sort(filters)
	return filters
}

func (s *Store) providerFilterLocked() *int {
	if s.providerFilter == nil {
		return nil
	}
	id := *s.providerFilter
	return &id
}

func (s *Store) criteriaLocked() Criteria {
	return Criteria{
		ProductFilters: s.sortedFiltersLocked(),
		ProviderFilter: s.providerFilterLocked(),
		SortMode:       s.sortMode,
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		// The catalogue slice is replaced, never written in place
		Deals:          s.deals,
		ProductFilters: s.sortedFiltersLocked(),
		ProviderFilter: s.providerFilterLocked(),
		SortMode:       s.sortMode,
	}
}

// Describe implements prometheus.Collector
func (s *Store) Describe(ch chan<- *prometheus.Desc) {
	s.broadcasts.Describe(ch)
	s.viewsComputed.Describe(ch)
	s.catalogueLoads.Describe(ch)

	ch <- catalogueDealsDesc
	ch <- productFiltersDesc
	ch <- providerFilterDesc
}

// Collect implements prometheus.Collector
func (s *Store) Collect(ch chan<- prometheus.Metric) {
	s.broadcasts.Collect(ch)
	s.viewsComputed.Collect(ch)
	s.catalogueLoads.Collect(ch)

	s.mu.RLock()
	dealCount := len(s.deals)
	filterCount := len(s.productFilters)
	providerActive := 0.0
	if s.providerFilter != nil {
		providerActive = 1
	}
	s.mu.RUnlock()

	ch <- prometheus.MustNewConstMetric(catalogueDealsDesc, prometheus.GaugeValue, float64(dealCount))
	ch <- prometheus.MustNewConstMetric(productFiltersDesc, prometheus.GaugeValue, float64(filterCount))
	ch <- prometheus.MustNewConstMetric(providerFilterDesc, prometheus.GaugeValue, providerActive)
}

var (
	catalogueDealsDesc = prometheus.NewDesc(
		"dealview_catalogue_deals",
		"Number of deals in the catalogue",
		nil, nil,
	)
	productFiltersDesc = prometheus.NewDesc(
		"dealview_product_filters_active",
		"Number of active product filter tokens",
		nil, nil,
	)
	providerFilterDesc = prometheus.NewDesc(
		"dealview_provider_filter_active",
		"Whether a provider filter is active",
		nil, nil,
	)
)
