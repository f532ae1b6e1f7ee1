package invoice

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/report"
	"go.uber.org/zap"
)

// Setting keys for the persisted view preferences.
const (
	SettingKeyCustomerFilter = "customer_name_filter"
	SettingKeySortOrder      = "sort_order"
)

const defaultPersistTimeout = 5 * time.Second

// preferenceSnapshot carries one pending preference write. Rapid
// repeated writes are coalesced down to the latest snapshot.
type preferenceSnapshot struct {
	filterText string
	sortOrder  invoice.SortOrder
}

// CacheService is the single read path for presentation-style
// consumers. It owns a volatile in-memory mirror of the invoice set,
// the active filter text and sort order, and persists both preferences
// in the background without ever blocking or failing a read.
//
// The mirror's staleness contract is explicit: it is populated lazily
// on first access, wholly replaced by Reload, and incrementally patched
// after single-record writes.
type CacheService struct {
	invoices invoice.Repository
	settings invoice.SettingRepository
	logger   *zap.Logger

	mu         sync.RWMutex
	mirror     []invoice.Invoice
	loaded     bool
	filterText string
	sortOrder  invoice.SortOrder

	queue          chan preferenceSnapshot
	stopCh         chan struct{}
	doneCh         chan struct{}
	persistTimeout time.Duration
}

// CacheServiceOption is a functional option for configuring CacheService
type CacheServiceOption func(*CacheService)

// WithLogger sets the logger used for background persistence failures.
func WithLogger(logger *zap.Logger) CacheServiceOption {
	return func(s *CacheService) {
		s.logger = logger
	}
}

// WithPersistTimeout bounds each background preference write.
func WithPersistTimeout(timeout time.Duration) CacheServiceOption {
	return func(s *CacheService) {
		s.persistTimeout = timeout
	}
}

// NewCacheService creates a new CacheService and starts its background
// preference writer. Call Close to stop it.
func NewCacheService(invoices invoice.Repository, settings invoice.SettingRepository, opts ...CacheServiceOption) *CacheService {
	s := &CacheService{
		invoices:       invoices,
		settings:       settings,
		logger:         zap.NewNop(),
		sortOrder:      invoice.DefaultSortOrder,
		queue:          make(chan preferenceSnapshot, 1),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
		persistTimeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("invoice-cache")

	go s.persistLoop()

	return s
}

// Close stops the background preference writer, flushing at most one
// pending write first.
func (s *CacheService) Close() {
	close(s.stopCh)
	<-s.doneCh
}

// LoadPreferences restores the persisted filter text and sort order.
// Missing settings leave the defaults in place.
func (s *CacheService) LoadPreferences(ctx context.Context) error {
	filterText, err := s.settings.Get(ctx, SettingKeyCustomerFilter)
	if err != nil {
		return err
	}
	sortValue, err := s.settings.Get(ctx, SettingKeySortOrder)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterText = filterText
	if sortValue != "" {
		s.sortOrder = invoice.ParseSortOrder(sortValue)
	}
	return nil
}

// SetFilter updates the active customer-name filter text.
func (s *CacheService) SetFilter(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterText = text
}

// Filter returns the active customer-name filter text.
func (s *CacheService) Filter() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterText
}

// SetSortOrder updates the active sort criterion.
func (s *CacheService) SetSortOrder(order invoice.SortOrder) {
	if !order.IsValid() {
		order = invoice.DefaultSortOrder
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortOrder = order
}

// SortOrder returns the active sort criterion.
func (s *CacheService) SortOrder() invoice.SortOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortOrder
}

// Reload unconditionally replaces the mirror with a fresh load from the
// store, discarding any prior mirror contents.
func (s *CacheService) Reload(ctx context.Context) error {
	invoices, err := s.invoices.List(ctx, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirror = invoices
	s.loaded = true
	return nil
}

// EnsureLoaded populates the mirror if it has never been loaded;
// otherwise it is a no-op. Read accessors that tolerate staleness
// between explicit reloads go through here.
func (s *CacheService) EnsureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Reload(ctx)
}

// Filtered returns the mirror filtered by case-insensitive substring
// match of the active filter text against customer name (an empty
// filter matches all), sorted by the active sort order. The active
// preferences are persisted in the background; that write is never
// awaited and its failure never reaches the caller.
func (s *CacheService) Filtered(ctx context.Context) ([]invoice.Invoice, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	filterText := s.filterText
	sortOrder := s.sortOrder
	result := make([]invoice.Invoice, 0, len(s.mirror))
	needle := strings.ToLower(filterText)
	for i := range s.mirror {
		if needle == "" || strings.Contains(strings.ToLower(s.mirror[i].CustomerName), needle) {
			result = append(result, s.mirror[i])
		}
	}
	s.mu.RUnlock()

	switch sortOrder {
	case invoice.SortIDDesc:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].ID > result[j].ID
		})
	case invoice.SortCustomerNameAsc:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].CustomerName < result[j].CustomerName
		})
	default:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].IssueDate.After(result[j].IssueDate)
		})
	}

	s.enqueuePreferences(preferenceSnapshot{filterText: filterText, sortOrder: sortOrder})

	return result, nil
}

// Create validates the invoice, writes it to the store, and appends it
// to the mirror so it is visible without an explicit reload.
func (s *CacheService) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		s.mirror = append(s.mirror, *inv)
	}
	return nil
}

// Update validates the invoice, replaces it in the store, then patches
// the matching mirror element in place, preserving its position.
func (s *CacheService) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := s.invoices.Replace(ctx, inv); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mirror {
		if s.mirror[i].ID == inv.ID {
			s.mirror[i] = *inv
			break
		}
	}
	return nil
}

// Delete removes the invoice from the store and from the mirror.
func (s *CacheService) Delete(ctx context.Context, id int64) error {
	if err := s.invoices.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mirror {
		if s.mirror[i].ID == id {
			// Rebuild rather than splice so snapshots handed out by All
			// keep seeing their own backing array untouched.
			mirror := make([]invoice.Invoice, 0, len(s.mirror)-1)
			mirror = append(mirror, s.mirror[:i]...)
			mirror = append(mirror, s.mirror[i+1:]...)
			s.mirror = mirror
			break
		}
	}
	return nil
}

// GetByID checks the mirror first and falls back to the store on a
// miss, appending a found invoice to the mirror. The mirror may then
// hold it out of sort order until the next reload or filtered view,
// which always re-sorts. Returns (nil, nil) when the id is unknown.
func (s *CacheService) GetByID(ctx context.Context, id int64) (*invoice.Invoice, error) {
	s.mu.RLock()
	for i := range s.mirror {
		if s.mirror[i].ID == id {
			found := s.mirror[i]
			s.mu.RUnlock()
			return &found, nil
		}
	}
	s.mu.RUnlock()

	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil || inv == nil {
		return nil, err
	}

	s.mu.Lock()
	s.mirror = append(s.mirror, *inv)
	s.mu.Unlock()

	return inv, nil
}

// All is the ensure-loaded accessor consumed by the analytics engine.
// It returns a copied snapshot so aggregation passes see a consistent
// collection while writers keep patching the mirror.
func (s *CacheService) All(ctx context.Context) ([]invoice.Invoice, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]invoice.Invoice, len(s.mirror))
	copy(snapshot, s.mirror)
	return snapshot, nil
}

// AnnualReport refreshes the mirror and returns the store-computed
// twelve-entry report for the year.
func (s *CacheService) AnnualReport(ctx context.Context, year int) ([]report.MonthlyReportEntry, error) {
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s.invoices.AnnualReport(ctx, year)
}

// enqueuePreferences hands the latest preference snapshot to the
// background writer. The single-slot queue coalesces bursts: an older
// pending snapshot is dropped in favour of the newest one.
func (s *CacheService) enqueuePreferences(snap preferenceSnapshot) {
	for {
		select {
		case s.queue <- snap:
			return
		default:
			select {
			case <-s.queue:
			default:
			}
		}
	}
}

// persistLoop is the background preference writer.
func (s *CacheService) persistLoop() {
	defer close(s.doneCh)
	for {
		select {
		case snap := <-s.queue:
			s.persistPreferences(snap)
		case <-s.stopCh:
			select {
			case snap := <-s.queue:
				s.persistPreferences(snap)
			default:
			}
			return
		}
	}
}

// persistPreferences writes one snapshot to the setting store. Failures
// are logged and swallowed; they must never reach the read path.
func (s *CacheService) persistPreferences(snap preferenceSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	taskID := uuid.NewString()
	if err := s.settings.Put(ctx, SettingKeyCustomerFilter, snap.filterText); err != nil {
		s.logger.Warn("failed to persist filter preference",
			zap.String("task_id", taskID),
			zap.Error(err))
	}
	if err := s.settings.Put(ctx, SettingKeySortOrder, snap.sortOrder.String()); err != nil {
		s.logger.Warn("failed to persist sort preference",
			zap.String("task_id", taskID),
			zap.Error(err))
	}
}
