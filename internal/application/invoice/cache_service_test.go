package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/report"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInvoiceRepository is a mock implementation of invoice.Repository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) List(ctx context.Context, year *int) ([]invoice.Invoice, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id int64) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Replace(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) AnnualReport(ctx context.Context, year int) ([]report.MonthlyReportEntry, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.MonthlyReportEntry), args.Error(1)
}

// MockSettingRepository is a mock implementation of invoice.SettingRepository
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSettingRepository) Put(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func fixtureInvoice(id int64, issueDate time.Time, customer string, items ...invoice.LineItem) invoice.Invoice {
	return invoice.Invoice{
		ID:           id,
		IssueDate:    issueDate,
		CustomerName: customer,
		Items:        items,
	}
}

func fixtureSet() []invoice.Invoice {
	return []invoice.Invoice{
		fixtureInvoice(3, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), "Bob",
			invoice.LineItem{ID: 31, InvoiceID: 3, Description: "Widget", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")}),
		fixtureInvoice(2, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "Alice",
			invoice.LineItem{ID: 21, InvoiceID: 2, Description: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("5.00")}),
		fixtureInvoice(1, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), "alicia",
			invoice.LineItem{ID: 11, InvoiceID: 1, Description: "Gadget", Quantity: 1, UnitPrice: decimal.RequireFromString("50.00")}),
	}
}

func newTestCacheService(t *testing.T) (*CacheService, *MockInvoiceRepository, *MockSettingRepository) {
	t.Helper()
	invoices := new(MockInvoiceRepository)
	settings := new(MockSettingRepository)
	svc := NewCacheService(invoices, settings)
	t.Cleanup(svc.Close)
	return svc, invoices, settings
}

func TestCacheService_EnsureLoaded(t *testing.T) {
	svc, invoices, _ := newTestCacheService(t)
	ctx := context.Background()

	invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()

	// First access populates the mirror, the second is a no-op.
	require.NoError(t, svc.EnsureLoaded(ctx))
	require.NoError(t, svc.EnsureLoaded(ctx))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	invoices.AssertExpectations(t)
}

func TestCacheService_Reload_ReplacesMirror(t *testing.T) {
	svc, invoices, _ := newTestCacheService(t)
	ctx := context.Background()

	invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
	require.NoError(t, svc.Reload(ctx))

	refreshed := []invoice.Invoice{
		fixtureInvoice(9, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "Zoe"),
	}
	invoices.On("List", mock.Anything, (*int)(nil)).Return(refreshed, nil).Once()
	require.NoError(t, svc.Reload(ctx))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(9), all[0].ID)
}

func expectPreferencePersist(settings *MockSettingRepository, err error) chan struct{} {
	persisted := make(chan struct{}, 16)
	settings.On("Put", mock.Anything, SettingKeyCustomerFilter, mock.Anything).Return(err)
	settings.On("Put", mock.Anything, SettingKeySortOrder, mock.Anything).
		Run(func(mock.Arguments) { persisted <- struct{}{} }).
		Return(err)
	return persisted
}

func awaitPersist(t *testing.T, persisted chan struct{}) {
	t.Helper()
	select {
	case <-persisted:
	case <-time.After(2 * time.Second):
		t.Fatal("preference persistence was never attempted")
	}
}

func TestCacheService_Filtered(t *testing.T) {
	ctx := context.Background()

	t.Run("empty filter matches all, newest issue date first", func(t *testing.T) {
		svc, invoices, settings := newTestCacheService(t)
		invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
		persisted := expectPreferencePersist(settings, nil)

		result, err := svc.Filtered(ctx)
		require.NoError(t, err)
		require.Len(t, result, 3)
		assert.Equal(t, int64(3), result[0].ID)
		assert.Equal(t, int64(2), result[1].ID)
		assert.Equal(t, int64(1), result[2].ID)
		awaitPersist(t, persisted)
	})

	t.Run("filter matches case-insensitive substring", func(t *testing.T) {
		svc, invoices, settings := newTestCacheService(t)
		invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
		persisted := expectPreferencePersist(settings, nil)

		svc.SetFilter("ALI")
		result, err := svc.Filtered(ctx)
		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "Alice", result[0].CustomerName)
		assert.Equal(t, "alicia", result[1].CustomerName)
		awaitPersist(t, persisted)
	})

	t.Run("sort order id descending", func(t *testing.T) {
		svc, invoices, settings := newTestCacheService(t)
		invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
		persisted := expectPreferencePersist(settings, nil)

		svc.SetSortOrder(invoice.SortIDDesc)
		result, err := svc.Filtered(ctx)
		require.NoError(t, err)
		require.Len(t, result, 3)
		assert.Equal(t, int64(3), result[0].ID)
		awaitPersist(t, persisted)
	})

	t.Run("sort order customer name ascending", func(t *testing.T) {
		svc, invoices, settings := newTestCacheService(t)
		invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
		persisted := expectPreferencePersist(settings, nil)

		svc.SetSortOrder(invoice.SortCustomerNameAsc)
		result, err := svc.Filtered(ctx)
		require.NoError(t, err)
		require.Len(t, result, 3)
		assert.Equal(t, "Alice", result[0].CustomerName)
		assert.Equal(t, "Bob", result[1].CustomerName)
		assert.Equal(t, "alicia", result[2].CustomerName)
		awaitPersist(t, persisted)
	})

	t.Run("persistence failure never reaches the read path", func(t *testing.T) {
		svc, invoices, settings := newTestCacheService(t)
		invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
		persisted := expectPreferencePersist(settings, errors.New("settings table locked"))

		result, err := svc.Filtered(ctx)
		require.NoError(t, err)
		assert.Len(t, result, 3)
		awaitPersist(t, persisted)
	})
}

func TestCacheService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("writes to store and appends to mirror", func(t *testing.T) {
		svc, invoices, _ := newTestCacheService(t)
		invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
		require.NoError(t, svc.Reload(ctx))

		inv, err := invoice.NewInvoice(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "Dora", nil)
		require.NoError(t, err)
		invoices.On("Create", mock.Anything, inv).Run(func(args mock.Arguments) {
			args.Get(1).(*invoice.Invoice).ID = 42
		}).Return(nil).Once()

		require.NoError(t, svc.Create(ctx, inv))

		// Visible through the mirror without a reload and without a store read.
		found, err := svc.GetByID(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Dora", found.CustomerName)
		invoices.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("validation rejects before the store is reached", func(t *testing.T) {
		svc, invoices, _ := newTestCacheService(t)

		bad := &invoice.Invoice{IssueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
		err := svc.Create(ctx, bad)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_CUSTOMER_NAME", domainErr.Code)
		invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		svc, invoices, _ := newTestCacheService(t)

		inv, err := invoice.NewInvoice(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "Dora", nil)
		require.NoError(t, err)
		invoices.On("Create", mock.Anything, inv).Return(errors.New("database is locked")).Once()

		require.Error(t, svc.Create(ctx, inv))
	})
}

func TestCacheService_Update_PatchesMirrorInPlace(t *testing.T) {
	svc, invoices, _ := newTestCacheService(t)
	ctx := context.Background()

	invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
	require.NoError(t, svc.Reload(ctx))

	updated, err := invoice.NewInvoice(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "Alice Ltd", nil)
	require.NoError(t, err)
	updated.ID = 2
	invoices.On("Replace", mock.Anything, updated).Return(nil).Once()

	require.NoError(t, svc.Update(ctx, updated))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Position preserved, element replaced.
	assert.Equal(t, int64(2), all[1].ID)
	assert.Equal(t, "Alice Ltd", all[1].CustomerName)
}

func TestCacheService_Delete_RemovesFromMirror(t *testing.T) {
	svc, invoices, _ := newTestCacheService(t)
	ctx := context.Background()

	invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
	require.NoError(t, svc.Reload(ctx))

	invoices.On("Delete", mock.Anything, int64(2)).Return(nil).Once()
	require.NoError(t, svc.Delete(ctx, 2))

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, inv := range all {
		assert.NotEqual(t, int64(2), inv.ID)
	}
}

func TestCacheService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("mirror hit avoids the store", func(t *testing.T) {
		svc, invoices, _ := newTestCacheService(t)
		invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
		require.NoError(t, svc.Reload(ctx))

		found, err := svc.GetByID(ctx, 3)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Bob", found.CustomerName)
		invoices.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("miss falls back to the store and caches the result", func(t *testing.T) {
		svc, invoices, _ := newTestCacheService(t)
		invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
		require.NoError(t, svc.Reload(ctx))

		fromStore := fixtureInvoice(8, time.Date(2022, 3, 3, 0, 0, 0, 0, time.UTC), "Eve")
		invoices.On("FindByID", mock.Anything, int64(8)).Return(&fromStore, nil).Once()

		found, err := svc.GetByID(ctx, 8)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Eve", found.CustomerName)

		// Second lookup is served by the mirror.
		found, err = svc.GetByID(ctx, 8)
		require.NoError(t, err)
		require.NotNil(t, found)
		invoices.AssertExpectations(t)
	})

	t.Run("unknown id yields nil without error", func(t *testing.T) {
		svc, invoices, _ := newTestCacheService(t)
		invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
		require.NoError(t, svc.Reload(ctx))

		invoices.On("FindByID", mock.Anything, int64(404)).Return(nil, nil).Once()

		found, err := svc.GetByID(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestCacheService_LoadPreferences(t *testing.T) {
	svc, _, settings := newTestCacheService(t)
	ctx := context.Background()

	settings.On("Get", mock.Anything, SettingKeyCustomerFilter).Return("Alice", nil).Once()
	settings.On("Get", mock.Anything, SettingKeySortOrder).Return("ID_DESC", nil).Once()

	require.NoError(t, svc.LoadPreferences(ctx))
	assert.Equal(t, "Alice", svc.Filter())
	assert.Equal(t, invoice.SortIDDesc, svc.SortOrder())
}

func TestCacheService_AnnualReport_ReloadsFirst(t *testing.T) {
	svc, invoices, _ := newTestCacheService(t)
	ctx := context.Background()

	entries := []report.MonthlyReportEntry{{Month: 1, MonthName: "January"}}
	invoices.On("List", mock.Anything, (*int)(nil)).Return(fixtureSet(), nil).Once()
	invoices.On("AnnualReport", mock.Anything, 2024).Return(entries, nil).Once()

	got, err := svc.AnnualReport(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	invoices.AssertExpectations(t)
}
