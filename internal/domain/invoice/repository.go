package invoice

import (
	"context"

	"github.com/invoicing/backend/internal/domain/report"
)

// Repository is the only gateway to invoice persistence. Every
// multi-statement operation runs as one all-or-nothing transaction: a
// header without items or items without a header are never observable.
type Repository interface {
	// List returns fully hydrated invoices ordered newest-id-first.
	// When year is non-nil only invoices issued in that calendar year
	// are returned.
	List(ctx context.Context, year *int) ([]Invoice, error)

	// FindByID returns the fully hydrated invoice, or (nil, nil) when
	// no invoice with that id exists.
	FindByID(ctx context.Context, id int64) (*Invoice, error)

	// Create inserts the header and all items in one transaction and
	// assigns the store-generated ids to the argument.
	Create(ctx context.Context, inv *Invoice) error

	// Replace updates the header and swaps the entire line-item set
	// (delete-all-then-reinsert) in one transaction.
	Replace(ctx context.Context, inv *Invoice) error

	// Delete removes items then header in one transaction. Deleting a
	// non-existent id is a no-op.
	Delete(ctx context.Context, id int64) error

	// AnnualReport returns exactly 12 monthly entries for the year,
	// ordered by month number, with zero entries for empty months.
	AnnualReport(ctx context.Context, year int) ([]report.MonthlyReportEntry, error)
}

// SettingRepository persists small key/value preferences.
type SettingRepository interface {
	// Get returns the stored value, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Put upserts the value for the key.
	Put(ctx context.Context, key, value string) error
}
