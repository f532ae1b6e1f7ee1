package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/report"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoice.Repository using GORM.
type GormInvoiceRepository struct {
	db     *gorm.DB
	locale report.Locale
}

// GormInvoiceRepositoryOption is a functional option for configuring the repository
type GormInvoiceRepositoryOption func(*GormInvoiceRepository)

// WithLocale sets the calendar-name table used by AnnualReport.
func WithLocale(locale report.Locale) GormInvoiceRepositoryOption {
	return func(r *GormInvoiceRepository) {
		r.locale = locale
	}
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB, opts ...GormInvoiceRepositoryOption) *GormInvoiceRepository {
	r := &GormInvoiceRepository{
		db:     db,
		locale: report.LocaleEN,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns fully hydrated invoices ordered newest-id-first,
// optionally restricted to one calendar year.
func (r *GormInvoiceRepository) List(ctx context.Context, year *int) ([]invoice.Invoice, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("id DESC")
	if year != nil {
		// Issue timestamps are sortable text, so a calendar year is a prefix.
		query = query.Where("issue_timestamp LIKE ?", fmt.Sprintf("%04d-%%", *year))
	}

	var rows []models.InvoiceModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	invoices := make([]invoice.Invoice, 0, len(rows))
	for i := range rows {
		inv, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, nil
}

// FindByID returns the fully hydrated invoice, or (nil, nil) when absent.
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id int64) (*invoice.Invoice, error) {
	var row models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find invoice %d: %w", id, err)
	}
	return row.ToDomain()
}

// Create inserts the header and every line item in one transaction and
// writes the store-assigned ids back into the argument.
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := models.InvoiceModelFromDomain(inv)
		if err := tx.Omit("Items").Create(header).Error; err != nil {
			return err
		}
		inv.ID = header.ID

		for i := range inv.Items {
			inv.Items[i].InvoiceID = header.ID
			item := models.LineItemModelFromDomain(&inv.Items[i])
			item.ID = 0
			if err := tx.Create(item).Error; err != nil {
				return err
			}
			inv.Items[i].ID = item.ID
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// Replace updates the header and swaps the entire line-item set in one
// transaction. The previous items never survive a replace.
func (r *GormInvoiceRepository) Replace(ctx context.Context, inv *invoice.Invoice) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := models.InvoiceModelFromDomain(inv)
		if err := tx.Model(&models.InvoiceModel{}).
			Where("id = ?", inv.ID).
			Updates(map[string]interface{}{
				"issue_timestamp": header.IssueTimestamp,
				"customer_name":   header.CustomerName,
				"archived":        header.Archived,
			}).Error; err != nil {
			return err
		}

		if err := tx.Where("invoice_id = ?", inv.ID).
			Delete(&models.LineItemModel{}).Error; err != nil {
			return err
		}

		for i := range inv.Items {
			inv.Items[i].InvoiceID = inv.ID
			item := models.LineItemModelFromDomain(&inv.Items[i])
			item.ID = 0
			if err := tx.Create(item).Error; err != nil {
				return err
			}
			inv.Items[i].ID = item.ID
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace invoice %d: %w", inv.ID, err)
	}
	return nil
}

// Delete removes line items then the header in one transaction.
// Deleting an id with no matching rows is a no-op.
func (r *GormInvoiceRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).
			Delete(&models.LineItemModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.InvoiceModel{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete invoice %d: %w", id, err)
	}
	return nil
}

// AnnualReport groups the year's invoices by month and gap-fills so the
// result always holds exactly 12 entries ordered by month number.
func (r *GormInvoiceRepository) AnnualReport(ctx context.Context, year int) ([]report.MonthlyReportEntry, error) {
	invoices, err := r.List(ctx, &year)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	totals := make(map[int]decimal.Decimal)
	for i := range invoices {
		month := int(invoices[i].IssueDate.Month())
		counts[month]++
		totals[month] = totals[month].Add(invoices[i].Total())
	}

	entries := make([]report.MonthlyReportEntry, 0, 12)
	for month := 1; month <= 12; month++ {
		total, ok := totals[month]
		if !ok {
			total = decimal.Zero
		}
		entries = append(entries, report.MonthlyReportEntry{
			Month:        month,
			MonthName:    r.locale.MonthName(month),
			InvoiceCount: counts[month],
			Total:        total,
		})
	}
	return entries, nil
}
