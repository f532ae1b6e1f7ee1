package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockInvoiceDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return db, mock
}

// A storage fault in the middle of a multi-statement create must roll
// the whole transaction back and surface a single storage error: a
// header without its items is never observable.
func TestGormInvoiceRepository_Create_RollsBackOnItemFault(t *testing.T) {
	db, mock := newMockInvoiceDB(t)
	repo := NewGormInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(`INSERT INTO "line_items"`).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	inv, err := invoice.NewInvoice(
		time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC),
		"Alice",
		[]invoice.LineItem{{Description: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("5.00")}},
	)
	require.NoError(t, err)

	err = repo.Create(context.Background(), inv)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to create invoice")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormInvoiceRepository_Delete_RollsBackOnHeaderFault(t *testing.T) {
	db, mock := newMockInvoiceDB(t)
	repo := NewGormInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "line_items"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "invoices"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 7)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to delete invoice 7")

	assert.NoError(t, mock.ExpectationsWereMet())
}
