package models

import (
	"fmt"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// TimestampLayout is the sortable text form invoice issue dates are
// stored in. Year filtering relies on this layout sorting and prefixing
// correctly.
const TimestampLayout = "2006-01-02 15:04:05"

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	ID             int64           `gorm:"column:id;primaryKey;autoIncrement"`
	IssueTimestamp string          `gorm:"column:issue_timestamp;type:text;not null"`
	CustomerName   string          `gorm:"column:customer_name;type:text;not null"`
	Archived       bool            `gorm:"column:archived;not null;default:false"`
	Items          []LineItemModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() (*invoice.Invoice, error) {
	issueDate, err := time.Parse(TimestampLayout, m.IssueTimestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid issue timestamp for invoice %d: %w", m.ID, err)
	}
	inv := &invoice.Invoice{
		ID:           m.ID,
		IssueDate:    issueDate,
		CustomerName: m.CustomerName,
		Archived:     m.Archived,
		Items:        make([]invoice.LineItem, len(m.Items)),
	}
	for i, item := range m.Items {
		inv.Items[i] = *item.ToDomain()
	}
	return inv, nil
}

// FromDomain populates the persistence model from a domain Invoice.
// Items are mapped separately because header and item writes are issued
// as distinct statements inside the repository transaction.
func (m *InvoiceModel) FromDomain(inv *invoice.Invoice) {
	m.ID = inv.ID
	m.IssueTimestamp = inv.IssueDate.Format(TimestampLayout)
	m.CustomerName = inv.CustomerName
	m.Archived = inv.Archived
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// LineItemModel is the persistence model for the LineItem entity.
type LineItemModel struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	InvoiceID   int64           `gorm:"column:invoice_id;not null;index"`
	Description string          `gorm:"column:description;type:text;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "line_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *LineItemModel) ToDomain() *invoice.LineItem {
	return &invoice.LineItem{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
	}
}

// LineItemModelFromDomain creates a new persistence model from a domain LineItem.
func LineItemModelFromDomain(item *invoice.LineItem) *LineItemModel {
	return &LineItemModel{
		ID:          item.ID,
		InvoiceID:   item.InvoiceID,
		Description: item.Description,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
	}
}

// SettingModel is the persistence model for a key/value preference.
type SettingModel struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value;type:text"`
}

// TableName returns the table name for GORM
func (SettingModel) TableName() string {
	return "settings"
}
