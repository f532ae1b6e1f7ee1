package invoice

import (
	"time"

	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LineItem is one billable entry belonging to exactly one invoice.
type LineItem struct {
	ID          int64
	InvoiceID   int64
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// NewLineItem creates a validated line item. The ID and InvoiceID are
// assigned by the store on the first write.
func NewLineItem(description string, quantity int, unitPrice decimal.Decimal) (*LineItem, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if !unitPrice.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be greater than zero")
	}
	return &LineItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}, nil
}

// Subtotal returns quantity * unit price.
func (i *LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Invoice is the aggregate root: a header (issue date, customer) plus its
// line items. The total is never stored; it is always derived from the
// current items so it cannot drift from them.
type Invoice struct {
	ID           int64
	IssueDate    time.Time
	CustomerName string
	Items        []LineItem
	Archived     bool
}

// NewInvoice creates a validated invoice. An invoice with zero items is
// legal and has a total of zero.
func NewInvoice(issueDate time.Time, customerName string, items []LineItem) (*Invoice, error) {
	if issueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	inv := &Invoice{
		IssueDate:    issueDate,
		CustomerName: customerName,
		Items:        make([]LineItem, 0, len(items)),
	}
	for _, item := range items {
		validated, err := NewLineItem(item.Description, item.Quantity, item.UnitPrice)
		if err != nil {
			return nil, err
		}
		validated.ID = item.ID
		inv.Items = append(inv.Items, *validated)
	}
	return inv, nil
}

// Validate re-checks the invoice invariants. Used before handing an
// already-built invoice to the store.
func (inv *Invoice) Validate() error {
	if inv.IssueDate.IsZero() {
		return shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}
	if inv.CustomerName == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	for _, item := range inv.Items {
		if _, err := NewLineItem(item.Description, item.Quantity, item.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

// Total returns the sum of line-item subtotals.
func (inv *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range inv.Items {
		total = total.Add(inv.Items[i].Subtotal())
	}
	return total
}
