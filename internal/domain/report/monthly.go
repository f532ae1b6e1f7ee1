package report

import "github.com/shopspring/decimal"

// MonthlyReportEntry is one row of the annual report read model. A full
// annual report always carries exactly 12 entries, one per month, with
// zero-valued entries for months that had no invoices.
type MonthlyReportEntry struct {
	Month        int             `json:"month"`
	MonthName    string          `json:"month_name"`
	InvoiceCount int             `json:"invoice_count"`
	Total        decimal.Decimal `json:"total"`
}
