package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRanking is a customer grouped with its accumulated spend.
type CustomerRanking struct {
	CustomerName string          `json:"customer_name"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}

// ItemRanking is a line-item description grouped across all invoices.
// TotalUnits is zero when ranked by revenue and TotalRevenue is zero
// when ranked by unit count; only the ranking dimension is reported.
type ItemRanking struct {
	Description  string          `json:"description"`
	TotalUnits   int             `json:"total_units"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// WeekdayRevenue is the revenue accumulated on one day of the week.
type WeekdayRevenue struct {
	Weekday     time.Weekday    `json:"weekday"`
	WeekdayName string          `json:"weekday_name"`
	Total       decimal.Decimal `json:"total"`
}

// MonthlyPeak identifies the (year, month) group with the highest
// revenue across the whole invoice history.
type MonthlyPeak struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	Total     decimal.Decimal `json:"total"`
}
