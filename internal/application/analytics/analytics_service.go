package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

// DefaultTopClients is the ranking size used when the caller does not
// ask for a specific one.
const DefaultTopClients = 3

// CollectionProvider exposes the invoice collection the engine
// aggregates over. The cache's ensure-loaded accessor implements it;
// the engine itself knows nothing about storage.
type CollectionProvider interface {
	All(ctx context.Context) ([]invoice.Invoice, error)
}

// Service computes the reporting metrics as pure passes over the
// provided collection. Inputs are never mutated, so metrics are safe to
// run concurrently with each other and with mirror reads.
type Service struct {
	provider CollectionProvider
	locale   report.Locale
	now      func() time.Time
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithLocale sets the calendar-name table used in metric results.
func WithLocale(locale report.Locale) ServiceOption {
	return func(s *Service) {
		s.locale = locale
	}
}

// WithClock overrides the clock used for year-over-year comparisons.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new analytics Service
func NewService(provider CollectionProvider, opts ...ServiceOption) *Service {
	s := &Service{
		provider: provider,
		locale:   report.LocaleEN,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TotalRevenue returns the sum of invoice totals.
func (s *Service) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range invoices {
		total = total.Add(invoices[i].Total())
	}
	return total, nil
}

// InvoiceCount returns the number of invoices.
func (s *Service) InvoiceCount(ctx context.Context) (int, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(invoices), nil
}

// AverageInvoiceValue returns the mean invoice total, or zero for an
// empty collection.
func (s *Service) AverageInvoiceValue(ctx context.Context) (decimal.Decimal, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(invoices) == 0 {
		return decimal.Zero, nil
	}
	total := decimal.Zero
	for i := range invoices {
		total = total.Add(invoices[i].Total())
	}
	return total.Div(decimal.NewFromInt(int64(len(invoices)))), nil
}

// UniqueCustomerCount returns the number of distinct customer names,
// compared case-sensitively.
func (s *Service) UniqueCustomerCount(ctx context.Context) (int, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(invoices))
	for i := range invoices {
		seen[invoices[i].CustomerName] = struct{}{}
	}
	return len(seen), nil
}

// PeakRevenueMonth returns the (year, month) group with the highest
// revenue, or nil when no invoices exist. A tie is won by the group
// first encountered while walking the collection in order.
func (s *Service) PeakRevenueMonth(ctx context.Context) (*report.MonthlyPeak, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return nil, err
	}

	type yearMonth struct {
		year  int
		month int
	}
	totals := make(map[yearMonth]decimal.Decimal)
	order := make([]yearMonth, 0)
	for i := range invoices {
		key := yearMonth{
			year:  invoices[i].IssueDate.Year(),
			month: int(invoices[i].IssueDate.Month()),
		}
		if _, ok := totals[key]; !ok {
			order = append(order, key)
		}
		totals[key] = totals[key].Add(invoices[i].Total())
	}
	if len(order) == 0 {
		return nil, nil
	}

	best := order[0]
	for _, key := range order[1:] {
		if totals[key].GreaterThan(totals[best]) {
			best = key
		}
	}
	return &report.MonthlyPeak{
		Year:      best.year,
		Month:     best.month,
		MonthName: s.locale.MonthName(best.month),
		Total:     totals[best],
	}, nil
}

// TopClients returns the n customers with the highest accumulated
// spend, descending. n <= 0 falls back to the default of 3; fewer
// customers than n yields fewer results.
func (s *Service) TopClients(ctx context.Context, n int) ([]report.CustomerRanking, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultTopClients
	}

	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for i := range invoices {
		name := invoices[i].CustomerName
		if _, ok := totals[name]; !ok {
			order = append(order, name)
		}
		totals[name] = totals[name].Add(invoices[i].Total())
	}

	rankings := make([]report.CustomerRanking, 0, len(order))
	for _, name := range order {
		rankings = append(rankings, report.CustomerRanking{
			CustomerName: name,
			TotalSpent:   totals[name],
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].TotalSpent.GreaterThan(rankings[j].TotalSpent)
	})
	if len(rankings) > n {
		rankings = rankings[:n]
	}
	return rankings, nil
}

// BestSellingItemByQuantity returns the line-item description with the
// highest summed unit count across all invoices, or nil when there are
// no line items. The revenue component is reported as zero for this
// metric.
func (s *Service) BestSellingItemByQuantity(ctx context.Context) (*report.ItemRanking, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return nil, err
	}

	units := make(map[string]int)
	order := make([]string, 0)
	for i := range invoices {
		for j := range invoices[i].Items {
			desc := invoices[i].Items[j].Description
			if _, ok := units[desc]; !ok {
				order = append(order, desc)
			}
			units[desc] += invoices[i].Items[j].Quantity
		}
	}
	if len(order) == 0 {
		return nil, nil
	}

	best := order[0]
	for _, desc := range order[1:] {
		if units[desc] > units[best] {
			best = desc
		}
	}
	return &report.ItemRanking{
		Description:  best,
		TotalUnits:   units[best],
		TotalRevenue: decimal.Zero,
	}, nil
}

// MostProfitableItem returns the line-item description with the highest
// summed revenue (quantity * price), or nil when there are no line
// items. The unit-count component is reported as zero for this metric.
func (s *Service) MostProfitableItem(ctx context.Context) (*report.ItemRanking, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return nil, err
	}

	revenue := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	for i := range invoices {
		for j := range invoices[i].Items {
			desc := invoices[i].Items[j].Description
			if _, ok := revenue[desc]; !ok {
				order = append(order, desc)
			}
			revenue[desc] = revenue[desc].Add(invoices[i].Items[j].Subtotal())
		}
	}
	if len(order) == 0 {
		return nil, nil
	}

	best := order[0]
	for _, desc := range order[1:] {
		if revenue[desc].GreaterThan(revenue[best]) {
			best = desc
		}
	}
	return &report.ItemRanking{
		Description:  best,
		TotalUnits:   0,
		TotalRevenue: revenue[best],
	}, nil
}

// RevenueByWeekday groups revenue by the issue date's day of week,
// ordered Sunday first. Weekdays with no invoices are absent from the
// result; the weekly view is not gap-filled, unlike the annual report.
func (s *Service) RevenueByWeekday(ctx context.Context) ([]report.WeekdayRevenue, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return nil, err
	}

	var totals [7]decimal.Decimal
	var present [7]bool
	for i := range invoices {
		day := invoices[i].IssueDate.Weekday()
		totals[day] = totals[day].Add(invoices[i].Total())
		present[day] = true
	}

	result := make([]report.WeekdayRevenue, 0, 7)
	for day := time.Sunday; day <= time.Saturday; day++ {
		if !present[day] {
			continue
		}
		result = append(result, report.WeekdayRevenue{
			Weekday:     day,
			WeekdayName: s.locale.WeekdayName(day),
			Total:       totals[day],
		})
	}
	return result, nil
}

// YearOverYearGrowth compares the current calendar year's revenue with
// the prior year's and returns the growth as a ratio, which can be
// negative. A zero prior year yields 1.0 when the current year is
// positive and 0.0 otherwise.
func (s *Service) YearOverYearGrowth(ctx context.Context) (decimal.Decimal, error) {
	invoices, err := s.provider.All(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	currentYear := s.now().Year()
	current := decimal.Zero
	prior := decimal.Zero
	for i := range invoices {
		switch invoices[i].IssueDate.Year() {
		case currentYear:
			current = current.Add(invoices[i].Total())
		case currentYear - 1:
			prior = prior.Add(invoices[i].Total())
		}
	}

	if prior.IsZero() {
		if current.IsPositive() {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	}
	return current.Sub(prior).Div(prior), nil
}
