package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	analyticsapp "github.com/invoicing/backend/internal/application/analytics"
	invoiceapp "github.com/invoicing/backend/internal/application/invoice"
	"github.com/invoicing/backend/internal/domain/report"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	var year int
	flag.IntVar(&year, "year", time.Now().Year(), "Year for the annual report")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting invoicing dashboard",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("driver", cfg.Database.Driver),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	locale := report.LocaleByName(cfg.Report.Locale)

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB, persistence.WithLocale(locale))
	settingRepo := persistence.NewGormSettingRepository(db.DB)

	// Initialize services
	cache := invoiceapp.NewCacheService(invoiceRepo, settingRepo, invoiceapp.WithLogger(log))
	defer cache.Close()

	analytics := analyticsapp.NewService(cache, analyticsapp.WithLocale(locale))

	ctx := context.Background()
	if err := cache.LoadPreferences(ctx); err != nil {
		log.Warn("Failed to load view preferences", zap.Error(err))
	}

	if err := printDashboard(ctx, cache, analytics, locale, year); err != nil {
		log.Fatal("Failed to render dashboard", zap.Error(err))
	}
}

func printDashboard(ctx context.Context, cache *invoiceapp.CacheService, analytics *analyticsapp.Service, locale report.Locale, year int) error {
	total, err := analytics.TotalRevenue(ctx)
	if err != nil {
		return err
	}
	count, err := analytics.InvoiceCount(ctx)
	if err != nil {
		return err
	}
	avg, err := analytics.AverageInvoiceValue(ctx)
	if err != nil {
		return err
	}
	customers, err := analytics.UniqueCustomerCount(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Invoices: %d  Customers: %d\n", count, customers)
	fmt.Printf("Total revenue: %s  Average invoice: %s\n", total.StringFixed(2), avg.StringFixed(2))

	if peak, err := analytics.PeakRevenueMonth(ctx); err != nil {
		return err
	} else if peak != nil {
		fmt.Printf("Peak month: %s %d (%s)\n", peak.MonthName, peak.Year, peak.Total.StringFixed(2))
	}

	top, err := analytics.TopClients(ctx, 0)
	if err != nil {
		return err
	}
	for i, client := range top {
		fmt.Printf("Top client %d: %s (%s)\n", i+1, client.CustomerName, client.TotalSpent.StringFixed(2))
	}

	if best, err := analytics.BestSellingItemByQuantity(ctx); err != nil {
		return err
	} else if best != nil {
		fmt.Printf("Best seller: %s (%d units)\n", best.Description, best.TotalUnits)
	}
	if profitable, err := analytics.MostProfitableItem(ctx); err != nil {
		return err
	} else if profitable != nil {
		fmt.Printf("Most profitable: %s (%s)\n", profitable.Description, profitable.TotalRevenue.StringFixed(2))
	}

	weekdays, err := analytics.RevenueByWeekday(ctx)
	if err != nil {
		return err
	}
	for _, day := range weekdays {
		fmt.Printf("  %-10s %s\n", day.WeekdayName, day.Total.StringFixed(2))
	}

	growth, err := analytics.YearOverYearGrowth(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Year-over-year growth: %s%%\n", growth.Mul(decimal.NewFromInt(100)).StringFixed(1))

	entries, err := cache.AnnualReport(ctx, year)
	if err != nil {
		return err
	}
	fmt.Printf("\nAnnual report %d\n", year)
	for _, entry := range entries {
		fmt.Printf("  %-12s %3d invoices  %s\n", entry.MonthName, entry.InvoiceCount, entry.Total.StringFixed(2))
	}

	return nil
}
