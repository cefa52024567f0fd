// Package reports builds the sales analytics views. Aggregation runs in
// the store; this layer adds date-window handling and a short-lived
// cache in front of the daily report, since dashboards poll it.
package reports

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"tindapos/backend/internal/cache"
	"tindapos/backend/internal/domain"
	"tindapos/backend/internal/store"
)

type Engine struct {
	store    store.Store
	cache    cache.ReportCache
	cacheTTL time.Duration
	nowFn    func() time.Time
}

func NewEngine(st store.Store, reportCache cache.ReportCache, cacheTTL time.Duration) *Engine {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 60 * time.Second
	}

	return &Engine{
		store:    st,
		cache:    reportCache,
		cacheTTL: cacheTTL,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

// Revenue sums paid orders over [from, to). A zero "to" means now.
type Revenue struct {
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
	Orders int             `json:"orders"`
	Total  decimal.Decimal `json:"total"`
	Label  string          `json:"label"`
}

func (e *Engine) Revenue(ctx context.Context, from, to time.Time) (Revenue, error) {
	if to.IsZero() {
		to = e.nowFn()
	}
	total, count, err := e.store.RevenueBetween(ctx, from, to)
	if err != nil {
		return Revenue{}, err
	}
	return Revenue{
		From:   from,
		To:     to,
		Orders: count,
		Total:  total,
		Label:  domain.FormatCurrency(total),
	}, nil
}

func (e *Engine) TopSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.VariantSales, error) {
	if to.IsZero() {
		to = e.nowFn()
	}
	return e.store.TopSellers(ctx, from, to, limit)
}

// Daily returns the sales report for one calendar day. Finished days
// never change, so they cache with a long TTL; the current day uses
// the short configured TTL.
func (e *Engine) Daily(ctx context.Context, day time.Time) (domain.DailySalesReport, error) {
	key := "report:daily:" + day.Format("2006-01-02")
	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		log.Printf("[reports] WARN: cache read failed for %s: %v", key, err)
	}

	report, err := e.store.DailyReport(ctx, day)
	if err != nil {
		return domain.DailySalesReport{}, err
	}

	ttl := e.cacheTTL
	today := e.nowFn().Format("2006-01-02")
	if report.Date < today {
		ttl = 24 * time.Hour
	}
	if err := e.cache.Set(ctx, key, &report, ttl); err != nil {
		log.Printf("[reports] WARN: cache write failed for %s: %v", key, err)
	}
	return report, nil
}
