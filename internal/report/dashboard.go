package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"duit/internal/core"
	"duit/internal/ledger"
)

// recentLimit is how many most-recently-created transactions the dashboard
// shows.
const recentLimit = 10

// trendMonths is the width of the monthly trend window, current month
// inclusive.
const trendMonths = 6

// DashboardAggregator composes the dashboard view from four independent
// reads. Any store failure fails the whole build; the view is never partial.
type DashboardAggregator struct {
	summaries *SummaryCalculator
	txs       ledger.TransactionReader
	cats      ledger.CategoryReader
}

// NewDashboardAggregator wires the aggregator to its collaborators.
func NewDashboardAggregator(txs ledger.TransactionReader, cats ledger.CategoryReader) *DashboardAggregator {
	return &DashboardAggregator{
		summaries: NewSummaryCalculator(txs),
		txs:       txs,
		cats:      cats,
	}
}

// Build assembles the owner's dashboard as of now: the current month's
// summary, the ten most recently created transactions, the per-category
// breakdown for the current month and the sparse six-month trend. The four
// reads run concurrently; the first error cancels the rest.
func (a *DashboardAggregator) Build(ctx context.Context, owner int64, now time.Time) (core.DashboardView, error) {
	current := core.PeriodOf(now)

	var view core.DashboardView
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := a.summaries.Summarize(gctx, owner, current.Month, current.Year)
		if err != nil {
			return fmt.Errorf("current month summary: %w", err)
		}
		view.CurrentMonth = s
		return nil
	})

	g.Go(func() error {
		recent, err := a.txs.RecentTransactions(gctx, owner, recentLimit)
		if err != nil {
			return fmt.Errorf("recent transactions: %w", err)
		}
		if recent == nil {
			recent = []core.Transaction{}
		}
		view.Recent = recent
		return nil
	})

	g.Go(func() error {
		breakdown, err := a.categoryBreakdown(gctx, owner, current)
		if err != nil {
			return fmt.Errorf("categories summary: %w", err)
		}
		view.Categories = breakdown
		return nil
	})

	g.Go(func() error {
		trend, err := a.monthlyTrend(gctx, owner, current)
		if err != nil {
			return fmt.Errorf("monthly trend: %w", err)
		}
		view.Trend = trend
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.DashboardView{}, err
	}
	return view, nil
}

// categoryBreakdown sums the period's transactions per category. Income and
// expense amounts under the same category add up, they do not offset; the
// group key is the category id, never its name. Output is ordered by
// category id ascending.
func (a *DashboardAggregator) categoryBreakdown(ctx context.Context, owner int64, period core.Period) ([]core.CategoryBreakdown, error) {
	start, end := period.Start(), period.End()
	rows, err := a.txs.ListTransactions(ctx, owner, ledger.Query{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []core.CategoryBreakdown{}, nil
	}

	cats, err := a.cats.ListCategories(ctx, owner)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]core.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	totals := make(map[int64]*core.CategoryBreakdown)
	for _, t := range rows {
		entry, ok := totals[t.CategoryID]
		if !ok {
			cat, found := byID[t.CategoryID]
			if !found {
				return nil, fmt.Errorf("category %d referenced by transaction %d: %w",
					t.CategoryID, t.ID, core.ErrNotFound)
			}
			entry = &core.CategoryBreakdown{Category: cat}
			totals[t.CategoryID] = entry
		}
		entry.TotalAmount = entry.TotalAmount.Add(t.Amount)
		entry.TransactionCount++
	}

	breakdown := make([]core.CategoryBreakdown, 0, len(totals))
	for _, entry := range totals {
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Category.ID < breakdown[j].Category.ID
	})
	return breakdown, nil
}

// monthlyTrend aggregates the six calendar months ending at the current month
// inclusive. The series is sparse: months without transactions are omitted,
// and a month where only one kind occurred carries zero for the other.
// Points are ordered ascending by (year, month).
func (a *DashboardAggregator) monthlyTrend(ctx context.Context, owner int64, current core.Period) ([]core.TrendPoint, error) {
	start := current.AddMonths(-(trendMonths - 1)).Start()
	end := current.End()
	rows, err := a.txs.ListTransactions(ctx, owner, ledger.Query{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, err
	}

	points := make(map[core.Period]*core.TrendPoint)
	for _, t := range rows {
		p := core.Period{Month: t.Date.Month(), Year: t.Date.Year()}
		point, ok := points[p]
		if !ok {
			point = &core.TrendPoint{Month: p.Month, Year: p.Year}
			points[p] = point
		}
		switch t.Kind {
		case core.KindIncome:
			point.Income = point.Income.Add(t.Amount)
		case core.KindExpense:
			point.Expenses = point.Expenses.Add(t.Amount)
		}
	}

	trend := make([]core.TrendPoint, 0, len(points))
	for _, point := range points {
		trend = append(trend, *point)
	}
	sort.Slice(trend, func(i, j int) bool {
		if trend[i].Year != trend[j].Year {
			return trend[i].Year < trend[j].Year
		}
		return trend[i].Month < trend[j].Month
	})
	return trend, nil
}
