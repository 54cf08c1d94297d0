// Package report implements the aggregation engine: period summaries, the
// dashboard rollup, filtered listings and report export. Everything here is
// computed fresh per call from rows fetched through the ledger ports; nothing
// is cached and no partial result is ever returned.
package report

import (
	"context"
	"fmt"

	"duit/internal/core"
	"duit/internal/ledger"
)

// SummaryCalculator computes income/expense totals for one calendar month.
type SummaryCalculator struct {
	txs ledger.TransactionReader
}

// NewSummaryCalculator wires the calculator to a transaction reader.
func NewSummaryCalculator(txs ledger.TransactionReader) *SummaryCalculator {
	return &SummaryCalculator{txs: txs}
}

// Summarize aggregates the owner's transactions for (month, year). The month
// interval is half-open, [first day, first day of next month), with December
// rolling into January. Partitioning follows each transaction's own kind and
// the sums are exact decimal additions. A month with no rows yields an
// all-zero summary.
func (c *SummaryCalculator) Summarize(ctx context.Context, owner int64, month, year int) (core.PeriodSummary, error) {
	period, err := core.NewPeriod(month, year)
	if err != nil {
		return core.PeriodSummary{}, err
	}

	start, end := period.Start(), period.End()
	rows, err := c.txs.ListTransactions(ctx, owner, ledger.Query{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("list transactions for %d-%02d: %w", year, month, err)
	}

	return summarize(period, rows), nil
}

// summarize folds already-fetched rows into a period summary.
func summarize(period core.Period, rows []core.Transaction) core.PeriodSummary {
	s := core.PeriodSummary{Month: period.Month, Year: period.Year}
	for _, t := range rows {
		switch t.Kind {
		case core.KindIncome:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case core.KindExpense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
		}
		s.TransactionCount++
	}
	s.RemainingBalance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}
