package core

// PeriodSummary aggregates one owner's month. Computed fresh per request,
// never persisted. A month with no transactions is all zeros.
type PeriodSummary struct {
	Month            int   `json:"month"`
	Year             int   `json:"year"`
	TotalIncome      Money `json:"total_income"`
	TotalExpenses    Money `json:"total_expenses"`
	RemainingBalance Money `json:"remaining_balance"`
	TransactionCount int   `json:"transaction_count"`
}

// CategoryBreakdown is one category's activity within a period. TotalAmount
// sums income and expense amounts together; the two kinds do not offset.
type CategoryBreakdown struct {
	Category         Category `json:"category"`
	TotalAmount      Money    `json:"total_amount"`
	TransactionCount int      `json:"transaction_count"`
}

// TrendPoint is one calendar month's independent income and expense sums.
// A month where only one kind occurred carries zero for the other.
type TrendPoint struct {
	Month    int   `json:"month"`
	Year     int   `json:"year"`
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
}

// DashboardView is the composite the dashboard renders from: either all four
// sections are present and consistent, or the whole build failed.
type DashboardView struct {
	CurrentMonth PeriodSummary       `json:"current_month_summary"`
	Recent       []Transaction       `json:"recent_transactions"`
	Categories   []CategoryBreakdown `json:"categories_summary"`
	Trend        []TrendPoint        `json:"monthly_trend"`
}
