package budget

import (
	"errors"
	"sort"
	"time"

	"github.com/klokku/spendwise/pkg/ledger"
	"github.com/shopspring/decimal"
)

var ErrInvalidGoal = errors.New("budget goal must be greater than zero")

var one = decimal.NewFromInt(1)

// TotalSpent sums the amounts of all records. An empty ledger spends zero.
func TotalSpent(records []ledger.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// Remaining is goal minus total. A negative result means the budget is exceeded.
func Remaining(goal, total decimal.Decimal) decimal.Decimal {
	return goal.Sub(total)
}

// Utilization is the spent fraction of goal clamped to [0, 1]. It is undefined (ok == false)
// for a goal that is not positive.
func Utilization(goal, total decimal.Decimal) (utilization decimal.Decimal, ok bool) {
	if !goal.IsPositive() {
		return decimal.Zero, false
	}
	u := total.Div(goal)
	if u.IsNegative() {
		return decimal.Zero, true
	}
	if u.GreaterThan(one) {
		return one, true
	}
	return u, true
}

type Summary struct {
	Goal               decimal.Decimal
	TotalSpent         decimal.Decimal
	Remaining          decimal.Decimal
	Utilization        decimal.Decimal
	UtilizationDefined bool
	OverBudget         bool
	ExpenseCount       int
}

func Summarize(goal decimal.Decimal, records []ledger.Record) Summary {
	total := TotalSpent(records)
	remaining := Remaining(goal, total)
	utilization, ok := Utilization(goal, total)
	return Summary{
		Goal:               goal,
		TotalSpent:         total,
		Remaining:          remaining,
		Utilization:        utilization,
		UtilizationDefined: ok,
		OverBudget:         remaining.IsNegative(),
		ExpenseCount:       len(records),
	}
}

type DailyTotal struct {
	Date  time.Time
	Total decimal.Decimal
}

// DailyTotals groups spending by calendar date, oldest first. It feeds the spending chart.
func DailyTotals(records []ledger.Record) []DailyTotal {
	byDay := make(map[string]*DailyTotal)
	for _, r := range records {
		key := r.Date.Format(ledger.DateLayout)
		if day, ok := byDay[key]; ok {
			day.Total = day.Total.Add(r.Amount)
			continue
		}
		byDay[key] = &DailyTotal{Date: r.Date, Total: r.Amount}
	}

	totals := make([]DailyTotal, 0, len(byDay))
	for _, day := range byDay {
		totals = append(totals, *day)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Date.Before(totals[j].Date)
	})
	return totals
}
