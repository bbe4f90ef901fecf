// Package summary aggregates transactions into monthly totals and derives
// a qualitative risk assessment over the trailing 30 days. Both operations
// are pure: they read their input slice and never mutate it.
package summary

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/finanbot/finanbot/internal/models"
)

// ErrValidation flags malformed input such as an out-of-range month.
var ErrValidation = errors.New("validation error")

// UncategorizedKey groups transactions without a category in TopCategories.
const UncategorizedKey = "uncategorized"

// Summary holds aggregate totals for one calendar month. TotalIncome and
// TotalExpense are both non-negative; expenses are reported as absolute
// values even though transactions store them signed.
type Summary struct {
	Year          int                `json:"year"`
	Month         int                `json:"month"`
	TotalIncome   float64            `json:"total_income"`
	TotalExpense  float64            `json:"total_expense"`
	NetBalance    float64            `json:"net_balance"`
	TopCategories map[string]float64 `json:"top_categories"`
}

// AlertResult is the bounded risk heuristic over recent transactions.
type AlertResult struct {
	RiskScore float64  `json:"risk_score"`
	Messages  []string `json:"messages"`
}

// Monthly filters txs to the given calendar month and computes aggregate
// totals. Callers may pre-filter; the result is correct either way. Zero
// matching transactions yields zero totals and an empty category map.
func Monthly(txs []models.Transaction, year, month int) (Summary, error) {
	if year < 1 {
		return Summary{}, fmt.Errorf("%w: year must be positive", ErrValidation)
	}
	if month < 1 || month > 12 {
		return Summary{}, fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	}

	s := Summary{
		Year:          year,
		Month:         month,
		TopCategories: make(map[string]float64),
	}
	for _, tx := range txs {
		if tx.OccurredAt.Year() != year || int(tx.OccurredAt.Month()) != month {
			continue
		}
		if tx.Amount > 0 {
			s.TotalIncome += tx.Amount
		} else if tx.Amount < 0 {
			s.TotalExpense += -tx.Amount
		}
		s.NetBalance += tx.Amount
		s.TopCategories[categoryKey(tx)] += tx.Amount
	}
	return s, nil
}

func categoryKey(tx models.Transaction) string {
	if tx.CategoryID == nil {
		return UncategorizedKey
	}
	return tx.CategoryID.String()
}

// Risk increments per rule. Rules are evaluated independently and their
// increments accumulate, capped at 1.0.
const (
	riskNoIncome    = 0.5
	riskOverspend   = 0.4
	riskNegativeNet = 0.3
	riskHighVolume  = 0.2

	highVolumeThreshold = 20
)

const (
	msgNoIncome    = "No income recorded in the last 30 days."
	msgOverspend   = "You're spending more than you earn."
	msgNegativeNet = "Your net balance is negative this month."
	msgHighVolume  = "High transaction volume — consider reviewing discretionary expenses."
	msgOnTrack     = "No alerts. You're on track!"
)

// Alerts scores the trailing 30 days ending at asOf, both bounds inclusive.
func Alerts(txs []models.Transaction, asOf time.Time) AlertResult {
	start := asOf.AddDate(0, 0, -30)

	var income, expense float64
	count := 0
	for _, tx := range txs {
		if tx.OccurredAt.Before(start) || tx.OccurredAt.After(asOf) {
			continue
		}
		count++
		if tx.Amount > 0 {
			income += tx.Amount
		} else if tx.Amount < 0 {
			expense += tx.Amount
		}
	}
	net := income + expense

	var messages []string
	score := 0.0
	if income == 0 {
		messages = append(messages, msgNoIncome)
		score += riskNoIncome
	}
	if -expense > income {
		messages = append(messages, msgOverspend)
		score += riskOverspend
	}
	if net < 0 {
		messages = append(messages, msgNegativeNet)
		score += riskNegativeNet
	}
	if count > highVolumeThreshold {
		messages = append(messages, msgHighVolume)
		score += riskHighVolume
	}

	if len(messages) == 0 {
		return AlertResult{RiskScore: 0.0, Messages: []string{msgOnTrack}}
	}
	score = math.Min(score, 1.0)
	return AlertResult{
		RiskScore: math.Round(score*100) / 100,
		Messages:  messages,
	}
}
