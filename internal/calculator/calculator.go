// Package calculator derives balances from transaction histories. Every
// function is pure: it reads the slices it is given and never modifies them.
package calculator

import (
	"sort"

	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// PaidTolerance is the largest remaining box quantity at which an ADD entry
// still counts as paid. Existing data relies on this exact value.
var PaidTolerance = decimal.RequireFromString("0.005")

// TotalDebtInCUP is the customer's net CUP-equivalent balance. Payments are
// stored with negative amounts so they reduce the total.
func TotalDebtInCUP(debts []models.Debt) decimal.Decimal {
	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.AmountInCUP())
	}
	return total
}

// TotalBoxDebt is the boxes added minus the boxes paid.
func TotalBoxDebt(transactions []models.BoxTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		switch t.Type {
		case models.BoxTransactionAdd:
			total = total.Add(t.Boxes)
		case models.BoxTransactionPay:
			total = total.Sub(t.Boxes)
		}
	}
	return total
}

// BoxDebts returns every ADD entry, most recent first. Paid entries are
// included.
func BoxDebts(transactions []models.BoxTransaction) []models.BoxTransaction {
	out := make([]models.BoxTransaction, 0, len(transactions))
	for _, t := range transactions {
		if t.IsAdd() {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// PaymentsForDebt returns the PAY entries linked to debtID in insertion order.
func PaymentsForDebt(debtID string, transactions []models.BoxTransaction) []models.BoxTransaction {
	out := make([]models.BoxTransaction, 0)
	for _, t := range transactions {
		if t.IsPay() && t.DebtID == debtID {
			out = append(out, t)
		}
	}
	return out
}

func PaidBoxesForDebt(debtID string, transactions []models.BoxTransaction) decimal.Decimal {
	paid := decimal.Zero
	for _, p := range PaymentsForDebt(debtID, transactions) {
		paid = paid.Add(p.Boxes)
	}
	return paid
}

// RemainingBoxes is negative when the debt has been over-paid.
func RemainingBoxes(debt models.BoxTransaction, transactions []models.BoxTransaction) decimal.Decimal {
	return debt.Boxes.Sub(PaidBoxesForDebt(debt.ID, transactions))
}

func IsPaid(debt models.BoxTransaction, transactions []models.BoxTransaction) bool {
	return RemainingBoxes(debt, transactions).LessThanOrEqual(PaidTolerance)
}

// BoxesForPayment converts a payment into the number of boxes it settles.
// The result is in the same form it is read back from JSON.
func BoxesForPayment(amount, rateToCUP, boxValueInCUP decimal.Decimal) decimal.Decimal {
	return decimal.RequireFromString(amount.Mul(rateToCUP).Div(boxValueInCUP).String())
}

// SortDebtsByDate returns a copy of debts ordered most recent first.
func SortDebtsByDate(debts []models.Debt) []models.Debt {
	out := append([]models.Debt(nil), debts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Progress describes how far a single ADD entry has been settled.
type Progress struct {
	Debt      models.BoxTransaction `json:"debt"`
	Paid      decimal.Decimal       `json:"paid"`
	Remaining decimal.Decimal       `json:"remaining"`
	IsPaid    bool                  `json:"isPaid"`
	// Fraction is paid/boxes capped at 1, and exactly 1 once IsPaid holds.
	Fraction decimal.Decimal         `json:"fraction"`
	Payments []models.BoxTransaction `json:"payments"`
}

func DebtProgress(debt models.BoxTransaction, transactions []models.BoxTransaction) Progress {
	payments := PaymentsForDebt(debt.ID, transactions)
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Boxes)
	}
	remaining := debt.Boxes.Sub(paid)
	isPaid := remaining.LessThanOrEqual(PaidTolerance)

	fraction := decimal.NewFromInt(1)
	if !isPaid && debt.Boxes.IsPositive() {
		fraction = decimal.Min(paid.Div(debt.Boxes), fraction)
	}
	return Progress{
		Debt:      debt,
		Paid:      paid,
		Remaining: remaining,
		IsPaid:    isPaid,
		Fraction:  fraction,
		Payments:  payments,
	}
}

// OverallDebtInCUP sums TotalDebtInCUP across customers.
func OverallDebtInCUP(customers []models.Customer) decimal.Decimal {
	total := decimal.Zero
	for _, c := range customers {
		total = total.Add(TotalDebtInCUP(c.Debts))
	}
	return total
}

// OverallBoxDebt sums TotalBoxDebt across customers.
func OverallBoxDebt(customers []models.Customer) decimal.Decimal {
	total := decimal.Zero
	for _, c := range customers {
		total = total.Add(TotalBoxDebt(c.BoxTransactions))
	}
	return total
}
