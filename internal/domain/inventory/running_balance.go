package inventory

import (
	"iter"

	"github.com/shopspring/decimal"
)

// BalanceEntry is one movement with the batch balance right after it
type BalanceEntry struct {
	Movement StockMovement
	Balance  decimal.Decimal
}

// RunningBalance folds an ordered movement sequence into cumulative balances
// starting from zero. It is lazy: movements are pulled only as entries are
// consumed, and iteration stops at the first error.
func RunningBalance(movements iter.Seq2[StockMovement, error]) iter.Seq2[BalanceEntry, error] {
	return func(yield func(BalanceEntry, error) bool) {
		balance := decimal.Zero
		for m, err := range movements {
			if err != nil {
				yield(BalanceEntry{}, err)
				return
			}
			balance = balance.Add(m.SignedQuantity())
			if !yield(BalanceEntry{Movement: m, Balance: balance}, nil) {
				return
			}
		}
	}
}

// LedgerCheck is the result of replaying a batch's movements against its row
type LedgerCheck struct {
	MovementCount     int
	LedgerRemaining   decimal.Decimal // signed sum of all movements
	LedgerInitial     decimal.Decimal // deliveries plus adjustments
	RecordedRemaining decimal.Decimal
	RecordedInitial   decimal.Decimal
}

// Consistent reports whether the batch row agrees with its ledger
func (c LedgerCheck) Consistent() bool {
	return c.LedgerRemaining.Equal(c.RecordedRemaining) && c.LedgerInitial.Equal(c.RecordedInitial)
}

// CheckLedger replays every movement of a batch and compares the totals
// with the stored quantities
func CheckLedger(batch *Batch, movements iter.Seq2[StockMovement, error]) (LedgerCheck, error) {
	check := LedgerCheck{
		LedgerRemaining:   decimal.Zero,
		LedgerInitial:     decimal.Zero,
		RecordedRemaining: batch.RemainingQuantity,
		RecordedInitial:   batch.InitialQuantity,
	}
	for entry, err := range RunningBalance(movements) {
		if err != nil {
			return check, err
		}
		check.MovementCount++
		check.LedgerRemaining = entry.Balance
		check.LedgerInitial = check.LedgerInitial.Add(entry.Movement.InitialDelta())
	}
	return check, nil
}
