package table

import "context"

// Ledger is the external currency store the engine charges bets against and
// pays winnings into. Implementations must apply per-account mutations
// atomically and must never let a debit requested by the engine drive a
// balance below zero; the engine checks sufficiency before charging.
type Ledger interface {
	Balance(ctx context.Context, account string) (int64, error)
	Add(ctx context.Context, account string, delta int64) error
}
