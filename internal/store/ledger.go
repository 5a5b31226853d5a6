package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a debit would take a balance
	// below zero. The schema's CHECK constraint backs this up.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadyClaimed is returned when a daily grant was already taken today.
	ErrAlreadyClaimed = errors.New("daily reward already claimed")
)

// BalanceRow is one leaderboard entry.
type BalanceRow struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// CombinedRow is a user's balances across both currencies, for the admin panel.
type CombinedRow struct {
	UserID     string `json:"user_id"`
	Coins      int64  `json:"coins"`
	GrrBalance int64  `json:"grr"`
}

// Balance returns a user's coin balance, creating the account at zero if needed.
func (db *DB) Balance(ctx context.Context, userID string) (int64, error) {
	return db.balance(ctx, "users", userID)
}

// GrrBalance returns a user's GRR balance, creating the account at zero if needed.
func (db *DB) GrrBalance(ctx context.Context, userID string) (int64, error) {
	return db.balance(ctx, "grr_users", userID)
}

// Add credits (positive delta) or debits (negative delta) a coin balance.
// Debits that would go below zero fail with ErrInsufficientFunds and leave
// the balance untouched.
func (db *DB) Add(ctx context.Context, userID string, delta int64) error {
	return db.add(ctx, "users", userID, delta)
}

// GrrAdd credits or debits a GRR balance.
func (db *DB) GrrAdd(ctx context.Context, userID string, delta int64) error {
	return db.add(ctx, "grr_users", userID, delta)
}

func (db *DB) balance(ctx context.Context, table, userID string) (int64, error) {
	if _, err := db.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, table),
		userID); err != nil {
		return 0, err
	}
	var balance int64
	err := db.QueryRow(ctx,
		fmt.Sprintf(`SELECT balance FROM %s WHERE user_id = $1`, table),
		userID).Scan(&balance)
	return balance, err
}

func (db *DB) add(ctx context.Context, table, userID string, delta int64) error {
	if _, err := db.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, table),
		userID); err != nil {
		return err
	}
	tag, err := db.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET balance = balance + $2 WHERE user_id = $1 AND balance + $2 >= 0`, table),
		userID, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// Transfer moves coins between users in one transaction.
func (db *DB) Transfer(ctx context.Context, from, to string, amount int64) error {
	return db.transfer(ctx, "users", from, to, amount)
}

// GrrTransfer moves GRR between users in one transaction.
func (db *DB) GrrTransfer(ctx context.Context, from, to string, amount int64) error {
	return db.transfer(ctx, "grr_users", from, to, amount)
}

func (db *DB) transfer(ctx context.Context, table, from, to string, amount int64) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, id := range []string{from, to} {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, table),
			id); err != nil {
			return err
		}
	}
	tag, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET balance = balance - $2 WHERE user_id = $1 AND balance >= $2`, table),
		from, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	if _, err := tx.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET balance = balance + $2 WHERE user_id = $1`, table),
		to, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ClaimDaily grants the daily GRR reward at most once per UTC day.
func (db *DB) ClaimDaily(ctx context.Context, userID string, amount int64) error {
	if _, err := db.Exec(ctx,
		`INSERT INTO grr_users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID); err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `
		UPDATE grr_users
		   SET balance = balance + $2, last_daily = CURRENT_DATE
		 WHERE user_id = $1
		   AND (last_daily IS NULL OR last_daily < CURRENT_DATE)
	`, userID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyClaimed
	}
	return nil
}

// Exchange converts GRR into coins at a fixed cost/reward in one transaction.
func (db *DB) Exchange(ctx context.Context, userID string, grrCost, coinReward int64) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE grr_users SET balance = balance - $2 WHERE user_id = $1 AND balance >= $2`,
		userID, grrCost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = users.balance + $2
	`, userID, coinReward); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Leaderboard returns the top coin balances.
func (db *DB) Leaderboard(ctx context.Context, limit int) ([]BalanceRow, error) {
	rows, err := db.Query(ctx,
		`SELECT user_id, balance FROM users ORDER BY balance DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceRow
	for rows.Next() {
		var r BalanceRow
		if err := rows.Scan(&r.UserID, &r.Balance); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GrrLeaderboard returns the top non-zero GRR balances.
func (db *DB) GrrLeaderboard(ctx context.Context, limit int) ([]BalanceRow, error) {
	rows, err := db.Query(ctx,
		`SELECT user_id, balance FROM grr_users WHERE balance > 0 ORDER BY balance DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceRow
	for rows.Next() {
		var r BalanceRow
		if err := rows.Scan(&r.UserID, &r.Balance); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CombinedUsers returns every known user with both balances, richest first.
func (db *DB) CombinedUsers(ctx context.Context) ([]CombinedRow, error) {
	rows, err := db.Query(ctx, `
		SELECT uid.user_id,
		       COALESCE(u.balance, 0) AS coins,
		       COALESCE(g.balance, 0) AS grr
		  FROM (SELECT user_id FROM users UNION SELECT user_id FROM grr_users) AS uid
		  LEFT JOIN users u ON uid.user_id = u.user_id
		  LEFT JOIN grr_users g ON uid.user_id = g.user_id
		 ORDER BY coins DESC, grr DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CombinedRow
	for rows.Next() {
		var r CombinedRow
		if err := rows.Scan(&r.UserID, &r.Coins, &r.GrrBalance); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SetBalances overwrites a user's balances in both currencies (admin panel editor).
func (db *DB) SetBalances(ctx context.Context, userID string, coins, grr int64) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = EXCLUDED.balance
	`, userID, coins); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO grr_users (user_id, balance) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET balance = EXCLUDED.balance
	`, userID, grr); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GrrLedger adapts the GRR currency table to the game engine's Ledger interface.
type GrrLedger struct{ db *DB }

func (db *DB) GrrLedger() *GrrLedger { return &GrrLedger{db: db} }

func (l *GrrLedger) Balance(ctx context.Context, account string) (int64, error) {
	return l.db.GrrBalance(ctx, account)
}

func (l *GrrLedger) Add(ctx context.Context, account string, delta int64) error {
	return l.db.GrrAdd(ctx, account, delta)
}
