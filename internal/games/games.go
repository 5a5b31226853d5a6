// Package games implements the chance mini-games played against the house:
// a double-or-nothing coinflip and a high-stakes bet with a randomized payout.
package games

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/starstream/starstream/internal/store"
)

var (
	ErrInvalidBet        = errors.New("bet must be positive")
	ErrInvalidSide       = errors.New("call heads or tails")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Side is the coinflip call.
type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

// ParseSide accepts the usual spellings of a coinflip call.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "heads", "head", "h":
		return Heads, nil
	case "tails", "tail", "t":
		return Tails, nil
	}
	return "", ErrInvalidSide
}

func (s Side) other() Side {
	if s == Heads {
		return Tails
	}
	return Heads
}

// Win rates are tuned house-favored and can be overridden at runtime
// through the settings store.
const (
	defaultCoinflipWinRate   = 0.31
	defaultHighStakesWinRate = 0.29

	coinflipWinRateKey   = "cf_win_rate"
	highStakesWinRateKey = "bet_win_rate"

	// High-stakes payout is drawn from a normal distribution centered
	// above the bet, so wins are usually but not always profitable.
	payoutMeanFactor   = 2.5
	payoutStddevFactor = 0.75
)

// Ledger is the currency account the games settle against.
type Ledger interface {
	Balance(ctx context.Context, account string) (int64, error)
	Add(ctx context.Context, account string, delta int64) error
}

// Settings supplies runtime-tunable values with a fallback.
type Settings interface {
	Setting(ctx context.Context, key, fallback string) (string, error)
}

// Outcome is the result of one game round.
type Outcome struct {
	Won     bool  `json:"won"`
	Bet     int64 `json:"bet"`
	Payout  int64 `json:"payout"` // credited on a win, 0 on a loss
	Balance int64 `json:"balance"`
	Landed  Side  `json:"landed,omitempty"` // coinflip only
}

type House struct {
	ledger   Ledger
	settings Settings
	logger   *log.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewHouse(ledger Ledger, settings Settings, rng *rand.Rand, logger *log.Logger) *House {
	return &House{
		ledger:   ledger,
		settings: settings,
		logger:   logger.WithPrefix("games"),
		rng:      rng,
	}
}

// Coinflip stakes bet on the called side of a weighted flip. A win pays
// back double the bet.
func (h *House) Coinflip(ctx context.Context, account string, bet int64, call Side) (Outcome, error) {
	if bet <= 0 {
		return Outcome{}, ErrInvalidBet
	}
	if call != Heads && call != Tails {
		return Outcome{}, ErrInvalidSide
	}
	if err := h.charge(ctx, account, bet); err != nil {
		return Outcome{}, err
	}

	rate := h.winRate(ctx, coinflipWinRateKey, defaultCoinflipWinRate)
	won := h.roll() < rate

	out := Outcome{Bet: bet, Won: won, Landed: call}
	if !won {
		out.Landed = call.other()
	}
	if won {
		out.Payout = bet * 2
		if err := h.ledger.Add(ctx, account, out.Payout); err != nil {
			return Outcome{}, fmt.Errorf("credit coinflip payout for %s: %w", account, err)
		}
	}
	return h.finish(ctx, account, "coinflip", out)
}

// HighStakes stakes bet on a long-odds roll. Wins pay a randomized amount
// centered well above the bet; the draw is clamped at zero so a "win" can
// still pay nothing.
func (h *House) HighStakes(ctx context.Context, account string, bet int64) (Outcome, error) {
	if bet <= 0 {
		return Outcome{}, ErrInvalidBet
	}
	if err := h.charge(ctx, account, bet); err != nil {
		return Outcome{}, err
	}

	rate := h.winRate(ctx, highStakesWinRateKey, defaultHighStakesWinRate)
	won := h.roll() < rate

	out := Outcome{Bet: bet, Won: won}
	if won {
		out.Payout = h.drawPayout(bet)
		if out.Payout > 0 {
			if err := h.ledger.Add(ctx, account, out.Payout); err != nil {
				return Outcome{}, fmt.Errorf("credit high-stakes payout for %s: %w", account, err)
			}
		}
	}
	return h.finish(ctx, account, "high-stakes", out)
}

func (h *House) charge(ctx context.Context, account string, bet int64) error {
	err := h.ledger.Add(ctx, account, -bet)
	if errors.Is(err, store.ErrInsufficientFunds) {
		return ErrInsufficientFunds
	}
	return err
}

func (h *House) finish(ctx context.Context, account, game string, out Outcome) (Outcome, error) {
	balance, err := h.ledger.Balance(ctx, account)
	if err != nil {
		return Outcome{}, err
	}
	out.Balance = balance
	h.logger.Info("round settled",
		"game", game, "user", account, "bet", out.Bet, "won", out.Won, "payout", out.Payout)
	return out, nil
}

func (h *House) winRate(ctx context.Context, key string, fallback float64) float64 {
	raw, err := h.settings.Setting(ctx, key, "")
	if err != nil || raw == "" {
		return fallback
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate < 0 || rate > 1 {
		h.logger.Warn("ignoring bad win rate setting", "key", key, "value", raw)
		return fallback
	}
	return rate
}

func (h *House) roll() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64()
}

func (h *House) drawPayout(bet int64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	mean := payoutMeanFactor * float64(bet)
	stddev := payoutStddevFactor * float64(bet)
	payout := int64(h.rng.NormFloat64()*stddev + mean)
	if payout < 0 {
		return 0
	}
	return payout
}
