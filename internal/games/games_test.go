package games

import (
	"context"
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starstream/starstream/internal/store"
)

type memLedger struct {
	balances map[string]int64
}

func (m *memLedger) Balance(_ context.Context, account string) (int64, error) {
	return m.balances[account], nil
}

func (m *memLedger) Add(_ context.Context, account string, delta int64) error {
	if m.balances[account]+delta < 0 {
		return store.ErrInsufficientFunds
	}
	m.balances[account] += delta
	return nil
}

type memSettings map[string]string

func (m memSettings) Setting(_ context.Context, key, fallback string) (string, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return fallback, nil
}

func testHouse(ledger *memLedger, settings memSettings, seed int64) *House {
	return NewHouse(ledger, settings, rand.New(rand.NewSource(seed)), log.New(io.Discard))
}

func TestCoinflipWinPaysDouble(t *testing.T) {
	ledger := &memLedger{balances: map[string]int64{"alice": 100}}
	h := testHouse(ledger, memSettings{"cf_win_rate": "1.0"}, 1)

	out, err := h.Coinflip(context.Background(), "alice", 40, Heads)
	require.NoError(t, err)

	assert.True(t, out.Won)
	assert.Equal(t, Heads, out.Landed)
	assert.Equal(t, int64(80), out.Payout)
	assert.Equal(t, int64(140), out.Balance)
}

func TestParseSide(t *testing.T) {
	for _, in := range []string{"heads", "Head", "h"} {
		side, err := ParseSide(in)
		require.NoError(t, err)
		assert.Equal(t, Heads, side)
	}
	side, err := ParseSide("T")
	require.NoError(t, err)
	assert.Equal(t, Tails, side)

	_, err = ParseSide("edge")
	require.ErrorIs(t, err, ErrInvalidSide)
}

func TestCoinflipLossForfeitsBet(t *testing.T) {
	ledger := &memLedger{balances: map[string]int64{"alice": 100}}
	h := testHouse(ledger, memSettings{"cf_win_rate": "0.0"}, 1)

	out, err := h.Coinflip(context.Background(), "alice", 40, Heads)
	require.NoError(t, err)

	assert.False(t, out.Won)
	assert.Equal(t, Tails, out.Landed, "a lost call lands on the other side")
	assert.Zero(t, out.Payout)
	assert.Equal(t, int64(60), out.Balance)
}

func TestCoinflipRejectsBadBets(t *testing.T) {
	ledger := &memLedger{balances: map[string]int64{"alice": 10}}
	h := testHouse(ledger, memSettings{}, 1)

	_, err := h.Coinflip(context.Background(), "alice", 0, Heads)
	require.ErrorIs(t, err, ErrInvalidBet)

	_, err = h.Coinflip(context.Background(), "alice", -5, Tails)
	require.ErrorIs(t, err, ErrInvalidBet)

	_, err = h.Coinflip(context.Background(), "alice", 50, Heads)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(10), ledger.balances["alice"], "failed bet must not move the balance")
}

func TestCoinflipDefaultRateIsHouseFavored(t *testing.T) {
	ledger := &memLedger{balances: map[string]int64{"alice": 1 << 40}}
	h := testHouse(ledger, memSettings{}, 7)

	const rounds = 5000
	wins := 0
	for i := 0; i < rounds; i++ {
		out, err := h.Coinflip(context.Background(), "alice", 1, Heads)
		require.NoError(t, err)
		if out.Won {
			wins++
		}
	}
	rate := float64(wins) / rounds
	assert.InDelta(t, defaultCoinflipWinRate, rate, 0.05)
}

func TestBadWinRateSettingFallsBack(t *testing.T) {
	ledger := &memLedger{balances: map[string]int64{"alice": 1 << 40}}
	h := testHouse(ledger, memSettings{"cf_win_rate": "lots"}, 7)

	const rounds = 5000
	wins := 0
	for i := 0; i < rounds; i++ {
		out, err := h.Coinflip(context.Background(), "alice", 1, Heads)
		require.NoError(t, err)
		if out.Won {
			wins++
		}
	}
	assert.InDelta(t, defaultCoinflipWinRate, float64(wins)/rounds, 0.05)
}

func TestHighStakesPayoutDistribution(t *testing.T) {
	ledger := &memLedger{balances: map[string]int64{"alice": 1 << 50}}
	h := testHouse(ledger, memSettings{"bet_win_rate": "1.0"}, 11)

	const (
		rounds = 2000
		bet    = 1000
	)
	var total int64
	for i := 0; i < rounds; i++ {
		out, err := h.HighStakes(context.Background(), "alice", bet)
		require.NoError(t, err)
		require.True(t, out.Won)
		require.GreaterOrEqual(t, out.Payout, int64(0))
		total += out.Payout
	}
	mean := float64(total) / rounds
	assert.InDelta(t, payoutMeanFactor*bet, mean, 0.2*payoutMeanFactor*bet)
}

func TestHighStakesLossForfeitsBet(t *testing.T) {
	ledger := &memLedger{balances: map[string]int64{"bob": 500}}
	h := testHouse(ledger, memSettings{"bet_win_rate": "0.0"}, 3)

	out, err := h.HighStakes(context.Background(), "bob", 200)
	require.NoError(t, err)

	assert.False(t, out.Won)
	assert.Equal(t, int64(300), out.Balance)
}
