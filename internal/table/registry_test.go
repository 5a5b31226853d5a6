package table

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func seededRegistry(ledger Ledger, opts ...Option) *Registry {
	var seed int64
	base := []Option{WithRandSource(func() *rand.Rand {
		seed++
		return rand.New(rand.NewSource(seed))
	})}
	return NewRegistry(ledger, testLogger(), append(base, opts...)...)
}

func TestRegistryOneTablePerChannel(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int64{"alice": 500, "bob": 500})
	reg := seededRegistry(ledger)

	_, err := reg.CreateMulti(ctx, "chan-1", "alice", 100)
	require.NoError(t, err)

	_, err = reg.CreateMulti(ctx, "chan-1", "bob", 100)
	assert.ErrorIs(t, err, ErrTableExists)
	_, err = reg.CreateSolo(ctx, "chan-1", "bob", 100)
	assert.ErrorIs(t, err, ErrTableExists)

	// A different channel is unaffected.
	_, err = reg.CreateSolo(ctx, "chan-2", "bob", 100)
	require.NoError(t, err)
}

func TestRegistryRejectsUnknownChannel(t *testing.T) {
	ctx := context.Background()
	reg := seededRegistry(newFakeLedger(map[string]int64{}))

	_, err := reg.Check(ctx, "nowhere", "alice")
	assert.ErrorIs(t, err, ErrNoTable)
	_, err = reg.Status("nowhere")
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestRegistryDestroysTableOnSettlement(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int64{"alice": 500})
	reg := seededRegistry(ledger)

	_, err := reg.CreateSolo(ctx, "dm-alice", "alice", 50)
	require.NoError(t, err)

	res, err := reg.Discard(ctx, "dm-alice", "alice", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Settlement)

	_, err = reg.Status("dm-alice")
	assert.ErrorIs(t, err, ErrNoTable)

	// The channel is free for a new game.
	_, err = reg.CreateSolo(ctx, "dm-alice", "alice", 10)
	require.NoError(t, err)
}

func TestRegistryFailedCreateLeavesChannelFree(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int64{"alice": 10})
	reg := seededRegistry(ledger)

	_, err := reg.CreateMulti(ctx, "chan-1", "alice", 100)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = reg.CreateMulti(ctx, "chan-1", "alice", 10)
	require.NoError(t, err)
}

func TestRegistrySnapshot(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger(map[string]int64{"alice": 500, "bob": 500})
	reg := seededRegistry(ledger)

	_, err := reg.CreateMulti(ctx, "chan-1", "alice", 100)
	require.NoError(t, err)
	_, err = reg.Join(ctx, "chan-1", "bob", 100)
	require.NoError(t, err)
	res, err := reg.Start(ctx, "chan-1", "alice")
	require.NoError(t, err)

	snap := res.Snapshot
	assert.Equal(t, "first-betting", snap.Stage)
	assert.Equal(t, int64(200), snap.Pot)
	assert.Equal(t, int64(100), snap.CurrentBet)
	assert.Equal(t, "alice", snap.TurnPlayer)
	require.Len(t, snap.Players, 2)
	assert.Equal(t, int64(100), snap.Players[1].Bet)

	hand, err := reg.PlayerHand("chan-1", "bob")
	require.NoError(t, err)
	assert.NotEmpty(t, hand.String())
	_, err = reg.PlayerHand("chan-1", "mallory")
	assert.ErrorIs(t, err, ErrNotInGame)
}

func TestRegistryIndependentChannelsProgressConcurrently(t *testing.T) {
	ctx := context.Background()
	balances := map[string]int64{}
	for i := 0; i < 16; i++ {
		balances[fmt.Sprintf("player-%d", i)] = 1000
	}
	reg := seededRegistry(newFakeLedger(balances))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			channel := fmt.Sprintf("chan-%d", i)
			player := fmt.Sprintf("player-%d", i)
			for g := 0; g < 10; g++ {
				_, err := reg.CreateSolo(ctx, channel, player, 5)
				assert.NoError(t, err)
				res, err := reg.Discard(ctx, channel, player, []int{0, 1})
				assert.NoError(t, err)
				assert.NotNil(t, res.Settlement)
			}
		}(i)
	}
	wg.Wait()
}

func TestTurnExpiryAutoFolds(t *testing.T) {
	ctx := context.Background()
	mock := quartz.NewMock(t)
	ledger := newFakeLedger(map[string]int64{"alice": 500, "bob": 500})
	reg := seededRegistry(ledger, WithClock(mock), WithTurnTimeout(30*time.Second))

	_, err := reg.CreateMulti(ctx, "chan-1", "alice", 100)
	require.NoError(t, err)
	_, err = reg.Join(ctx, "chan-1", "bob", 100)
	require.NoError(t, err)
	_, err = reg.Start(ctx, "chan-1", "alice")
	require.NoError(t, err)

	// Alice never acts. After the timeout she is auto-folded, leaving bob
	// as the sole live player, so the game settles and the table is gone.
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	mock.Advance(30 * time.Second).MustWait(waitCtx)

	_, err = reg.Status("chan-1")
	assert.ErrorIs(t, err, ErrNoTable)
	assert.Equal(t, int64(600), ledger.balance("bob"))
	assert.Equal(t, int64(400), ledger.balance("alice"))
}

func TestTurnExpiryRearmsPerAction(t *testing.T) {
	ctx := context.Background()
	mock := quartz.NewMock(t)
	ledger := newFakeLedger(map[string]int64{"alice": 500, "bob": 500, "carol": 500})
	reg := seededRegistry(ledger, WithClock(mock), WithTurnTimeout(30*time.Second))

	_, err := reg.CreateMulti(ctx, "chan-1", "alice", 100)
	require.NoError(t, err)
	_, err = reg.Join(ctx, "chan-1", "bob", 100)
	require.NoError(t, err)
	_, err = reg.Join(ctx, "chan-1", "carol", 100)
	require.NoError(t, err)
	_, err = reg.Start(ctx, "chan-1", "alice")
	require.NoError(t, err)

	// Alice acts just before her deadline; the timer restarts for bob.
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	mock.Advance(29 * time.Second).MustWait(waitCtx)
	_, err = reg.Check(ctx, "chan-1", "alice")
	require.NoError(t, err)

	mock.Advance(30 * time.Second).MustWait(waitCtx)

	snap, err := reg.Status("chan-1")
	require.NoError(t, err)
	assert.True(t, snap.Players[1].Folded, "bob should be auto-folded")
	assert.False(t, snap.Players[0].Folded)
	assert.Equal(t, "carol", snap.TurnPlayer)
}
