package table

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/starstream/starstream/internal/randutil"
	"github.com/starstream/starstream/poker"
)

// Result is the outcome of one action against a table: the updated snapshot
// and, when the action ended the game, the settlement.
type Result struct {
	Snapshot   Snapshot
	Settlement *Settlement
}

// Registry is the process-wide channel→table store. Each channel key owns an
// entry with its own mutex, so actions on one channel never contend with
// games on other channels; the registry mutex guards only map bookkeeping.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	ledger  Ledger
	logger  *log.Logger
	clock   quartz.Clock
	timeout time.Duration
	newRand func() *rand.Rand
}

type entry struct {
	mu    sync.Mutex
	table *Table // nil once the game has settled
	timer *quartz.Timer
	gen   uint64 // bumped per action so stale expiry timers no-op
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock injects the clock used for turn-expiry timers.
func WithClock(clock quartz.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithTurnTimeout sets how long the player at the turn index may stall
// before being auto-folded. Zero disables expiry.
func WithTurnTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithRandSource injects the deck RNG factory, one RNG per game.
func WithRandSource(f func() *rand.Rand) Option {
	return func(r *Registry) { r.newRand = f }
}

// NewRegistry creates an empty registry.
func NewRegistry(ledger Ledger, logger *log.Logger, opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		ledger:  ledger,
		logger:  logger.WithPrefix("registry"),
		clock:   quartz.NewReal(),
		newRand: randutil.NewFromTime,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateMulti creates a multiplayer table for the channel. Fails with
// ErrTableExists when the channel already has a live game.
func (r *Registry) CreateMulti(ctx context.Context, channel, host string, bet int64) (Result, error) {
	return r.create(ctx, channel, func() (*Table, error) {
		return NewMulti(ctx, r.ledger, channel, host, bet, poker.NewDeck(r.newRand()))
	})
}

// CreateSolo creates a single-player table for the channel.
func (r *Registry) CreateSolo(ctx context.Context, channel, player string, bet int64) (Result, error) {
	return r.create(ctx, channel, func() (*Table, error) {
		return NewSolo(ctx, r.ledger, channel, player, bet, poker.NewDeck(r.newRand()))
	})
}

func (r *Registry) create(ctx context.Context, channel string, build func() (*Table, error)) (Result, error) {
	for {
		r.mu.Lock()
		e, exists := r.entries[channel]
		if !exists {
			e = &entry{}
			r.entries[channel] = e
		}
		r.mu.Unlock()

		e.mu.Lock()
		// The entry may have been dropped from the map between lookup and
		// lock (failed create, settled game); start over if so.
		r.mu.Lock()
		current := r.entries[channel] == e
		r.mu.Unlock()
		if !current {
			e.mu.Unlock()
			continue
		}

		if e.table != nil {
			e.mu.Unlock()
			return Result{}, ErrTableExists
		}
		t, err := build()
		if err != nil {
			r.removeIfEmpty(channel, e)
			e.mu.Unlock()
			return Result{}, err
		}
		e.table = t
		e.gen++
		res := Result{Snapshot: t.snapshot()}
		e.mu.Unlock()
		r.logger.Info("game created", "channel", channel, "mode", t.Mode.String(), "bet", t.entryBet())
		return res, nil
	}
}

// Join adds a player to the channel's waiting table.
func (r *Registry) Join(ctx context.Context, channel, player string, bet int64) (Result, error) {
	return r.apply(channel, func(t *Table) (*Settlement, error) {
		return nil, t.Join(ctx, player, bet)
	})
}

// Start begins the channel's game.
func (r *Registry) Start(ctx context.Context, channel, player string) (Result, error) {
	return r.apply(channel, func(t *Table) (*Settlement, error) {
		return nil, t.Start(ctx, player)
	})
}

// Check passes the action for the player at the turn index.
func (r *Registry) Check(ctx context.Context, channel, player string) (Result, error) {
	return r.apply(channel, func(t *Table) (*Settlement, error) {
		return t.Check(ctx, player)
	})
}

// Call matches the current bet.
func (r *Registry) Call(ctx context.Context, channel, player string) (Result, error) {
	return r.apply(channel, func(t *Table) (*Settlement, error) {
		return t.Call(ctx, player)
	})
}

// Raise lifts the matching bet to amount.
func (r *Registry) Raise(ctx context.Context, channel, player string, amount int64) (Result, error) {
	return r.apply(channel, func(t *Table) (*Settlement, error) {
		return t.Raise(ctx, player, amount)
	})
}

// Fold folds the player's hand.
func (r *Registry) Fold(ctx context.Context, channel, player string) (Result, error) {
	return r.apply(channel, func(t *Table) (*Settlement, error) {
		return t.Fold(ctx, player)
	})
}

// Discard replaces the player's selected cards; empty positions stand pat.
func (r *Registry) Discard(ctx context.Context, channel, player string, positions []int) (Result, error) {
	return r.apply(channel, func(t *Table) (*Settlement, error) {
		return t.Discard(ctx, player, positions)
	})
}

// Status returns the channel's table snapshot.
func (r *Registry) Status(channel string) (Snapshot, error) {
	e, ok := r.lookup(channel)
	if !ok {
		return Snapshot{}, ErrNoTable
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.table == nil {
		return Snapshot{}, ErrNoTable
	}
	return e.table.snapshot(), nil
}

// PlayerHand returns a participant's private hand for the caller to whisper.
func (r *Registry) PlayerHand(channel, player string) (poker.Hand, error) {
	e, ok := r.lookup(channel)
	if !ok {
		return poker.Hand{}, ErrNoTable
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.table == nil {
		return poker.Hand{}, ErrNoTable
	}
	p := e.table.player(player)
	if p == nil {
		return poker.Hand{}, ErrNotInGame
	}
	return p.Hand, nil
}

// apply runs one action under the channel's entry lock. Settlement destroys
// the table; any other successful action rearms the turn-expiry timer.
func (r *Registry) apply(channel string, action func(*Table) (*Settlement, error)) (Result, error) {
	e, ok := r.lookup(channel)
	if !ok {
		return Result{}, ErrNoTable
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.table == nil {
		return Result{}, ErrNoTable
	}

	t := e.table
	settlement, err := action(t)
	if err != nil && settlement == nil {
		return Result{}, err
	}
	e.gen++

	res := Result{Snapshot: t.snapshot(), Settlement: settlement}
	if settlement != nil {
		r.destroyLocked(channel, e)
		r.logger.Info("game settled", "channel", channel, "pot", settlement.Pot, "payouts", len(settlement.Disbursements))
	} else {
		r.armExpiryLocked(channel, e)
	}
	return res, err
}

// armExpiryLocked schedules an auto-fold for the player at the turn index.
// Caller holds e.mu. Stale timers are invalidated by the generation counter.
func (r *Registry) armExpiryLocked(channel string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if r.timeout <= 0 || e.table == nil || !e.table.Stage.isBetting() {
		return
	}

	gen := e.gen
	player := e.table.Players[e.table.Turn].ID
	e.timer = r.clock.AfterFunc(r.timeout, func() {
		r.expireTurn(channel, e, gen, player)
	})
}

// expireTurn auto-folds a stalled player. A game with a non-responsive
// player would otherwise block its channel's table indefinitely.
func (r *Registry) expireTurn(channel string, e *entry, gen uint64, player string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.table == nil || e.gen != gen {
		return
	}

	r.logger.Warn("turn expired, auto-folding", "channel", channel, "player", player)
	t := e.table
	settlement, err := t.Fold(context.Background(), player)
	if err != nil {
		r.logger.Error("auto-fold failed", "channel", channel, "player", player, "err", err)
		return
	}
	e.gen++
	if settlement != nil {
		r.destroyLocked(channel, e)
		r.logger.Info("game settled", "channel", channel, "pot", settlement.Pot, "payouts", len(settlement.Disbursements))
	} else {
		r.armExpiryLocked(channel, e)
	}
}

func (r *Registry) lookup(channel string) (*entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[channel]
	return e, ok
}

// destroyLocked clears the entry's table and drops it from the map. Caller
// holds e.mu.
func (r *Registry) destroyLocked(channel string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.table = nil
	r.mu.Lock()
	delete(r.entries, channel)
	r.mu.Unlock()
}

// removeIfEmpty drops a placeholder entry created for a table that failed to
// build. Caller holds e.mu.
func (r *Registry) removeIfEmpty(channel string, e *entry) {
	if e.table != nil {
		return
	}
	r.mu.Lock()
	if cur, ok := r.entries[channel]; ok && cur == e {
		delete(r.entries, channel)
	}
	r.mu.Unlock()
}
