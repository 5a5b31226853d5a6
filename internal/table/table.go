package table

import (
	"context"
	"fmt"

	"github.com/starstream/starstream/poker"
)

// Table is one in-progress game, keyed by communication channel. At most one
// table is live per channel; the Registry enforces that and serializes all
// actions against a table, so Table itself needs no locking.
//
// Every mutating action verifies legality before touching any state, and the
// ledger charge for a bet happens before the matching state mutation: a
// failed charge leaves the table exactly as it was.
type Table struct {
	Channel    string
	Mode       Mode
	Stage      Stage
	Players    []*Player
	Turn       int
	Pot        int64
	CurrentBet int64 // the matching bet for the current betting round
	Host       string

	deck   *poker.Deck
	ledger Ledger
}

// NewMulti creates a multiplayer table in the waiting stage with the creator
// seated and their bet escrowed into the pot.
func NewMulti(ctx context.Context, ledger Ledger, channel, host string, bet int64, deck *poker.Deck) (*Table, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}
	t := &Table{
		Channel: channel,
		Mode:    Multi,
		Stage:   Waiting,
		Host:    host,
		deck:    deck,
		ledger:  ledger,
	}
	if err := t.escrow(ctx, host, bet); err != nil {
		return nil, err
	}
	return t, nil
}

// NewSolo creates a single-player table. There is no lobby and no betting:
// the hand is dealt immediately and the table waits in the draw stage for
// the one discard action, which settles against the paytable.
func NewSolo(ctx context.Context, ledger Ledger, channel, player string, bet int64, deck *poker.Deck) (*Table, error) {
	if bet <= 0 {
		return nil, ErrInvalidBet
	}
	t := &Table{
		Channel: channel,
		Mode:    Solo,
		Stage:   Draw,
		Host:    player,
		deck:    deck,
		ledger:  ledger,
	}
	if err := t.escrow(ctx, player, bet); err != nil {
		return nil, err
	}
	if err := t.dealHands(); err != nil {
		return nil, err
	}
	return t, nil
}

// escrow seats a player and moves their bet from the ledger into the pot.
func (t *Table) escrow(ctx context.Context, id string, bet int64) error {
	if err := t.charge(ctx, id, bet); err != nil {
		return err
	}
	t.Players = append(t.Players, &Player{
		ID:         id,
		TotalBet:   bet,
		LastAction: fmt.Sprintf("bet %d", bet),
	})
	t.Pot += bet
	return nil
}

// charge verifies sufficiency and debits the ledger. No table state moves
// here; callers mutate only after a successful charge.
func (t *Table) charge(ctx context.Context, id string, amount int64) error {
	if amount == 0 {
		return nil
	}
	balance, err := t.ledger.Balance(ctx, id)
	if err != nil {
		return fmt.Errorf("check balance for %s: %w", id, err)
	}
	if balance < amount {
		return ErrInsufficientFunds
	}
	if err := t.ledger.Add(ctx, id, -amount); err != nil {
		return fmt.Errorf("charge %d from %s: %w", amount, id, err)
	}
	return nil
}

// Join seats a new player. Legal only while waiting; the bet must match the
// creator's bet exactly.
func (t *Table) Join(ctx context.Context, id string, bet int64) error {
	if t.Stage != Waiting {
		return ErrWrongStage
	}
	if t.player(id) != nil {
		return ErrAlreadyJoined
	}
	if bet != t.entryBet() {
		return ErrBetMismatch
	}
	return t.escrow(ctx, id, bet)
}

// Start deals five cards to every player and opens the first betting round.
// Only the creator may start. The entry bets count as each player's
// committed bet for the first round, so the round opens with everyone
// already matched and free to check.
func (t *Table) Start(ctx context.Context, id string) error {
	if t.Stage != Waiting {
		return ErrWrongStage
	}
	if id != t.Host {
		return ErrNotHost
	}
	if len(t.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	if err := t.dealHands(); err != nil {
		return err
	}
	t.Stage = FirstBetting
	t.CurrentBet = t.entryBet()
	for _, p := range t.Players {
		p.Bet = p.TotalBet
	}
	t.Turn = 0
	return nil
}

// Check passes the action. Legal only when the player's committed bet
// already matches the round's bet.
func (t *Table) Check(ctx context.Context, id string) (*Settlement, error) {
	p, err := t.turnPlayer(id)
	if err != nil {
		return nil, err
	}
	if p.Bet != t.CurrentBet {
		return nil, ErrCannotCheck
	}
	p.Acted = true
	p.LastAction = "checked"
	t.advanceTurn()
	return t.maybeCloseRound(ctx)
}

// Call pays the difference between the matching bet and the player's
// committed bet into the pot.
func (t *Table) Call(ctx context.Context, id string) (*Settlement, error) {
	p, err := t.turnPlayer(id)
	if err != nil {
		return nil, err
	}
	diff := t.CurrentBet - p.Bet
	if err := t.charge(ctx, id, diff); err != nil {
		return nil, err
	}
	p.Bet = t.CurrentBet
	t.Pot += diff
	p.Acted = true
	p.LastAction = fmt.Sprintf("called %d", t.CurrentBet)
	t.advanceTurn()
	return t.maybeCloseRound(ctx)
}

// Raise lifts the matching bet to amount, which must strictly exceed it.
// Raising reopens the round: every other live player must respond to the
// new amount, so their acted flags are cleared.
func (t *Table) Raise(ctx context.Context, id string, amount int64) (*Settlement, error) {
	p, err := t.turnPlayer(id)
	if err != nil {
		return nil, err
	}
	if amount <= t.CurrentBet {
		return nil, ErrRaiseTooSmall
	}
	diff := amount - p.Bet
	if err := t.charge(ctx, id, diff); err != nil {
		return nil, err
	}
	p.Bet = amount
	t.Pot += diff
	t.CurrentBet = amount
	for _, other := range t.Players {
		if other != p && !other.Folded {
			other.Acted = false
		}
	}
	p.Acted = true
	p.LastAction = fmt.Sprintf("raised to %d", amount)
	t.advanceTurn()
	return t.maybeCloseRound(ctx)
}

// Fold removes the player from the turn rotation. If only one live player
// remains the game settles immediately, skipping any remaining stages.
func (t *Table) Fold(ctx context.Context, id string) (*Settlement, error) {
	p, err := t.turnPlayer(id)
	if err != nil {
		return nil, err
	}
	p.Folded = true
	p.LastAction = "folded"
	if t.activeCount() == 1 {
		return t.settleShowdown(ctx)
	}
	t.advanceTurn()
	return t.maybeCloseRound(ctx)
}

// Discard replaces the cards at the given hand positions (zero positions =
// stand pat). Each live player discards at most once; turn order is not
// enforced in the draw stage. In solo mode the discard is the terminal
// action and settles the game immediately.
func (t *Table) Discard(ctx context.Context, id string, positions []int) (*Settlement, error) {
	if t.Stage != Draw {
		return nil, ErrWrongStage
	}
	p := t.player(id)
	if p == nil {
		return nil, ErrNotInGame
	}
	if p.Folded {
		return nil, ErrFolded
	}
	if p.Discarded {
		return nil, ErrAlreadyDiscarded
	}
	if len(positions) > poker.HandSize {
		return nil, ErrInvalidDiscard
	}
	seen := make(map[int]bool, len(positions))
	for _, pos := range positions {
		if pos < 0 || pos >= poker.HandSize || seen[pos] {
			return nil, ErrInvalidDiscard
		}
		seen[pos] = true
	}

	// Replacements come from the same deck as the initial deal, so no card
	// is ever dealt twice in one game.
	replacements, err := t.deck.Deal(len(positions))
	if err != nil {
		return nil, fmt.Errorf("draw replacements: %w", err)
	}
	for i, pos := range positions {
		p.Hand = p.Hand.Replace(pos, replacements[i])
	}
	p.Discarded = true
	if len(positions) == 0 {
		p.LastAction = "stood pat"
	} else {
		p.LastAction = fmt.Sprintf("drew %d", len(positions))
	}

	if t.Mode == Solo {
		return t.settleSolo(ctx)
	}
	if t.allDiscarded() {
		t.openBettingRound(SecondBetting)
	}
	return nil, nil
}

// Stand is discarding zero cards.
func (t *Table) Stand(ctx context.Context, id string) (*Settlement, error) {
	return t.Discard(ctx, id, nil)
}

// turnPlayer validates a betting action: right stage, right player, not folded.
func (t *Table) turnPlayer(id string) (*Player, error) {
	if !t.Stage.isBetting() {
		return nil, ErrWrongStage
	}
	p := t.player(id)
	if p == nil {
		return nil, ErrNotInGame
	}
	if p.Folded {
		return nil, ErrFolded
	}
	if t.Players[t.Turn] != p {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// maybeCloseRound advances the stage once every live player has acted and
// matched the current bet.
func (t *Table) maybeCloseRound(ctx context.Context) (*Settlement, error) {
	if !t.roundClosed() {
		return nil, nil
	}
	switch t.Stage {
	case FirstBetting:
		t.Stage = Draw
		t.resetBettingRound()
	case SecondBetting:
		t.Stage = Showdown
		return t.settleShowdown(ctx)
	}
	return nil, nil
}

// roundClosed reports whether every live player has acted this round and
// committed the matching bet.
func (t *Table) roundClosed() bool {
	for _, p := range t.Players {
		if p.Folded {
			continue
		}
		if !p.Acted || p.Bet != t.CurrentBet {
			return false
		}
	}
	return true
}

// openBettingRound resets per-round state for the given betting stage. The
// pot keeps accumulating across rounds.
func (t *Table) openBettingRound(stage Stage) {
	t.Stage = stage
	t.resetBettingRound()
	t.Turn = t.firstActive()
}

func (t *Table) resetBettingRound() {
	t.CurrentBet = 0
	for _, p := range t.Players {
		p.Bet = 0
		p.Acted = false
	}
}

func (t *Table) dealHands() error {
	for _, p := range t.Players {
		cards, err := t.deck.Deal(poker.HandSize)
		if err != nil {
			return fmt.Errorf("deal hand: %w", err)
		}
		hand, err := poker.NewHand(cards)
		if err != nil {
			return fmt.Errorf("deal hand: %w", err)
		}
		p.Hand = hand
	}
	return nil
}

func (t *Table) player(id string) *Player {
	for _, p := range t.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *Table) entryBet() int64 {
	return t.Players[0].TotalBet
}

func (t *Table) activeCount() int {
	n := 0
	for _, p := range t.Players {
		if !p.Folded {
			n++
		}
	}
	return n
}

func (t *Table) firstActive() int {
	for i, p := range t.Players {
		if !p.Folded {
			return i
		}
	}
	return 0
}

func (t *Table) allDiscarded() bool {
	for _, p := range t.Players {
		if !p.Folded && !p.Discarded {
			return false
		}
	}
	return true
}

func (t *Table) advanceTurn() {
	for i := 1; i <= len(t.Players); i++ {
		idx := (t.Turn + i) % len(t.Players)
		if !t.Players[idx].Folded {
			t.Turn = idx
			return
		}
	}
}
