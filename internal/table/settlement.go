package table

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/starstream/starstream/poker"
)

// Paytable maps hand categories to the fixed payout multiplier for the solo
// variant. A one-pair hand pays only when it clears the jacks-or-better
// gate; categories absent from the table pay zero and the bet is forfeit.
var Paytable = map[poker.Category]int64{
	poker.StraightFlush: 50,
	poker.FourOfAKind:   25,
	poker.FullHouse:     9,
	poker.Flush:         6,
	poker.Straight:      4,
	poker.ThreeOfAKind:  3,
	poker.TwoPair:       2,
	poker.OnePair:       1,
}

// Disbursement is one payment made at settlement.
type Disbursement struct {
	Account  string `json:"account"`
	Amount   int64  `json:"amount"`
	Category string `json:"category"`
	Hand     string `json:"hand"`
}

// Settlement is the terminal result of a game. The pot is fully accounted
// for by the disbursements: in multiplayer their amounts always sum to the
// pot exactly.
type Settlement struct {
	ID            string         `json:"id"`
	Channel       string         `json:"channel"`
	Pot           int64          `json:"pot"`
	Disbursements []Disbursement `json:"disbursements"`
}

// settleShowdown resolves a multiplayer game: the best live hand under the
// evaluator's total order wins the pot; exact ties split it, with any
// remainder going to tied winners earliest in join order. Also handles the
// all-but-one-fold case, where the sole live player takes everything.
func (t *Table) settleShowdown(ctx context.Context) (*Settlement, error) {
	type ranked struct {
		player *Player
		value  poker.HandValue
	}

	var best []ranked
	for _, p := range t.Players {
		if p.Folded {
			continue
		}
		r := ranked{player: p, value: poker.Evaluate(p.Hand)}
		switch {
		case len(best) == 0 || best[0].value.Less(r.value):
			best = []ranked{r}
		case r.value.Equal(best[0].value):
			best = append(best, r)
		}
	}
	if len(best) == 0 {
		return nil, fmt.Errorf("settle %s: no live players", t.Channel)
	}

	s := &Settlement{
		ID:      uuid.NewString(),
		Channel: t.Channel,
		Pot:     t.Pot,
	}

	share := t.Pot / int64(len(best))
	remainder := t.Pot % int64(len(best))
	for i, r := range best {
		amount := share
		// Remainder chips go to tied winners front-to-back in join order.
		if int64(i) < remainder {
			amount++
		}
		s.Disbursements = append(s.Disbursements, Disbursement{
			Account:  r.player.ID,
			Amount:   amount,
			Category: r.value.Category.String(),
			Hand:     r.player.Hand.String(),
		})
	}

	if err := t.pay(ctx, s); err != nil {
		return s, err
	}
	return s, nil
}

// settleSolo resolves the single-player variant against the paytable: the
// escrowed bet is multiplied by the category's fixed odds, or forfeited when
// the hand falls below the jacks-or-better gate.
func (t *Table) settleSolo(ctx context.Context) (*Settlement, error) {
	p := t.Players[0]
	value := poker.Evaluate(p.Hand)

	var amount int64
	if value.PaysJacksOrBetter() {
		amount = t.Pot * Paytable[value.Category]
	}

	s := &Settlement{
		ID:      uuid.NewString(),
		Channel: t.Channel,
		Pot:     t.Pot,
		Disbursements: []Disbursement{{
			Account:  p.ID,
			Amount:   amount,
			Category: value.Category.String(),
			Hand:     p.Hand.String(),
		}},
	}

	if err := t.pay(ctx, s); err != nil {
		return s, err
	}
	return s, nil
}

// pay credits every disbursement to the ledger. A failed credit is reported
// explicitly, never dropped: the returned error names the account so the
// caller can reconcile.
func (t *Table) pay(ctx context.Context, s *Settlement) error {
	for _, d := range s.Disbursements {
		if d.Amount == 0 {
			continue
		}
		if err := t.ledger.Add(ctx, d.Account, d.Amount); err != nil {
			return fmt.Errorf("settlement %s: pay %d to %s: %w", s.ID, d.Amount, d.Account, err)
		}
	}
	return nil
}
