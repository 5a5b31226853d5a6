package poker

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrDeckExhausted is returned when a deal asks for more cards than remain.
// Game sizing (5 players × 10 cards max) never reaches it; hitting this
// error indicates an engine bug rather than a user mistake.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck represents a standard 52-card deck. One deck instance serves a whole
// game: the initial deal and any draw replacements come from the same
// shuffled order, so a card already dealt is never dealt again.
type Deck struct {
	cards [52]Card
	next  int
	rng   *rand.Rand
}

// NewDeck creates a new shuffled deck with an explicit RNG
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}

	i := 0
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}

	d.shuffle()
	return d
}

// NewStackedDeck returns an unshuffled deck with the given cards on top in
// order, followed by the remaining cards in canonical suit/rank order.
// Intended for tests that need known deals.
func NewStackedDeck(top ...Card) *Deck {
	d := &Deck{}
	onTop := make(map[Card]struct{}, len(top))
	i := 0
	for _, c := range top {
		onTop[c] = struct{}{}
		d.cards[i] = c
		i++
	}
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			c := NewCard(rank, suit)
			if _, ok := onTop[c]; ok {
				continue
			}
			d.cards[i] = c
			i++
		}
	}
	return d
}

// shuffle shuffles the deck using Fisher-Yates
func (d *Deck) shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		var j int
		if d.rng != nil {
			j = d.rng.Intn(i + 1)
		} else {
			j = rand.Intn(i + 1)
		}
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns the top n cards in deck order.
func (d *Deck) Deal(n int) ([]Card, error) {
	if d.next+n > len(d.cards) {
		return nil, fmt.Errorf("deal %d with %d remaining: %w", n, d.CardsRemaining(), ErrDeckExhausted)
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards, nil
}

// DealOne deals a single card from the deck
func (d *Deck) DealOne() (Card, error) {
	cards, err := d.Deal(1)
	if err != nil {
		return Card{}, err
	}
	return cards[0], nil
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards) - d.next
}
