package poker

import (
	"errors"
	"fmt"
	"strings"
)

// HandSize is the fixed number of cards in a draw-poker hand.
const HandSize = 5

// Hand is exactly five cards. The fixed arity keeps the five-card invariant
// in the type rather than in length checks scattered through discard and
// evaluation code.
type Hand [HandSize]Card

var errDuplicateCard = errors.New("duplicate card in hand")

// NewHand builds a Hand from exactly five distinct cards.
func NewHand(cards []Card) (Hand, error) {
	var h Hand
	if len(cards) != HandSize {
		return h, fmt.Errorf("hand requires %d cards, got %d", HandSize, len(cards))
	}
	seen := make(map[Card]struct{}, HandSize)
	for i, c := range cards {
		if _, dup := seen[c]; dup {
			return h, fmt.Errorf("%w: %s", errDuplicateCard, c)
		}
		seen[c] = struct{}{}
		h[i] = c
	}
	return h, nil
}

// Replace returns a copy of the hand with the card at position i swapped out.
func (h Hand) Replace(i int, c Card) Hand {
	h[i] = c
	return h
}

// String returns the hand as space-separated cards (e.g., "A♠ K♦ 9♣ 5♥ 2♠")
func (h Hand) String() string {
	parts := make([]string, HandSize)
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
