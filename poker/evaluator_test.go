package poker

import "testing"

func card(r Rank, s Suit) Card { return NewCard(r, s) }

func mustHand(t *testing.T, cards ...Card) Hand {
	t.Helper()
	h, err := NewHand(cards)
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}
	return h
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name    string
		cards   []Card
		cat     Category
		kickers [5]Rank
	}{
		{
			name:    "straight flush",
			cards:   []Card{card(Nine, Hearts), card(Eight, Hearts), card(Seven, Hearts), card(Six, Hearts), card(Five, Hearts)},
			cat:     StraightFlush,
			kickers: [5]Rank{Nine},
		},
		{
			name:    "four of a kind",
			cards:   []Card{card(Queen, Spades), card(Queen, Hearts), card(Queen, Diamonds), card(Queen, Clubs), card(Three, Spades)},
			cat:     FourOfAKind,
			kickers: [5]Rank{Queen, Three},
		},
		{
			name:    "full house",
			cards:   []Card{card(Ten, Spades), card(Ten, Hearts), card(Ten, Diamonds), card(Four, Clubs), card(Four, Spades)},
			cat:     FullHouse,
			kickers: [5]Rank{Ten, Four},
		},
		{
			name:    "flush",
			cards:   []Card{card(King, Clubs), card(Jack, Clubs), card(Eight, Clubs), card(Six, Clubs), card(Two, Clubs)},
			cat:     Flush,
			kickers: [5]Rank{King, Jack, Eight, Six, Two},
		},
		{
			name:    "ace high straight",
			cards:   []Card{card(Ace, Spades), card(King, Hearts), card(Queen, Diamonds), card(Jack, Clubs), card(Ten, Spades)},
			cat:     Straight,
			kickers: [5]Rank{Ace},
		},
		{
			name:    "wheel straight is five high",
			cards:   []Card{card(Ace, Spades), card(Two, Hearts), card(Three, Diamonds), card(Four, Clubs), card(Five, Spades)},
			cat:     Straight,
			kickers: [5]Rank{Five},
		},
		{
			name:    "three of a kind",
			cards:   []Card{card(Seven, Spades), card(Seven, Hearts), card(Seven, Diamonds), card(King, Clubs), card(Two, Spades)},
			cat:     ThreeOfAKind,
			kickers: [5]Rank{Seven, King, Two},
		},
		{
			name:    "two pair",
			cards:   []Card{card(Jack, Spades), card(Jack, Hearts), card(Four, Diamonds), card(Four, Clubs), card(Nine, Spades)},
			cat:     TwoPair,
			kickers: [5]Rank{Jack, Four, Nine},
		},
		{
			name:    "one pair",
			cards:   []Card{card(Six, Spades), card(Six, Hearts), card(Ace, Diamonds), card(Ten, Clubs), card(Three, Spades)},
			cat:     OnePair,
			kickers: [5]Rank{Six, Ace, Ten, Three},
		},
		{
			name:    "high card",
			cards:   []Card{card(Ace, Spades), card(Jack, Hearts), card(Nine, Diamonds), card(Six, Clubs), card(Two, Spades)},
			cat:     HighCard,
			kickers: [5]Rank{Ace, Jack, Nine, Six, Two},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hv := Evaluate(mustHand(t, tt.cards...))
			if hv.Category != tt.cat {
				t.Errorf("category = %v, want %v", hv.Category, tt.cat)
			}
			if hv.Kickers != tt.kickers {
				t.Errorf("kickers = %v, want %v", hv.Kickers, tt.kickers)
			}
		})
	}
}

func TestWheelLosesToSixHighStraight(t *testing.T) {
	wheel := Evaluate(mustHand(t,
		card(Ace, Spades), card(Two, Hearts), card(Three, Diamonds), card(Four, Clubs), card(Five, Spades)))
	sixHigh := Evaluate(mustHand(t,
		card(Two, Spades), card(Three, Hearts), card(Four, Diamonds), card(Five, Clubs), card(Six, Spades)))

	if wheel.Category != Straight || sixHigh.Category != Straight {
		t.Fatalf("both hands should be straights, got %v and %v", wheel.Category, sixHigh.Category)
	}
	if !wheel.Less(sixHigh) {
		t.Error("five-high straight should lose to six-high straight")
	}
	if sixHigh.Less(wheel) {
		t.Error("six-high straight should not lose to five-high straight")
	}
}

func TestCategoryOrderingIsTransitive(t *testing.T) {
	// One sample hand per category, ascending strength order.
	samples := []Hand{
		mustHand(t, card(Ace, Spades), card(Jack, Hearts), card(Nine, Diamonds), card(Six, Clubs), card(Two, Spades)),
		mustHand(t, card(Six, Spades), card(Six, Hearts), card(Ace, Diamonds), card(Ten, Clubs), card(Three, Spades)),
		mustHand(t, card(Jack, Spades), card(Jack, Hearts), card(Four, Diamonds), card(Four, Clubs), card(Nine, Spades)),
		mustHand(t, card(Seven, Spades), card(Seven, Hearts), card(Seven, Diamonds), card(King, Clubs), card(Two, Spades)),
		mustHand(t, card(Ace, Spades), card(King, Hearts), card(Queen, Diamonds), card(Jack, Clubs), card(Ten, Spades)),
		mustHand(t, card(King, Clubs), card(Jack, Clubs), card(Eight, Clubs), card(Six, Clubs), card(Two, Clubs)),
		mustHand(t, card(Ten, Spades), card(Ten, Hearts), card(Ten, Diamonds), card(Four, Clubs), card(Four, Spades)),
		mustHand(t, card(Queen, Spades), card(Queen, Hearts), card(Queen, Diamonds), card(Queen, Clubs), card(Three, Spades)),
		mustHand(t, card(Nine, Hearts), card(Eight, Hearts), card(Seven, Hearts), card(Six, Hearts), card(Five, Hearts)),
	}

	for i := 0; i < len(samples); i++ {
		for j := 0; j < len(samples); j++ {
			a, b := Evaluate(samples[i]), Evaluate(samples[j])
			if (i < j) != a.Less(b) {
				t.Errorf("sample %d vs %d: Less = %v, want %v", i, j, a.Less(b), i < j)
			}
		}
	}
}

func TestKickerTieBreaks(t *testing.T) {
	higherKicker := Evaluate(mustHand(t,
		card(Eight, Spades), card(Eight, Hearts), card(Ace, Diamonds), card(Seven, Clubs), card(Two, Spades)))
	lowerKicker := Evaluate(mustHand(t,
		card(Eight, Diamonds), card(Eight, Clubs), card(King, Spades), card(Seven, Hearts), card(Two, Diamonds)))

	if !lowerKicker.Less(higherKicker) {
		t.Error("pair of eights with king kicker should lose to ace kicker")
	}

	exactTieA := Evaluate(mustHand(t,
		card(Nine, Spades), card(Nine, Hearts), card(Queen, Diamonds), card(Five, Clubs), card(Three, Spades)))
	exactTieB := Evaluate(mustHand(t,
		card(Nine, Diamonds), card(Nine, Clubs), card(Queen, Spades), card(Five, Hearts), card(Three, Diamonds)))
	if !exactTieA.Equal(exactTieB) {
		t.Error("hands differing only in suits should tie exactly")
	}
}

func TestPaysJacksOrBetter(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		pays  bool
	}{
		{
			name:  "pair of kings pays",
			cards: []Card{card(King, Spades), card(King, Hearts), card(Nine, Diamonds), card(Six, Clubs), card(Two, Spades)},
			pays:  true,
		},
		{
			name:  "pair of jacks pays",
			cards: []Card{card(Jack, Spades), card(Jack, Hearts), card(Nine, Diamonds), card(Six, Clubs), card(Two, Spades)},
			pays:  true,
		},
		{
			name:  "pair of tens does not pay",
			cards: []Card{card(Ten, Spades), card(Ten, Hearts), card(Nine, Diamonds), card(Six, Clubs), card(Two, Spades)},
			pays:  false,
		},
		{
			name:  "high card does not pay",
			cards: []Card{card(Ace, Spades), card(Jack, Hearts), card(Nine, Diamonds), card(Six, Clubs), card(Two, Spades)},
			pays:  false,
		},
		{
			name:  "two pair always pays",
			cards: []Card{card(Four, Spades), card(Four, Hearts), card(Two, Diamonds), card(Two, Clubs), card(Nine, Spades)},
			pays:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hv := Evaluate(mustHand(t, tt.cards...))
			if hv.PaysJacksOrBetter() != tt.pays {
				t.Errorf("PaysJacksOrBetter() = %v, want %v", hv.PaysJacksOrBetter(), tt.pays)
			}
			// The gate never changes the displayed label.
			if hv.Category == OnePair && hv.Category.String() != "One Pair" {
				t.Errorf("label changed by payout gate: %s", hv.Category)
			}
		})
	}
}
