package poker

import "sort"

// Category enumerates poker hand categories ordered from weakest to strongest.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns a human-readable category label
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandValue encodes a 5-card hand for comparison: the category plus a kicker
// sequence sufficient for a total order within the category. Kickers are
// listed most significant first; unused positions are zero.
type HandValue struct {
	Category Category
	Kickers  [5]Rank
}

// Less reports whether hv ranks strictly below other.
func (hv HandValue) Less(other HandValue) bool {
	if hv.Category != other.Category {
		return hv.Category < other.Category
	}
	for i := 0; i < len(hv.Kickers); i++ {
		if hv.Kickers[i] != other.Kickers[i] {
			return hv.Kickers[i] < other.Kickers[i]
		}
	}
	return false
}

// Equal reports an exact tie: same category and identical kicker sequence.
func (hv HandValue) Equal(other HandValue) bool {
	return hv.Category == other.Category && hv.Kickers == other.Kickers
}

// PaysJacksOrBetter reports whether the hand clears the single-player payout
// gate: any category above one pair always pays, and a one-pair hand pays
// only when the pair is Jacks or better. The gate affects payout eligibility
// only, never the displayed category label.
func (hv HandValue) PaysJacksOrBetter() bool {
	switch hv.Category {
	case OnePair:
		return hv.Kickers[0] >= Jack
	case HighCard:
		return false
	default:
		return true
	}
}

// Evaluate ranks a five-card hand.
func Evaluate(h Hand) HandValue {
	var rankCount [15]int
	suited := true
	for i, c := range h {
		rankCount[c.Rank]++
		if i > 0 && c.Suit != h[0].Suit {
			suited = false
		}
	}

	// Group ranks by multiplicity, highest count first, then highest rank.
	groups := make([]rankGroup, 0, HandSize)
	for r := Ace; r >= Two; r-- {
		if n := rankCount[r]; n > 0 {
			groups = append(groups, rankGroup{rank: r, count: n})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})

	straightTop := straightHigh(rankCount)

	fill := func(cat Category, ranks ...Rank) HandValue {
		hv := HandValue{Category: cat}
		copy(hv.Kickers[:], ranks)
		return hv
	}

	switch {
	case suited && straightTop != 0:
		return fill(StraightFlush, straightTop)
	case groups[0].count == 4:
		return fill(FourOfAKind, groups[0].rank, groups[1].rank)
	case groups[0].count == 3 && groups[1].count == 2:
		return fill(FullHouse, groups[0].rank, groups[1].rank)
	case suited:
		return fill(Flush, ranksDescending(groups)...)
	case straightTop != 0:
		return fill(Straight, straightTop)
	case groups[0].count == 3:
		return fill(ThreeOfAKind, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2 && groups[1].count == 2:
		return fill(TwoPair, groups[0].rank, groups[1].rank, groups[2].rank)
	case groups[0].count == 2:
		return fill(OnePair, groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank)
	default:
		return fill(HighCard, ranksDescending(groups)...)
	}
}

// straightHigh returns the top rank of a five-card straight, or 0 if the
// ranks do not form one. The wheel (A-2-3-4-5) counts as a five-high
// straight: the weakest straight, not the strongest.
func straightHigh(rankCount [15]int) Rank {
	var bits uint16
	for r := Two; r <= Ace; r++ {
		if rankCount[r] > 1 {
			return 0 // a paired rank can never be part of a 5-card straight
		}
		if rankCount[r] == 1 {
			bits |= 1 << uint(r)
		}
	}

	const wheel = 1<<14 | 1<<5 | 1<<4 | 1<<3 | 1<<2
	if bits == wheel {
		return Five
	}

	for top := Ace; top >= Six; top-- {
		run := uint16(0b11111) << uint(top-4)
		if bits == run {
			return top
		}
	}
	return 0
}

type rankGroup struct {
	rank  Rank
	count int
}

func ranksDescending(groups []rankGroup) []Rank {
	ranks := make([]Rank, 0, HandSize)
	for _, g := range groups {
		ranks = append(ranks, g.rank)
	}
	return ranks
}
