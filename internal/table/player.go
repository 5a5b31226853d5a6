package table

import "github.com/starstream/starstream/poker"

// Player is the per-participant state within one game
type Player struct {
	ID         string
	Hand       poker.Hand
	Bet        int64 // committed in the current betting round
	TotalBet   int64 // amount escrowed at table entry
	Folded     bool
	Acted      bool // has acted in the current betting round
	Discarded  bool // has taken their draw action
	LastAction string
}
