package table

// Stage represents one phase of a game's lifecycle
type Stage int

const (
	Waiting Stage = iota
	FirstBetting
	Draw
	SecondBetting
	Showdown
)

func (s Stage) String() string {
	return [...]string{"waiting", "first-betting", "draw", "second-betting", "showdown"}[s]
}

// isBetting reports whether the stage accepts check/call/raise/fold actions.
func (s Stage) isBetting() bool {
	return s == FirstBetting || s == SecondBetting
}

// Mode selects between the single-player draw variant and a multiplayer game
type Mode int

const (
	// Solo is the single-player variant: no lobby, no betting rounds, one
	// draw action settled against a fixed paytable.
	Solo Mode = iota
	// Multi is the full multiplayer game with two betting rounds and a showdown.
	Multi
)

func (m Mode) String() string {
	return [...]string{"solo", "multi"}[m]
}
