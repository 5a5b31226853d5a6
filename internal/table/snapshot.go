package table

// PlayerStatus is the per-player slice of a status snapshot. Hands are not
// included; they are private and exposed only via Registry.PlayerHand.
type PlayerStatus struct {
	ID         string `json:"id"`
	Bet        int64  `json:"bet"`
	TotalBet   int64  `json:"total_bet"`
	Folded     bool   `json:"folded"`
	Acted      bool   `json:"acted"`
	Discarded  bool   `json:"discarded"`
	LastAction string `json:"last_action"`
}

// Snapshot is a point-in-time view of a table for the calling layer to render.
type Snapshot struct {
	Channel    string         `json:"channel"`
	Mode       string         `json:"mode"`
	Stage      string         `json:"stage"`
	Pot        int64          `json:"pot"`
	CurrentBet int64          `json:"current_bet"`
	TurnPlayer string         `json:"turn_player"`
	Players    []PlayerStatus `json:"players"`
}

// snapshot captures the table's public state.
func (t *Table) snapshot() Snapshot {
	s := Snapshot{
		Channel:    t.Channel,
		Mode:       t.Mode.String(),
		Stage:      t.Stage.String(),
		Pot:        t.Pot,
		CurrentBet: t.CurrentBet,
	}
	if t.Stage.isBetting() {
		s.TurnPlayer = t.Players[t.Turn].ID
	}
	for _, p := range t.Players {
		s.Players = append(s.Players, PlayerStatus{
			ID:         p.ID,
			Bet:        p.Bet,
			TotalBet:   p.TotalBet,
			Folded:     p.Folded,
			Acted:      p.Acted,
			Discarded:  p.Discarded,
			LastAction: p.LastAction,
		})
	}
	return s
}
