package domain

// Player - one participant of a session
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Team        string `json:"team,omitempty"`
	Color       string `json:"color,omitempty"`
	Position    int    `json:"position"`
	CardsPlayed int    `json:"cards_played"`
	Score       int    `json:"score"`
	Streak      int    `json:"streak"`
	IsActive    bool   `json:"is_active"`
}

// Palette is assigned round-robin to players that join without a color.
var Palette = []string{
	"#e74c3c", // red
	"#3498db", // blue
	"#2ecc71", // green
	"#f39c12", // orange
	"#9b59b6", // purple
	"#1abc9c", // teal
}

// ColorFor picks the palette entry for the i-th seat.
func ColorFor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// ClonePlayers copies a roster so callers never share the controller's structs.
func ClonePlayers(players []*Player) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if p == nil {
			continue
		}
		out = append(out, *p)
	}
	return out
}
