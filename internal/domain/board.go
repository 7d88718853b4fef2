package domain

// SquareType - effect of a board race square
type SquareType string

const (
	SquareNormal    SquareType = "normal"
	SquareBonus     SquareType = "bonus"
	SquareChallenge SquareType = "challenge"
	SquarePenalty   SquareType = "penalty"
	SquareStart     SquareType = "start"
	SquareFinish    SquareType = "finish"
)

// Square - one cell on the board race track
type Square struct {
	ID     int        `json:"id"`
	Type   SquareType `json:"type"`
	Color  string     `json:"color"`
	Points int        `json:"points,omitempty"`
}
