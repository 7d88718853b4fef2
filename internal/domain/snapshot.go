package domain

// Snapshot - read-only copy of a session's state for presentation clients
type Snapshot struct {
	SessionID      string    `json:"session_id"`
	Kind           Kind      `json:"kind" validate:"required"`
	Phase          Phase     `json:"phase" validate:"required"`
	Preparing      bool      `json:"preparing"`
	Players        []Player  `json:"players"`
	CurrentPlayer  int       `json:"current_player"`
	Round          int       `json:"round"`
	TotalRounds    int       `json:"total_rounds,omitempty"`
	TimeRemaining  int       `json:"time_remaining"`
	TimeLimit      int       `json:"time_limit"`
	SessionLeft    int       `json:"session_left,omitempty"`
	Elapsed        int       `json:"elapsed"`
	QuestionNumber int       `json:"question_number,omitempty"`
	TotalQuestions int       `json:"total_questions,omitempty"`
	Question       *Question `json:"question,omitempty"`
	LastRoll       int       `json:"last_roll,omitempty"`
	Board          []Square  `json:"board,omitempty"`
	AvailableCards int       `json:"available_cards,omitempty"`
	Offer          []Card    `json:"offer,omitempty"`
	LastCard       *Card     `json:"last_card,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}

// Current returns the player whose turn it is, if any.
func (s Snapshot) Current() (Player, bool) {
	if s.Phase.Terminal() || s.CurrentPlayer < 0 || s.CurrentPlayer >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[s.CurrentPlayer], true
}
