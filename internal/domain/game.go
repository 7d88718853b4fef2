package domain

// Kind - which mini-game a session runs
type Kind string

const (
	KindTrivia    Kind = "trivia"
	KindBoardRace Kind = "board_race"
	KindDebate    Kind = "debate"
)

// Valid reports whether k names a known game.
func (k Kind) Valid() bool {
	switch k {
	case KindTrivia, KindBoardRace, KindDebate:
		return true
	}
	return false
}

// Phase - the single active state of a session
type Phase string

const (
	PhasePreparing Phase = "preparing"
	PhaseWaiting   Phase = "waiting"
	PhaseRolling   Phase = "rolling"
	PhaseQuestion  Phase = "question"
	PhaseMoving    Phase = "moving"
	PhaseResults   Phase = "results"
	PhaseFinished  Phase = "finished"
)

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseFinished
}

// Reasons a session ends
const (
	ReasonCompleted     = "completed"
	ReasonReachedFinish = "reached_finish"
	ReasonTimeUp        = "time_up"
	ReasonServerEnded   = "ended_by_server"
	ReasonPoolExhausted = "pool_exhausted"
)

// FinalScore - one row of the end-of-game table
type FinalScore struct {
	PlayerID string `json:"id" validate:"required"`
	Name     string `json:"name"`
	Team     string `json:"team,omitempty"`
	Score    int    `json:"score"`
	Position int    `json:"position,omitempty"`
}

// Summary - payload handed to the hosting page when a session completes
type Summary struct {
	SessionID   string         `json:"session_id"`
	Kind        Kind           `json:"kind"`
	WinnerID    string         `json:"winner_id,omitempty"`
	WinnerName  string         `json:"winner_name,omitempty"`
	WinningTeam string         `json:"winning_team,omitempty"`
	FinalScores []FinalScore   `json:"final_scores"`
	TeamScores  map[string]int `json:"team_scores,omitempty"`
	TimeSpent   int            `json:"time_spent"`
	TotalRounds int            `json:"total_rounds"`
	Reason      string         `json:"reason"`
}

// ScoreOf returns the final score for playerID, or false if absent.
func (s Summary) ScoreOf(playerID string) (int, bool) {
	for _, fs := range s.FinalScores {
		if fs.PlayerID == playerID {
			return fs.Score, true
		}
	}
	return 0, false
}
