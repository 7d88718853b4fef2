package game

import "edu_arcade/internal/domain"

// Hooks is the presentation surface of a Session. Every field is optional.
// Hooks run after the session lock is released, in transition order, and
// must not call mutating Session methods synchronously.
type Hooks struct {
	OnChange   func(domain.Snapshot)
	OnQuestion func(QuestionNotice)
	OnAnswer   func(AnswerResult)
	OnPlay     func(Play)
	OnTick     func(TickNotice)
	OnComplete func(domain.Summary)
	OnExit     func()
}

// QuestionNotice announces a newly presented question.
type QuestionNotice struct {
	Number    int
	Total     int
	Player    string // board race: who must answer
	Question  domain.Question
	TimeLimit int
}

// AnswerResult is the resolved outcome of one answer, local or remote.
type AnswerResult struct {
	PlayerID   string `json:"player_id"`
	QuestionID string `json:"question_id"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
	Elapsed    int    `json:"elapsed"`
	Streak     int    `json:"streak"`
	Steps      int    `json:"steps,omitempty"`
	Position   int    `json:"position,omitempty"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	Pending    bool   `json:"pending,omitempty"` // waiting for the host to judge it
	Remote     bool   `json:"-"`
}

// Play is a resolved debate card.
type Play struct {
	PlayerID string      `json:"player_id"`
	Card     domain.Card `json:"card"`
	Points   int         `json:"points"`
	TimedOut bool        `json:"timed_out,omitempty"`
}

// TickNotice is emitted on every turn countdown tick.
type TickNotice struct {
	Remaining   int
	Limit       int
	SessionLeft int
	Elapsed     int
}

// Announcer reads questions aloud (or prints them). One instance is owned by
// a session and closed with it.
type Announcer interface {
	Announce(q domain.Question)
	Close() error
}

type nopAnnouncer struct{}

func (nopAnnouncer) Announce(domain.Question) {}
func (nopAnnouncer) Close() error             { return nil }

// NopAnnouncer returns an Announcer that does nothing.
func NopAnnouncer() Announcer { return nopAnnouncer{} }
