package domain

// AnswerHidden marks a question whose correct option is withheld from clients.
const AnswerHidden = -1

// Question - trivia / board race prompt with a single correct option
type Question struct {
	ID            string   `json:"id" validate:"required"`
	Prompt        string   `json:"prompt" validate:"required"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=-1"`
	Points        int      `json:"points,omitempty" validate:"gte=0"`
	AudioURL      string   `json:"audio,omitempty"`
}

// HasOption reports whether idx addresses one of the options.
func (q Question) HasOption(idx int) bool {
	return idx >= 0 && idx < len(q.Options)
}

// Hidden reports whether the correct option was withheld.
func (q Question) Hidden() bool {
	return q.CorrectAnswer == AnswerHidden
}

// Redacted returns a copy with the correct option withheld.
func (q Question) Redacted() Question {
	q.Options = append([]string(nil), q.Options...)
	q.CorrectAnswer = AnswerHidden
	return q
}

// Stance - debate side
type Stance string

const (
	StanceFavor  Stance = "favor"
	StanceContra Stance = "contra"
)

// Opposite returns the other side of the debate.
func (s Stance) Opposite() Stance {
	if s == StanceFavor {
		return StanceContra
	}
	return StanceFavor
}

// Card - debate argument card
type Card struct {
	ID       string `json:"id" validate:"required"`
	Argument string `json:"argument" validate:"required"`
	Evidence string `json:"evidence,omitempty"`
	Position Stance `json:"position" validate:"oneof=favor contra"`
	Strength int    `json:"strength" validate:"gte=0"`
	Points   int    `json:"points" validate:"gte=0"`
}
