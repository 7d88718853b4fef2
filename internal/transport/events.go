package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"edu_arcade/internal/domain"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnknownEvent  = errors.New("unknown event")
	ErrUnknownAction = errors.New("unknown action")
	ErrMalformed     = errors.New("malformed payload")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json field names, as the wire shows them
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// EventName - discriminator of inbound messages
type EventName string

const (
	EventQuestion    EventName = "gameQuestion"
	EventAnswer      EventName = "gameAnswer"
	EventLeaderboard EventName = "gameLeaderboard"
	EventEnded       EventName = "gameEnded"
	EventState       EventName = "gameState"
	EventReady       EventName = "ready"
	EventError       EventName = "error"
)

// Event is one inbound message. Concrete types are the *Event structs below.
type Event interface {
	Name() EventName
}

// Envelope is the wire frame for events and actions alike.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type QuestionEvent struct {
	QuestionNumber int             `json:"questionNumber" validate:"gte=1"`
	TotalQuestions int             `json:"totalQuestions,omitempty" validate:"gte=0"`
	TimeLimit      int             `json:"timeLimit,omitempty" validate:"gte=0"`
	Question       domain.Question `json:"question"`
}

type AnswerEvent struct {
	UserID      string `json:"userId" validate:"required"`
	QuestionID  string `json:"questionId,omitempty"`
	IsCorrect   bool   `json:"isCorrect"`
	TimeElapsed int    `json:"timeElapsed" validate:"gte=0"`
	Points      int    `json:"points,omitempty"`
}

type Participant struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name,omitempty"`
	Score int    `json:"score"`
}

type LeaderboardEvent struct {
	Participants []Participant `json:"participants" validate:"dive"`
}

type EndedEvent struct {
	FinalScores []domain.FinalScore `json:"final_scores" validate:"dive"`
	WinnerID    string              `json:"winnerId,omitempty"`
	Reason      string              `json:"reason,omitempty"`
}

type StateEvent struct {
	State domain.Snapshot `json:"state"`
}

type ReadyEvent struct{}

type ErrorEvent struct {
	Message string `json:"message"`
}

func (QuestionEvent) Name() EventName    { return EventQuestion }
func (AnswerEvent) Name() EventName      { return EventAnswer }
func (LeaderboardEvent) Name() EventName { return EventLeaderboard }
func (EndedEvent) Name() EventName       { return EventEnded }
func (StateEvent) Name() EventName       { return EventState }
func (ReadyEvent) Name() EventName       { return EventReady }
func (ErrorEvent) Name() EventName       { return EventError }

// Encode frames an event for the wire.
func Encode(ev Event) ([]byte, error) {
	return frame(string(ev.Name()), ev)
}

// Decode parses and validates one inbound frame. Payloads that do not match
// their schema are rejected, never passed on half-filled.
func Decode(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch EventName(env.Type) {
	case EventQuestion:
		ev, err := decodeInto[QuestionEvent](env.Payload)
		if err != nil {
			return nil, err
		}
		if !ev.Question.Hidden() && !ev.Question.HasOption(ev.Question.CorrectAnswer) {
			return nil, fmt.Errorf("%w: correctAnswer out of range", ErrMalformed)
		}
		return ev, nil
	case EventAnswer:
		return decodeInto[AnswerEvent](env.Payload)
	case EventLeaderboard:
		return decodeInto[LeaderboardEvent](env.Payload)
	case EventEnded:
		return decodeInto[EndedEvent](env.Payload)
	case EventState:
		return decodeInto[StateEvent](env.Payload)
	case EventReady:
		return ReadyEvent{}, nil
	case EventError:
		return decodeInto[ErrorEvent](env.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

func decodeInto[T any](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return v, nil
		}
		return v, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

func frame(name string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: name, Payload: body})
}
