package transport

import (
	"encoding/json"
	"fmt"
)

// ActionName - discriminator of outbound player actions
type ActionName string

const (
	ActionSubmitAnswer ActionName = "submitAnswer"
	ActionRoll         ActionName = "roll"
	ActionPlayCard     ActionName = "playCard"
	ActionStart        ActionName = "start"
)

// Action is one outbound message from a player seat.
type Action interface {
	Action() ActionName
}

type SubmitAnswer struct {
	QuestionID     string `json:"questionId" validate:"required"`
	AnswerIndex    int    `json:"answerIndex" validate:"gte=0"`
	ElapsedSeconds int    `json:"elapsedSeconds" validate:"gte=0"`
}

type Roll struct{}

type PlayCard struct {
	CardID string `json:"cardId" validate:"required"`
}

type Start struct{}

func (SubmitAnswer) Action() ActionName { return ActionSubmitAnswer }
func (Roll) Action() ActionName         { return ActionRoll }
func (PlayCard) Action() ActionName     { return ActionPlayCard }
func (Start) Action() ActionName        { return ActionStart }

// EncodeAction frames an action for the wire.
func EncodeAction(a Action) ([]byte, error) {
	return frame(string(a.Action()), a)
}

// DecodeAction parses and validates a frame sent by a player.
func DecodeAction(raw []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch ActionName(env.Type) {
	case ActionSubmitAnswer:
		return decodeInto[SubmitAnswer](env.Payload)
	case ActionRoll:
		return Roll{}, nil
	case ActionPlayCard:
		return decodeInto[PlayCard](env.Payload)
	case ActionStart:
		return Start{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
	}
}
