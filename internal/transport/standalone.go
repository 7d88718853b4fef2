package transport

import (
	"context"
	"sync/atomic"
)

// Standalone is a transport with no remote end: it is always reachable,
// never delivers events and drops every action. Host-side sessions use it
// since they are the authority themselves.
type Standalone struct {
	registry
	connected atomic.Bool
}

func NewStandalone() *Standalone {
	return &Standalone{}
}

func (s *Standalone) Connect(context.Context) error {
	s.connected.Store(true)
	return nil
}

func (s *Standalone) IsConnected() bool { return s.connected.Load() }

func (s *Standalone) SubmitAnswer(ctx context.Context, questionID string, answerIndex, elapsedSeconds int) error {
	return s.Send(ctx, SubmitAnswer{QuestionID: questionID, AnswerIndex: answerIndex, ElapsedSeconds: elapsedSeconds})
}

func (s *Standalone) Send(context.Context, Action) error {
	if !s.connected.Load() {
		return ErrNotConnected
	}
	return nil
}

func (s *Standalone) Close() error {
	s.connected.Store(false)
	return nil
}
