package game

import (
	"fmt"

	"edu_arcade/internal/domain"
	"edu_arcade/internal/transport"
)

// SubmitAnswer answers the question being presented. In trivia any active
// player may answer once; in board race only the current player.
func (s *Session) SubmitAnswer(playerID string, answerIndex int) (AnswerResult, error) {
	return s.submitAnswer(playerID, "", answerIndex)
}

// submitAnswer checks questionID against the presented question unless it is
// empty.
func (s *Session) submitAnswer(playerID, questionID string, answerIndex int) (AnswerResult, error) {
	s.mu.Lock()
	a, ok := s.rules.(answerer)
	if !ok {
		s.mu.Unlock()
		return AnswerResult{}, ErrUnsupported
	}
	if err := s.checkPlayable(); err != nil {
		s.mu.Unlock()
		return AnswerResult{}, err
	}
	if questionID != "" {
		if cur := a.presented(); cur == nil || cur.ID != questionID {
			s.mu.Unlock()
			return AnswerResult{}, fmt.Errorf("%w: stale answer for %s", ErrWrongPhase, questionID)
		}
	}
	res, err := a.answer(playerID, answerIndex)
	s.unlock()
	return res, err
}

// Roll throws the die for the current board race player.
func (s *Session) Roll(playerID string) (int, error) {
	s.mu.Lock()
	b, ok := s.rules.(*boardRace)
	if !ok {
		s.mu.Unlock()
		return 0, ErrUnsupported
	}
	roll, err := b.rollFor(playerID)
	s.unlock()
	return roll, err
}

// PlayCard plays one of the current debate player's available cards.
func (s *Session) PlayCard(playerID, cardID string) (Play, error) {
	s.mu.Lock()
	d, ok := s.rules.(*debate)
	if !ok {
		s.mu.Unlock()
		return Play{}, ErrUnsupported
	}
	play, err := d.playCard(playerID, cardID)
	s.unlock()
	return play, err
}

// Offer lists the cards playerID could play now.
func (s *Session) Offer(playerID string) ([]domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.rules.(*debate)
	if !ok {
		return nil, ErrUnsupported
	}
	p, _, err := s.player(playerID)
	if err != nil {
		return nil, err
	}
	return d.offer(p), nil
}

// Apply maps a wire action from playerID onto the session. Answers to a
// question other than the one presented are rejected as stale.
func (s *Session) Apply(playerID string, a transport.Action) error {
	switch act := a.(type) {
	case transport.SubmitAnswer:
		_, err := s.submitAnswer(playerID, act.QuestionID, act.AnswerIndex)
		return err
	case transport.Roll:
		_, err := s.Roll(playerID)
		return err
	case transport.PlayCard:
		_, err := s.PlayCard(playerID, act.CardID)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, a.Action())
	}
}
