package game

import (
	"edu_arcade/internal/domain"
	"edu_arcade/internal/scoring"
	"edu_arcade/internal/transport"
)

// boardRace: players take turns rolling, answering a drawn question and
// moving along the track.
// waiting --roll--> rolling --> question --answer/timeout--> moving --> waiting
type boardRace struct {
	s        *Session
	pool     []domain.Question
	board    []domain.Square
	size     int
	roll     int
	question *domain.Question
}

func newBoardRace(opts Options) *boardRace {
	board := append([]domain.Square(nil), opts.Board...)
	if len(board) < minBoard+1 {
		board = GenerateBoard(opts.Limits.BoardSize, opts.Rand)
	}
	return &boardRace{
		pool:  append([]domain.Question(nil), opts.Questions...),
		board: board,
		size:  len(board) - 1,
	}
}

func (b *boardRace) bind(s *Session) { b.s = s }

func (b *boardRace) seat(players []*domain.Player) {
	for _, p := range players {
		if p.Position < 0 {
			p.Position = 0
		}
		if p.Position > b.size {
			p.Position = b.size
		}
	}
}

func (b *boardRace) begin() {
	b.s.current = 0
	if !b.s.players[0].IsActive {
		b.s.advanceTurn()
	}
	b.waitTurn()
}

func (b *boardRace) waitTurn() {
	s := b.s
	s.setPhase(domain.PhaseWaiting)
	b.roll = 0
	b.question = nil
	s.startTurn(s.limits.TurnSeconds)
	s.noteChange()
}

func (b *boardRace) rollFor(playerID string) (int, error) {
	s := b.s
	if _, err := s.requireTurn(playerID, domain.PhaseWaiting); err != nil {
		return 0, err
	}
	b.roll = clampRoll(s.dice())
	s.setPhase(domain.PhaseRolling)
	s.noteChange()
	s.after(s.limits.RollDelay, b.draw)
	s.submit(playerID, transport.Roll{})
	return b.roll, nil
}

// draw picks a question with replacement.
func (b *boardRace) draw() {
	s := b.s
	q := b.pool[s.rnd.IntN(len(b.pool))]
	b.question = &q
	s.setPhase(domain.PhaseQuestion)
	s.startTurn(s.limits.TurnSeconds)
	s.noteQuestion(QuestionNotice{
		Number:    s.round,
		Player:    s.players[s.current].ID,
		Question:  q,
		TimeLimit: s.limits.TurnSeconds,
	})
	s.noteChange()
}

func (b *boardRace) answer(playerID string, idx int) (AnswerResult, error) {
	s := b.s
	p, err := s.requireTurn(playerID, domain.PhaseQuestion)
	if err != nil {
		return AnswerResult{}, err
	}
	q := *b.question
	if !q.HasOption(idx) {
		return AnswerResult{}, ErrInvalidAnswer
	}
	elapsed := s.turn.Elapsed()
	correct := idx == q.CorrectAnswer
	res := b.resolve(p, scoring.BoardRace(correct, b.roll), correct, elapsed, false)
	s.submit(p.ID, transport.SubmitAnswer{QuestionID: q.ID, AnswerIndex: idx, ElapsedSeconds: elapsed})
	return res, nil
}

// resolve moves the current player and applies the landing square.
func (b *boardRace) resolve(p *domain.Player, mv scoring.Move, correct bool, elapsed int, timedOut bool) AnswerResult {
	s := b.s
	p.Position = scoring.Advance(p.Position, mv.Steps, b.size)
	points := mv.Points + scoring.SquareDelta(b.board[p.Position])
	p.Score = scoring.Apply(p.Score, points)
	p.Streak = scoring.NextStreak(correct, p.Streak)

	res := AnswerResult{
		PlayerID: p.ID,
		Correct:  correct,
		Points:   points,
		Elapsed:  elapsed,
		Streak:   p.Streak,
		Steps:    mv.Steps,
		Position: p.Position,
		TimedOut: timedOut,
	}
	if b.question != nil {
		res.QuestionID = b.question.ID
	}

	s.setPhase(domain.PhaseMoving)
	s.noteAnswer(res)
	s.noteChange()
	s.after(s.limits.MoveDelay, b.afterMove)
	return res
}

func (b *boardRace) afterMove() {
	s := b.s
	if s.players[s.current].Position >= b.size {
		s.finish(domain.ReasonReachedFinish, s.current)
		return
	}
	s.advanceTurn()
	b.waitTurn()
}

// timeout forces the single-square move, whatever the turn had reached.
func (b *boardRace) timeout() {
	s := b.s
	b.resolve(s.players[s.current], scoring.BoardRace(false, 0), false, s.turn.Limit(), true)
}

func (b *boardRace) fill(snap *domain.Snapshot) {
	snap.Board = append([]domain.Square(nil), b.board...)
	snap.LastRoll = b.roll
	if b.question != nil && b.s.phase == domain.PhaseQuestion {
		q := *b.question
		snap.Question = &q
	}
}

func (b *boardRace) totalRounds() int { return b.s.round }

func (b *boardRace) presented() *domain.Question {
	if b.s.phase != domain.PhaseQuestion {
		return nil
	}
	return b.question
}
