package game

import (
	"edu_arcade/internal/domain"
	"edu_arcade/internal/scoring"
	"edu_arcade/internal/transport"
)

// answerer is implemented by games that take answers to questions.
type answerer interface {
	answer(playerID string, idx int) (AnswerResult, error)
	presented() *domain.Question
}

// trivia: every active player answers one shared question per round.
// waiting -> question -> results -> question ... -> finished
type trivia struct {
	s        *Session
	pool     []domain.Question
	total    int
	number   int
	question *domain.Question
	answered map[string]bool
	// local answers to a hidden question, scored when the host echoes them
	pending map[string]bool
}

func newTrivia(opts Options) *trivia {
	pool := append([]domain.Question(nil), opts.Questions...)
	total := opts.Limits.TotalQuestions
	if len(pool) > 0 && total > len(pool) {
		total = len(pool)
	}
	return &trivia{pool: pool, total: total, answered: make(map[string]bool), pending: make(map[string]bool)}
}

func (t *trivia) bind(s *Session) { t.s = s }

// serverDriven reports whether questions only arrive through the transport.
func (t *trivia) serverDriven() bool { return len(t.pool) == 0 }

func (t *trivia) begin() {
	if t.serverDriven() {
		t.s.setPhase(domain.PhaseWaiting)
		t.s.noteChange()
		return
	}
	t.present(1, t.pool[0], t.s.limits.TurnSeconds)
}

func (t *trivia) present(n int, q domain.Question, limit int) {
	s := t.s
	s.setPhase(domain.PhaseQuestion)
	t.number = n
	t.question = &q
	t.answered = make(map[string]bool)
	t.pending = make(map[string]bool)
	if n > t.total {
		t.total = n
	}
	s.round = n
	s.startTurn(limit)
	s.noteQuestion(QuestionNotice{Number: n, Total: t.total, Question: q, TimeLimit: limit})
	s.noteChange()
}

func (t *trivia) answer(playerID string, idx int) (AnswerResult, error) {
	s := t.s
	if s.phase != domain.PhaseQuestion {
		return AnswerResult{}, ErrWrongPhase
	}
	p, _, err := s.player(playerID)
	if err != nil {
		return AnswerResult{}, err
	}
	if t.answered[p.ID] {
		return AnswerResult{}, ErrAlreadyAnswered
	}
	q := *t.question
	if !q.HasOption(idx) {
		return AnswerResult{}, ErrInvalidAnswer
	}

	elapsed := s.turn.Elapsed()
	var res AnswerResult
	if q.Hidden() {
		t.answered[p.ID] = true
		t.pending[p.ID] = true
		res = AnswerResult{PlayerID: p.ID, QuestionID: q.ID, Elapsed: elapsed, Pending: true}
		s.noteChange()
	} else {
		res = t.apply(p, idx == q.CorrectAnswer, elapsed, 0, false)
	}
	s.submit(p.ID, transport.SubmitAnswer{QuestionID: q.ID, AnswerIndex: idx, ElapsedSeconds: elapsed})
	t.closeIfDone()
	return res, nil
}

// apply scores one answer. A remote result may carry the host's points.
func (t *trivia) apply(p *domain.Player, correct bool, elapsed, points int, remote bool) AnswerResult {
	s := t.s
	if points <= 0 {
		points = scoring.Trivia(correct, elapsed, s.turn.Limit(), p.Streak)
	}
	if !correct {
		points = 0
	}
	p.Score = scoring.Apply(p.Score, points)
	p.Streak = scoring.NextStreak(correct, p.Streak)
	t.answered[p.ID] = true

	res := AnswerResult{
		PlayerID:   p.ID,
		QuestionID: t.question.ID,
		Correct:    correct,
		Points:     points,
		Elapsed:    elapsed,
		Streak:     p.Streak,
		Remote:     remote,
	}
	s.noteAnswer(res)
	s.noteChange()
	return res
}

func (t *trivia) allAnswered() bool {
	for _, p := range t.s.players {
		if p.IsActive && !t.answered[p.ID] {
			return false
		}
	}
	return true
}

func (t *trivia) closeIfDone() {
	if t.s.phase == domain.PhaseQuestion && t.allAnswered() {
		t.closeQuestion()
	}
}

func (t *trivia) closeQuestion() {
	s := t.s
	for _, p := range s.players {
		if !t.answered[p.ID] {
			p.Streak = 0
		}
	}
	s.setPhase(domain.PhaseResults)
	s.noteChange()
	s.after(s.limits.ResultDelay, t.next)
}

func (t *trivia) next() {
	s := t.s
	n := t.number + 1
	switch {
	case n > t.total && t.serverDriven():
		// leave the host a grace period to send its final scores
		s.setPhase(domain.PhaseWaiting)
		s.noteChange()
		s.after(s.limits.ResultDelay, func() { s.finish(domain.ReasonCompleted, -1) })
	case n > t.total:
		s.finish(domain.ReasonCompleted, -1)
	case n <= len(t.pool):
		t.present(n, t.pool[n-1], s.limits.TurnSeconds)
	default:
		s.setPhase(domain.PhaseWaiting)
		s.noteChange()
	}
}

func (t *trivia) timeout() {
	t.closeQuestion()
}

func (t *trivia) rosterChanged() {
	t.closeIfDone()
}

// onQuestion lets the host supersede local state. A number already
// presented is a replay and ignored, as are older ones.
func (t *trivia) onQuestion(ev transport.QuestionEvent) {
	s := t.s
	n := ev.QuestionNumber
	if n <= t.number {
		s.log.Debug("ignoring stale question", "number", n, "current", t.number)
		return
	}
	if ev.TotalQuestions > 0 {
		t.total = ev.TotalQuestions
	}
	limit := s.limits.TurnSeconds
	if ev.TimeLimit > 0 {
		limit = ev.TimeLimit
	}
	t.present(n, ev.Question, limit)
}

// onAnswer applies another participant's result. The local player's echo
// was already applied when it was submitted, unless the question hid its
// answer; then the echo is what scores it.
func (t *trivia) onAnswer(ev transport.AnswerEvent) {
	s := t.s
	if t.question == nil {
		return
	}
	pending := t.pending[ev.UserID]
	if !pending && (ev.UserID == s.local || s.phase != domain.PhaseQuestion) {
		return
	}
	if ev.QuestionID != "" && ev.QuestionID != t.question.ID {
		return
	}
	p, _, err := s.player(ev.UserID)
	if err != nil {
		s.log.Debug("answer from unknown participant", "user_id", ev.UserID)
		return
	}
	if t.answered[p.ID] && !pending {
		return
	}
	delete(t.pending, p.ID)
	t.apply(p, ev.IsCorrect, ev.TimeElapsed, ev.Points, !pending)
	t.closeIfDone()
}

func (t *trivia) fill(snap *domain.Snapshot) {
	snap.CurrentPlayer = 0
	snap.QuestionNumber = t.number
	snap.TotalQuestions = t.total
	snap.TotalRounds = t.total
	if t.question != nil && (t.s.phase == domain.PhaseQuestion || t.s.phase == domain.PhaseResults) {
		q := *t.question
		snap.Question = &q
	}
}

func (t *trivia) totalRounds() int { return t.number }

func (t *trivia) presented() *domain.Question {
	if t.s.phase != domain.PhaseQuestion {
		return nil
	}
	return t.question
}
