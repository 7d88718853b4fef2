package transport

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"edu_arcade/internal/clock"
	"edu_arcade/internal/domain"
	"edu_arcade/internal/scoring"
)

// DemoBot is a simulated opponent of the demo transport.
type DemoBot struct {
	ID       string
	Name     string
	Accuracy float64 // chance of a correct answer, 0..1
	MaxDelay int     // seconds before answering, at least 1
}

type DemoConfig struct {
	Questions       []domain.Question
	Bots            []DemoBot
	LocalPlayerID   string
	LocalName       string
	QuestionSeconds int
	ResultDelay     time.Duration
	// LeadIn delays the first question after Connect.
	LeadIn time.Duration
	// Second is the length of one simulated second.
	Second    time.Duration
	Scheduler clock.Scheduler
	Rand      *rand.Rand
	Logger    *slog.Logger
}

type tally struct {
	name   string
	score  int
	streak int
}

// Demo plays the host's trivia sequence locally: a gameQuestion every
// QuestionSeconds+ResultDelay, scripted bot answers each followed by a
// gameLeaderboard, and gameEnded after the last question.
type Demo struct {
	registry
	cfg DemoConfig
	log *slog.Logger

	mu        sync.Mutex
	connected bool
	tasks     []clock.Task
	current   int
	answered  map[string]bool
	tallies   map[string]*tally
	order     []string
}

func NewDemo(cfg DemoConfig) *Demo {
	if cfg.QuestionSeconds <= 0 {
		cfg.QuestionSeconds = 30
	}
	if cfg.Second <= 0 {
		cfg.Second = time.Second
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = clock.Real()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	d := &Demo{
		cfg:      cfg,
		log:      cfg.Logger.With("transport", "demo"),
		answered: make(map[string]bool),
		tallies:  make(map[string]*tally),
	}
	if cfg.LocalPlayerID != "" {
		d.track(cfg.LocalPlayerID, cfg.LocalName)
	}
	for _, b := range cfg.Bots {
		d.track(b.ID, b.Name)
	}
	return d
}

func (d *Demo) track(id, name string) {
	if _, ok := d.tallies[id]; ok {
		return
	}
	d.tallies[id] = &tally{name: name}
	d.order = append(d.order, id)
}

// Participants returns the simulated roster, local player first.
func (d *Demo) Participants() []domain.Player {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Player, 0, len(d.order))
	for i, id := range d.order {
		out = append(out, domain.Player{ID: id, Name: d.tallies[id].name, Color: domain.ColorFor(i), IsActive: true})
	}
	return out
}

func (d *Demo) Connect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		return nil
	}
	d.connected = true
	if len(d.cfg.Questions) > 0 {
		d.schedule(d.cfg.LeadIn, func() { d.emitQuestion(1) })
	}
	return nil
}

func (d *Demo) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// caller holds d.mu
func (d *Demo) schedule(after time.Duration, fn func()) {
	d.tasks = append(d.tasks, d.cfg.Scheduler.AfterFunc(after, fn))
}

func (d *Demo) seconds(n int) time.Duration {
	return time.Duration(n) * d.cfg.Second
}

func (d *Demo) emitQuestion(n int) {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return
	}
	d.current = n
	d.answered = make(map[string]bool)
	q := d.cfg.Questions[n-1]

	for _, b := range d.cfg.Bots {
		delay := 1
		if b.MaxDelay > 1 {
			delay += d.cfg.Rand.IntN(b.MaxDelay)
		}
		if delay >= d.cfg.QuestionSeconds {
			delay = d.cfg.QuestionSeconds - 1
		}
		correct := d.cfg.Rand.Float64() < b.Accuracy
		bot := b
		d.schedule(d.seconds(delay), func() { d.answer(n, bot.ID, correct, delay) })
	}

	next := d.seconds(d.cfg.QuestionSeconds) + d.cfg.ResultDelay
	if n < len(d.cfg.Questions) {
		d.schedule(next, func() { d.emitQuestion(n + 1) })
	} else {
		d.schedule(next, d.emitEnded)
	}
	d.mu.Unlock()

	d.dispatch(QuestionEvent{
		QuestionNumber: n,
		TotalQuestions: len(d.cfg.Questions),
		TimeLimit:      d.cfg.QuestionSeconds,
		Question:       q,
	})
}

// answer records one result for question n and publishes it.
func (d *Demo) answer(n int, playerID string, correct bool, elapsed int) {
	d.mu.Lock()
	if !d.connected || d.current != n || d.answered[playerID] {
		d.mu.Unlock()
		return
	}
	d.answered[playerID] = true
	t := d.tallies[playerID]
	points := scoring.Trivia(correct, elapsed, d.cfg.QuestionSeconds, t.streak)
	t.score += points
	t.streak = scoring.NextStreak(correct, t.streak)
	board := d.leaderboardLocked()
	qid := d.cfg.Questions[n-1].ID
	d.mu.Unlock()

	d.dispatch(AnswerEvent{UserID: playerID, QuestionID: qid, IsCorrect: correct, TimeElapsed: elapsed, Points: points})
	d.dispatch(board)
}

func (d *Demo) emitEnded() {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return
	}
	board := d.leaderboardLocked()
	d.mu.Unlock()

	scores := make([]domain.FinalScore, 0, len(board.Participants))
	for _, p := range board.Participants {
		scores = append(scores, domain.FinalScore{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}
	ended := EndedEvent{FinalScores: scores, Reason: domain.ReasonCompleted}
	if len(scores) > 0 {
		ended.WinnerID = scores[0].PlayerID
	}
	d.dispatch(ended)
}

// caller holds d.mu
func (d *Demo) leaderboardLocked() LeaderboardEvent {
	out := make([]Participant, 0, len(d.order))
	for _, id := range d.order {
		t := d.tallies[id]
		out = append(out, Participant{ID: id, Name: t.name, Score: t.score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return LeaderboardEvent{Participants: out}
}

// SubmitAnswer grades the local player's answer against the question being
// presented. The echo arrives asynchronously, as it would from a host.
func (d *Demo) SubmitAnswer(_ context.Context, questionID string, answerIndex, elapsedSeconds int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return ErrNotConnected
	}
	if d.current == 0 || d.cfg.LocalPlayerID == "" {
		return nil
	}
	n := d.current
	q := d.cfg.Questions[n-1]
	if q.ID != questionID {
		d.log.Debug("stale answer", "question_id", questionID, "current", q.ID)
		return nil
	}
	correct := answerIndex == q.CorrectAnswer
	local := d.cfg.LocalPlayerID
	d.schedule(0, func() { d.answer(n, local, correct, elapsedSeconds) })
	return nil
}

// Send accepts every action; only answers affect the simulation.
func (d *Demo) Send(ctx context.Context, a Action) error {
	if sa, ok := a.(SubmitAnswer); ok {
		return d.SubmitAnswer(ctx, sa.QuestionID, sa.AnswerIndex, sa.ElapsedSeconds)
	}
	if !d.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

func (d *Demo) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	for _, t := range d.tasks {
		t.Stop()
	}
	d.tasks = nil
	return nil
}

