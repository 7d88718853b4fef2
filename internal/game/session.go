package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"edu_arcade/internal/clock"
	"edu_arcade/internal/domain"
	"edu_arcade/internal/logger"
	"edu_arcade/internal/scoring"
	"edu_arcade/internal/transport"

	"github.com/google/uuid"
)

const submitTimeout = 5 * time.Second

// rules is the game-specific half of a session. All methods run with s.mu held.
type rules interface {
	bind(s *Session)
	begin()
	timeout()
	fill(snap *domain.Snapshot)
	totalRounds() int
}

// remoteRules is implemented by games that follow server-driven questions.
type remoteRules interface {
	onQuestion(ev transport.QuestionEvent)
	onAnswer(ev transport.AnswerEvent)
}

type subscription struct {
	name transport.EventName
	id   transport.HandlerID
}

// Session is the controller of one mini-game: it owns the roster, the phase,
// the turn pointer and every timer. The roster is only ever handed out as
// copies.
type Session struct {
	id     string
	kind   domain.Kind
	limits Limits
	tr     transport.Transport
	sched  clock.Scheduler
	rnd    *rand.Rand
	dice   func() int
	ann    Announcer
	hooks  Hooks
	log    *slog.Logger
	local  string
	rules  rules

	mu      sync.Mutex
	hookMu  sync.Mutex
	players []*domain.Player
	index   map[string]int
	phase   domain.Phase
	current int
	round   int
	epoch   uint64
	started bool
	closed  bool
	reason  string
	summary *domain.Summary

	turn        *Countdown
	timed       bool
	session     *Countdown
	elapsed     int
	turnTask    clock.Task
	phaseTask   clock.Task
	sessionTask clock.Task
	subs        []subscription

	notes   []func()
	pending []func()
	outbox  []transport.Action
}

func newSession(kind domain.Kind, opts Options, r rules) *Session {
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	if opts.Transport == nil {
		opts.Transport = transport.NewStandalone()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clock.Real()
	}
	if opts.Announcer == nil {
		opts.Announcer = NopAnnouncer()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Session{
		id:      opts.ID,
		kind:    kind,
		limits:  opts.Limits,
		tr:      opts.Transport,
		sched:   opts.Scheduler,
		rnd:     opts.Rand,
		dice:    opts.Dice,
		ann:     opts.Announcer,
		hooks:   opts.Hooks,
		log:     logger.ForSession(opts.Logger, opts.ID, string(kind)),
		local:   opts.LocalPlayerID,
		rules:   r,
		phase:   domain.PhasePreparing,
		index:   make(map[string]int),
		turn:    NewCountdown(opts.Limits.TurnSeconds),
		session: NewCountdown(opts.Limits.SessionSeconds),
	}
	if s.dice == nil {
		s.dice = RollDie
	}
	r.bind(s)
	s.setRosterLocked(opts.Players)
	return s
}

func (s *Session) ID() string        { return s.id }
func (s *Session) Kind() domain.Kind { return s.kind }
func (s *Session) Limits() Limits    { return s.limits }

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SetRoster replaces the roster. Only allowed before Start.
func (s *Session) SetRoster(players []domain.Player) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("set roster: %w", ErrWrongPhase)
	}
	s.setRosterLocked(players)
	s.noteChange()
	s.unlock()
	return nil
}

func (s *Session) setRosterLocked(players []domain.Player) {
	s.players = make([]*domain.Player, 0, len(players))
	s.index = make(map[string]int, len(players))
	for _, p := range players {
		if p.ID == "" {
			continue
		}
		if _, dup := s.index[p.ID]; dup {
			continue
		}
		cp := p
		seat := len(s.players)
		if cp.Name == "" {
			cp.Name = cp.ID
		}
		if cp.Color == "" {
			cp.Color = domain.ColorFor(seat)
		}
		cp.IsActive = true
		s.index[cp.ID] = seat
		s.players = append(s.players, &cp)
	}
	if st, ok := s.rules.(interface{ seat([]*domain.Player) }); ok {
		st.seat(s.players)
	}
}

// Start enters the first phase of the game. An empty roster leaves the
// session in the preparing phase.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.started:
		s.mu.Unlock()
		return fmt.Errorf("start: %w", ErrWrongPhase)
	case len(s.players) == 0:
		s.mu.Unlock()
		return ErrRosterEmpty
	}
	s.started = true
	s.mu.Unlock()

	s.attach()
	if !s.tr.IsConnected() {
		if err := s.tr.Connect(ctx); err != nil {
			s.log.Warn("transport connect failed, playing locally", "err", err)
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.round = 1
	step := s.limits.TickInterval
	s.sessionTask = s.sched.Every(step, s.onSessionTick)
	if s.phase == domain.PhasePreparing {
		s.rules.begin()
	}
	s.log.Info("session started", "players", len(s.players))
	s.unlock()
	return nil
}

func (s *Session) attach() {
	names := []transport.EventName{transport.EventLeaderboard, transport.EventEnded}
	if _, ok := s.rules.(remoteRules); ok {
		names = append(names, transport.EventQuestion, transport.EventAnswer)
	}
	subs := make([]subscription, 0, len(names))
	for _, name := range names {
		subs = append(subs, subscription{name: name, id: s.tr.On(name, s.onEvent)})
	}
	s.mu.Lock()
	s.subs = subs
	s.mu.Unlock()
}

func (s *Session) onEvent(ev transport.Event) {
	s.mu.Lock()
	if s.closed || !s.started || s.phase == domain.PhaseFinished {
		s.mu.Unlock()
		return
	}
	switch e := ev.(type) {
	case transport.LeaderboardEvent:
		s.applyLeaderboard(e)
	case transport.EndedEvent:
		s.applyEnded(e)
	case transport.QuestionEvent:
		if rr, ok := s.rules.(remoteRules); ok {
			rr.onQuestion(e)
		}
	case transport.AnswerEvent:
		if rr, ok := s.rules.(remoteRules); ok {
			rr.onAnswer(e)
		}
	}
	s.unlock()
}

// applyLeaderboard treats the remote scores as authoritative.
func (s *Session) applyLeaderboard(ev transport.LeaderboardEvent) {
	changed := false
	for _, part := range ev.Participants {
		idx, ok := s.index[part.ID]
		if !ok {
			continue
		}
		if s.players[idx].Score != part.Score {
			s.players[idx].Score = part.Score
			changed = true
		}
	}
	if changed {
		s.noteChange()
	}
}

func (s *Session) applyEnded(ev transport.EndedEvent) {
	for _, fs := range ev.FinalScores {
		if idx, ok := s.index[fs.PlayerID]; ok {
			s.players[idx].Score = fs.Score
		}
	}
	reason := ev.Reason
	if reason == "" {
		reason = domain.ReasonServerEnded
	}
	winner := -1
	if idx, ok := s.index[ev.WinnerID]; ok {
		winner = idx
	}
	s.finish(reason, winner)
}

// SetActive marks a player as present or gone. Inactive players are skipped
// when turns advance and are not waited for on shared questions.
func (s *Session) SetActive(playerID string, active bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	p, _, err := s.player(playerID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if p.IsActive == active {
		s.mu.Unlock()
		return nil
	}
	p.IsActive = active
	if w, ok := s.rules.(interface{ rosterChanged() }); ok && s.started && !s.phase.Terminal() {
		w.rosterChanged()
	}
	s.noteChange()
	s.unlock()
	return nil
}

// Snapshot returns a copy of the full state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID:     s.id,
		Kind:          s.kind,
		Phase:         s.phase,
		Preparing:     s.phase == domain.PhasePreparing,
		Players:       domain.ClonePlayers(s.players),
		CurrentPlayer: s.current,
		Round:         s.round,
		Elapsed:       s.elapsed,
		Reason:        s.reason,
	}
	if s.timed {
		snap.TimeRemaining = s.turn.Remaining()
		snap.TimeLimit = s.turn.Limit()
	}
	if s.limits.SessionSeconds > 0 {
		snap.SessionLeft = s.session.Remaining()
	}
	s.rules.fill(&snap)
	return snap
}

// Summary returns the completion payload once the session has finished.
func (s *Session) Summary() (domain.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return domain.Summary{}, false
	}
	sum := *s.summary
	sum.FinalScores = append([]domain.FinalScore(nil), s.summary.FinalScores...)
	return sum, true
}

// Close tears the session down: timers stop, transport handlers detach, the
// announcer is disposed and OnExit fires. No state changes afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.epoch++
	s.stopTurn()
	if s.sessionTask != nil {
		s.sessionTask.Stop()
		s.sessionTask = nil
	}
	subs := s.subs
	s.subs = nil
	s.notes, s.pending, s.outbox = nil, nil, nil
	s.mu.Unlock()

	for _, sub := range subs {
		s.tr.Off(sub.name, sub.id)
	}
	err := s.ann.Close()

	s.hookMu.Lock()
	if s.hooks.OnExit != nil {
		s.hooks.OnExit()
	}
	s.hookMu.Unlock()
	s.log.Debug("session closed")
	return err
}

// caller holds s.mu
func (s *Session) checkPlayable() error {
	switch {
	case s.closed:
		return ErrClosed
	case !s.started:
		return ErrNotStarted
	case s.phase == domain.PhaseFinished:
		return ErrFinished
	}
	return nil
}

// caller holds s.mu
func (s *Session) player(id string) (*domain.Player, int, error) {
	idx, ok := s.index[id]
	if !ok {
		return nil, -1, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}
	return s.players[idx], idx, nil
}

// caller holds s.mu
func (s *Session) requireTurn(playerID string, phase domain.Phase) (*domain.Player, error) {
	if err := s.checkPlayable(); err != nil {
		return nil, err
	}
	p, idx, err := s.player(playerID)
	if err != nil {
		return nil, err
	}
	if s.phase != phase {
		return nil, fmt.Errorf("%w: %s", ErrWrongPhase, s.phase)
	}
	if idx != s.current {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// setPhase moves to ph. Every pending turn and phase timer is cancelled and
// the epoch advances so that callbacks scheduled before are ignored.
func (s *Session) setPhase(ph domain.Phase) {
	s.stopTurn()
	s.epoch++
	s.phase = ph
}

func (s *Session) stopTurn() {
	if s.turnTask != nil {
		s.turnTask.Stop()
		s.turnTask = nil
	}
	if s.phaseTask != nil {
		s.phaseTask.Stop()
		s.phaseTask = nil
	}
	s.timed = false
}

// startTurn arms the turn countdown for the current phase.
func (s *Session) startTurn(limit int) {
	s.turn.Reset(limit)
	s.timed = true
	s.turnTask = s.sched.Every(s.limits.TickInterval, s.guard(s.epoch, s.onTurnTick))
}

// after runs fn once d has elapsed, unless the phase changed in between.
func (s *Session) after(d time.Duration, fn func()) {
	s.phaseTask = s.sched.AfterFunc(d, s.guard(s.epoch, fn))
}

func (s *Session) guard(epoch uint64, fn func()) func() {
	return func() {
		s.mu.Lock()
		if s.closed || s.epoch != epoch {
			s.mu.Unlock()
			return
		}
		fn()
		s.unlock()
	}
}

// caller holds s.mu
func (s *Session) onTurnTick() {
	expired := s.turn.Tick()
	tick := TickNotice{Remaining: s.turn.Remaining(), Limit: s.turn.Limit(), Elapsed: s.elapsed}
	if s.limits.SessionSeconds > 0 {
		tick.SessionLeft = s.session.Remaining()
	}
	if s.hooks.OnTick != nil {
		fn := s.hooks.OnTick
		s.notes = append(s.notes, func() { fn(tick) })
	}
	if expired {
		s.log.Debug("turn timed out", "phase", string(s.phase), "current", s.current)
		s.stopTurn()
		s.rules.timeout()
	}
}

func (s *Session) onSessionTick() {
	s.mu.Lock()
	if s.closed || s.phase == domain.PhaseFinished {
		s.mu.Unlock()
		return
	}
	s.elapsed++
	if s.limits.SessionSeconds > 0 && s.session.Tick() {
		s.finish(domain.ReasonTimeUp, s.timeUpWinner())
	}
	s.unlock()
}

func (s *Session) timeUpWinner() int {
	if s.kind == domain.KindBoardRace {
		return scoring.Furthest(domain.ClonePlayers(s.players))
	}
	return -1
}

// advanceTurn moves the pointer to the next active seat. Passing seat 0
// starts a new round.
func (s *Session) advanceTurn() {
	n := len(s.players)
	for i := 0; i < n; i++ {
		s.current = (s.current + 1) % n
		if s.current == 0 {
			s.round++
		}
		if s.players[s.current].IsActive {
			return
		}
	}
}

// finish ends the session. winner < 0 picks the highest scorer.
func (s *Session) finish(reason string, winner int) {
	if s.phase == domain.PhaseFinished {
		return
	}
	s.setPhase(domain.PhaseFinished)
	if s.sessionTask != nil {
		s.sessionTask.Stop()
		s.sessionTask = nil
	}
	s.reason = reason

	players := domain.ClonePlayers(s.players)
	if winner < 0 || winner >= len(players) {
		winner = scoring.Leader(players)
	}

	scores := make([]domain.FinalScore, 0, len(players))
	for _, p := range players {
		scores = append(scores, domain.FinalScore{
			PlayerID: p.ID,
			Name:     p.Name,
			Team:     p.Team,
			Score:    p.Score,
			Position: p.Position,
		})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

	sum := domain.Summary{
		SessionID:   s.id,
		Kind:        s.kind,
		FinalScores: scores,
		TimeSpent:   s.elapsed,
		TotalRounds: s.rules.totalRounds(),
		Reason:      reason,
	}
	if winner >= 0 {
		sum.WinnerID = players[winner].ID
		sum.WinnerName = players[winner].Name
	}
	if teams := scoring.TeamScores(players); len(teams) > 0 {
		sum.TeamScores = teams
		sum.WinningTeam = scoring.WinningTeam(teams)
	}
	s.summary = &sum
	s.log.Info("session finished", "reason", reason, "winner", sum.WinnerID, "time_spent", sum.TimeSpent)

	s.noteChange()
	if s.hooks.OnComplete != nil {
		fn := s.hooks.OnComplete
		s.notes = append(s.notes, func() { fn(sum) })
	}
}

func (s *Session) noteChange() {
	if s.hooks.OnChange == nil {
		return
	}
	snap := s.snapshotLocked()
	fn := s.hooks.OnChange
	s.notes = append(s.notes, func() { fn(snap) })
}

func (s *Session) noteQuestion(n QuestionNotice) {
	ann := s.ann
	q := n.Question
	s.notes = append(s.notes, func() { ann.Announce(q) })
	if s.hooks.OnQuestion != nil {
		fn := s.hooks.OnQuestion
		s.notes = append(s.notes, func() { fn(n) })
	}
}

func (s *Session) noteAnswer(r AnswerResult) {
	if s.hooks.OnAnswer != nil {
		fn := s.hooks.OnAnswer
		s.notes = append(s.notes, func() { fn(r) })
	}
}

func (s *Session) notePlay(p Play) {
	if s.hooks.OnPlay != nil {
		fn := s.hooks.OnPlay
		s.notes = append(s.notes, func() { fn(p) })
	}
}

// submit queues an outbound action when it belongs to the local player.
func (s *Session) submit(playerID string, a transport.Action) {
	if s.local == "" || playerID != s.local {
		return
	}
	s.outbox = append(s.outbox, a)
}

// unlock releases s.mu and delivers what the transition produced: hooks in
// order, then outbound actions. Send failures are logged, never returned.
// s.mu is never held while waiting for hookMu, so hooks may call Snapshot.
func (s *Session) unlock() {
	s.pending = append(s.pending, s.notes...)
	outbox := s.outbox
	s.notes, s.outbox = nil, nil
	queued := len(s.pending) > 0
	s.mu.Unlock()

	if queued {
		s.deliver()
	}

	for _, a := range outbox {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		if err := s.tr.Send(ctx, a); err != nil {
			s.log.Warn("action submission failed", "action", string(a.Action()), "err", err)
		}
		cancel()
	}
}

// deliver drains the pending hooks in the order transitions queued them.
func (s *Session) deliver() {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, n := range batch {
			n()
		}
	}
}
