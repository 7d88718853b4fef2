package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"edu_arcade/internal/domain"
	"edu_arcade/internal/game"
	"edu_arcade/internal/logger"
	"edu_arcade/internal/transport"
)

// Room hosts one authoritative session and relays it to the seated clients.
type Room struct {
	ID   string
	Kind domain.Kind

	hub       *Hub
	session   *game.Session
	log       *slog.Logger
	createdAt time.Time

	// opMu serializes roster changes and start; it may be held across
	// session calls, mu never is.
	opMu    sync.Mutex
	roster  []domain.Player
	started bool
	closed  bool

	mu         sync.RWMutex
	clients    map[string]*Client
	emptySince time.Time
}

func newRoom(h *Hub, id string, kind domain.Kind, opts game.Options) (*Room, error) {
	r := &Room{
		ID:        id,
		Kind:      kind,
		hub:       h,
		log:       logger.ForRoom(h.log, id, string(kind)),
		createdAt: h.cfg.Scheduler.Now(),
		clients:   make(map[string]*Client),
	}
	r.emptySince = r.createdAt

	opts.ID = id
	opts.Transport = transport.NewStandalone()
	opts.Scheduler = h.cfg.Scheduler
	opts.Logger = r.log
	opts.Hooks = r.hooks()
	s, err := h.cfg.Factory.Create(kind, opts)
	if err != nil {
		return nil, err
	}
	r.session = s
	return r, nil
}

func (r *Room) hooks() game.Hooks {
	return game.Hooks{
		OnChange: func(snap domain.Snapshot) {
			r.broadcast(transport.StateEvent{State: redact(snap)})
		},
		OnQuestion: func(n game.QuestionNotice) {
			r.broadcast(transport.QuestionEvent{
				QuestionNumber: n.Number,
				TotalQuestions: n.Total,
				TimeLimit:      n.TimeLimit,
				Question:       n.Question.Redacted(),
			})
		},
		OnAnswer: func(res game.AnswerResult) {
			Answers.WithLabelValues(string(r.Kind), strconv.FormatBool(res.Correct)).Inc()
			r.broadcast(transport.AnswerEvent{
				UserID:      res.PlayerID,
				QuestionID:  res.QuestionID,
				IsCorrect:   res.Correct,
				TimeElapsed: res.Elapsed,
				Points:      res.Points,
			})
			r.broadcast(leaderboard(r.session.Snapshot().Players))
		},
		OnPlay: func(game.Play) {
			r.broadcast(leaderboard(r.session.Snapshot().Players))
		},
		OnComplete: func(sum domain.Summary) {
			SessionsCompleted.WithLabelValues(string(r.Kind), sum.Reason).Inc()
			r.broadcast(transport.EndedEvent{FinalScores: sum.FinalScores, WinnerID: sum.WinnerID, Reason: sum.Reason})
			r.log.Info("session completed", "reason", sum.Reason, "winner", sum.WinnerID)
		},
	}
}

// redact withholds the correct option while the question is still open.
func redact(snap domain.Snapshot) domain.Snapshot {
	if snap.Question != nil && snap.Phase == domain.PhaseQuestion {
		q := snap.Question.Redacted()
		snap.Question = &q
	}
	return snap
}

func leaderboard(players []domain.Player) transport.LeaderboardEvent {
	ev := transport.LeaderboardEvent{Participants: make([]transport.Participant, 0, len(players))}
	for _, p := range players {
		ev.Participants = append(ev.Participants, transport.Participant{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	sort.SliceStable(ev.Participants, func(i, j int) bool {
		return ev.Participants[i].Score > ev.Participants[j].Score
	})
	return ev
}

// join seats c, or reattaches it to its seat after a reconnect. It reports
// how many seats the room has.
func (r *Room) join(c *Client, maxSeats int) (int, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	if r.closed {
		return 0, ErrRoomNotFound
	}

	seated := -1
	for i, p := range r.roster {
		if p.ID == c.PlayerID {
			seated = i
			break
		}
	}

	r.mu.Lock()
	if _, ok := r.clients[c.PlayerID]; ok {
		r.mu.Unlock()
		return 0, ErrSeatTaken
	}
	switch {
	case seated >= 0:
	case r.started:
		r.mu.Unlock()
		return 0, ErrRoomStarted
	case maxSeats > 0 && len(r.roster) >= maxSeats:
		r.mu.Unlock()
		return 0, ErrRoomFull
	}
	r.clients[c.PlayerID] = c
	r.mu.Unlock()

	if seated >= 0 {
		r.log.Info("player reconnected", "player", c.PlayerID)
		if r.started {
			if err := r.session.SetActive(c.PlayerID, true); err != nil {
				r.log.Warn("reactivate failed", "player", c.PlayerID, "err", err)
			}
		}
	} else {
		r.roster = append(r.roster, domain.Player{ID: c.PlayerID, Name: c.Name})
		if err := r.session.SetRoster(r.roster); err != nil {
			r.log.Warn("set roster failed", "err", err)
		}
		r.log.Info("player joined", "player", c.PlayerID, "seats", len(r.roster))
	}

	// the newcomer has missed every state broadcast so far
	c.enqueue(transport.StateEvent{State: redact(r.session.Snapshot())})
	return len(r.roster), nil
}

// Start begins the session if it has at least one seat.
func (r *Room) Start(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if r.started {
		return nil
	}
	if err := r.session.Start(ctx); err != nil {
		return fmt.Errorf("start room %s: %w", r.ID, err)
	}
	r.started = true
	SessionsStarted.WithLabelValues(string(r.Kind)).Inc()
	r.log.Info("session started", "seats", len(r.roster))
	r.hub.unlist(r)
	return nil
}

func (r *Room) isStarted() bool {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	return r.started
}

// leave detaches c. Before start its seat is freed; afterwards the player is
// only marked inactive. The last client out closes the room.
func (r *Room) leave(c *Client) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	if cur, ok := r.clients[c.PlayerID]; !ok || cur != c {
		r.mu.Unlock()
		return
	}
	delete(r.clients, c.PlayerID)
	remaining := len(r.clients)
	if remaining == 0 {
		r.emptySince = r.hub.cfg.Scheduler.Now()
	}
	r.mu.Unlock()

	r.log.Info("player left", "player", c.PlayerID, "remaining", remaining)
	if r.closed {
		return
	}
	if r.started {
		if err := r.session.SetActive(c.PlayerID, false); err != nil && !errors.Is(err, game.ErrClosed) {
			r.log.Warn("deactivate failed", "player", c.PlayerID, "err", err)
		}
	} else {
		kept := r.roster[:0]
		for _, p := range r.roster {
			if p.ID != c.PlayerID {
				kept = append(kept, p)
			}
		}
		r.roster = kept
		if err := r.session.SetRoster(r.roster); err != nil {
			r.log.Warn("set roster failed", "err", err)
		}
	}

	if remaining == 0 {
		r.closeLocked()
	}
}

// caller holds r.opMu
func (r *Room) closeLocked() {
	if r.closed {
		return
	}
	r.closed = true
	if err := r.session.Close(); err != nil {
		r.log.Warn("session close failed", "err", err)
	}
	r.hub.remove(r)
	r.log.Info("room closed")
}

func (r *Room) close() {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	r.closeLocked()
}

// HandleMessage decodes one client frame and applies it to the session.
// Failures are reported to that client only.
func (r *Room) HandleMessage(c *Client, raw []byte) {
	a, err := transport.DecodeAction(raw)
	if err != nil {
		r.log.Debug("bad action", "player", c.PlayerID, "err", err)
		c.enqueue(transport.ErrorEvent{Message: err.Error()})
		return
	}

	if err := r.allow(c); err != nil {
		c.enqueue(transport.ErrorEvent{Message: err.Error()})
		return
	}

	if _, ok := a.(transport.Start); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = r.Start(ctx)
	} else {
		err = r.session.Apply(c.PlayerID, a)
	}
	if err != nil {
		r.log.Debug("action rejected", "player", c.PlayerID, "action", string(a.Action()), "err", err)
		c.enqueue(transport.ErrorEvent{Message: err.Error()})
	}
}

func (r *Room) allow(c *Client) error {
	l := r.hub.cfg.Limiter
	if l == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	key := "act_rl:" + r.ID + ":" + c.PlayerID
	ok, err := l.Allow(ctx, key, r.hub.cfg.ActionLimit, r.hub.cfg.ActionWindow)
	if err != nil {
		// fail-open
		r.log.Warn("rate limiter error", "err", err)
		return nil
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

func (r *Room) broadcast(ev transport.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		c.enqueue(ev)
	}
}

// Seats returns how many players hold a seat.
func (r *Room) Seats() int {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	return len(r.roster)
}

// Snapshot returns the unredacted session state.
func (r *Room) Snapshot() domain.Snapshot {
	return r.session.Snapshot()
}

func (r *Room) idle(now time.Time, after time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0 && now.Sub(r.emptySince) > after
}
