package bot

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"edu_arcade/internal/clock"
	"edu_arcade/internal/domain"
	"edu_arcade/internal/game"
	"edu_arcade/internal/transport"
)

// Seat drives one player of a local session. Feed it every snapshot from
// the session's OnChange hook; actions run on the scheduler after Think.
type Seat struct {
	bot   *Bot
	sess  *game.Session
	sched clock.Scheduler
	think time.Duration
	log   *slog.Logger

	mu     sync.Mutex
	tasks  []clock.Task
	closed bool
}

func NewSeat(b *Bot, sess *game.Session, sched clock.Scheduler, think time.Duration, log *slog.Logger) *Seat {
	if log == nil {
		log = slog.Default()
	}
	return &Seat{bot: b, sess: sess, sched: sched, think: think, log: log.With("bot", b.PlayerID)}
}

// Observe is safe to call from session hooks: it never acts synchronously.
func (s *Seat) Observe(snap domain.Snapshot) {
	a, ok := s.bot.Decide(snap)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.tasks = append(s.tasks, s.sched.AfterFunc(s.think, func() { s.act(a) }))
}

func (s *Seat) act(a transport.Action) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	if err := s.sess.Apply(s.bot.PlayerID, a); err != nil {
		// the turn may have timed out while thinking
		if errors.Is(err, game.ErrClosed) || errors.Is(err, game.ErrFinished) {
			return
		}
		s.log.Debug("bot action rejected", "action", string(a.Action()), "err", err)
	}
}

// Stop cancels every pending action.
func (s *Seat) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, t := range s.tasks {
		t.Stop()
	}
	s.tasks = nil
}
