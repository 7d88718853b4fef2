package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"edu_arcade/internal/clock"
	"edu_arcade/internal/domain"
	"edu_arcade/internal/transport"
)

// Remote plays a seat on a host through a transport. It reacts to the
// gameState snapshots a room broadcasts, and to bare gameQuestion events for
// hosts that only run trivia.
type Remote struct {
	bot   *Bot
	tr    transport.Transport
	sched clock.Scheduler
	think time.Duration
	log   *slog.Logger

	mu      sync.Mutex
	ids     []transport.HandlerID
	tasks   []clock.Task
	summary *transport.EndedEvent
	done    chan struct{}
}

func NewRemote(b *Bot, tr transport.Transport, sched clock.Scheduler, think time.Duration, log *slog.Logger) *Remote {
	if sched == nil {
		sched = clock.Real()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Remote{
		bot:   b,
		tr:    tr,
		sched: sched,
		think: think,
		log:   log.With("bot", b.PlayerID),
		done:  make(chan struct{}),
	}
}

// Attach subscribes to the transport. Call before Connect so no state is
// missed.
func (r *Remote) Attach() {
	state := r.tr.On(transport.EventState, func(ev transport.Event) {
		r.observe(ev.(transport.StateEvent).State)
	})
	question := r.tr.On(transport.EventQuestion, func(ev transport.Event) {
		qe := ev.(transport.QuestionEvent)
		q := qe.Question
		r.observe(domain.Snapshot{
			Kind:           domain.KindTrivia,
			Phase:          domain.PhaseQuestion,
			Round:          qe.QuestionNumber,
			QuestionNumber: qe.QuestionNumber,
			TotalQuestions: qe.TotalQuestions,
			Question:       &q,
		})
	})
	ended := r.tr.On(transport.EventEnded, func(ev transport.Event) {
		e := ev.(transport.EndedEvent)
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.summary == nil {
			r.summary = &e
			close(r.done)
		}
	})
	r.mu.Lock()
	r.ids = append(r.ids, state, question, ended)
	r.mu.Unlock()
}

func (r *Remote) observe(snap domain.Snapshot) {
	a, ok := r.bot.Decide(snap)
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, r.sched.AfterFunc(r.think, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.tr.Send(ctx, a); err != nil {
			r.log.Warn("send failed", "action", string(a.Action()), "err", err)
		}
	}))
}

// Wait blocks until the host ends the game or ctx is done.
func (r *Remote) Wait(ctx context.Context) (transport.EndedEvent, error) {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return *r.summary, nil
	case <-ctx.Done():
		return transport.EndedEvent{}, ctx.Err()
	}
}

// Detach cancels pending sends and unsubscribes.
func (r *Remote) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		t.Stop()
	}
	r.tasks = nil
	if len(r.ids) == 3 {
		r.tr.Off(transport.EventState, r.ids[0])
		r.tr.Off(transport.EventQuestion, r.ids[1])
		r.tr.Off(transport.EventEnded, r.ids[2])
	}
	r.ids = nil
}
