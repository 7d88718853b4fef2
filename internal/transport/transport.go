// Package transport is the duplex event channel between a game session and
// whoever drives it: a live websocket host, a local demo simulation, or
// nothing at all.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrNotConnected   = errors.New("transport not connected")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Handler receives one decoded inbound event.
type Handler func(Event)

// HandlerID identifies a registration for Off.
type HandlerID uint64

// Transport is implemented by Live, Demo and Standalone. Handlers registered
// on one transport are invoked one at a time, in arrival order.
type Transport interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	On(name EventName, h Handler) HandlerID
	Off(name EventName, id HandlerID)
	SubmitAnswer(ctx context.Context, questionID string, answerIndex, elapsedSeconds int) error
	Send(ctx context.Context, a Action) error
	Close() error
}

type registration struct {
	id HandlerID
	h  Handler
}

// registry is the handler table shared by every transport.
type registry struct {
	mu         sync.Mutex
	next       HandlerID
	handlers   map[EventName][]registration
	dispatchMu sync.Mutex
}

func (r *registry) On(name EventName, h Handler) HandlerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = make(map[EventName][]registration)
	}
	r.next++
	r.handlers[name] = append(r.handlers[name], registration{id: r.next, h: h})
	return r.next
}

func (r *registry) Off(name EventName, id HandlerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs := r.handlers[name]
	for i, reg := range regs {
		if reg.id == id {
			r.handlers[name] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(r.handlers[name]) == 0 {
		delete(r.handlers, name)
	}
}

// Handlers returns the number of registered handlers.
func (r *registry) Handlers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, regs := range r.handlers {
		n += len(regs)
	}
	return n
}

func (r *registry) dispatch(ev Event) {
	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()

	r.mu.Lock()
	regs := append([]registration(nil), r.handlers[ev.Name()]...)
	r.mu.Unlock()

	for _, reg := range regs {
		reg.h(ev)
	}
}

// ConnectOrDemo tries the live transport and falls back to the demo one.
func ConnectOrDemo(ctx context.Context, live, demo Transport, log *slog.Logger) Transport {
	if log == nil {
		log = slog.Default()
	}
	if err := live.Connect(ctx); err != nil {
		log.Warn("live transport unavailable, using demo", "err", err)
		_ = live.Close()
		if err := demo.Connect(ctx); err != nil {
			log.Error("demo transport connect failed", "err", err)
		}
		return demo
	}
	return live
}
