package ws

import (
	"context"
	crand "crypto/rand"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"edu_arcade/internal/domain"
	"edu_arcade/internal/game"

	"github.com/google/uuid"
)

// Hub owns every room. Players without a room code are matched into the
// open room of their game kind, which starts once it is full.
type Hub struct {
	cfg HubConfig
	log *slog.Logger

	mu    sync.RWMutex
	rooms map[string]*Room
	// open matchmade room per kind
	waiting map[domain.Kind]*Room
	rnd     *rand.Rand
}

func NewHub(cfg HubConfig) *Hub {
	cfg = cfg.withDefaults()
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return &Hub{
		cfg:     cfg,
		log:     cfg.Logger.With("component", "hub"),
		rooms:   make(map[string]*Room),
		waiting: make(map[domain.Kind]*Room),
		rnd:     rand.New(rand.NewChaCha8(seed)),
	}
}

// Join seats c in the room named by code, creating a private room when the
// code is unknown, or matchmakes it when code is empty.
func (h *Hub) Join(ctx context.Context, c *Client, kind domain.Kind, code string) (*Room, error) {
	if code != "" {
		return h.joinCode(c, kind, strings.ToUpper(code))
	}

	// a full or just-started waiting room sends us around again
	for attempt := 0; attempt < 3; attempt++ {
		room, err := h.waitingRoom(kind)
		if err != nil {
			return nil, err
		}
		seats, err := room.join(c, h.cfg.RoomSize)
		if errors.Is(err, ErrRoomFull) || errors.Is(err, ErrRoomStarted) || errors.Is(err, ErrRoomNotFound) {
			h.unlist(room)
			continue
		}
		if err != nil {
			return nil, err
		}
		h.log.Info("matched", "player", c.PlayerID, "room", room.ID, "seats", seats)
		if seats >= h.cfg.RoomSize {
			if err := room.Start(ctx); err != nil {
				h.log.Warn("auto start failed", "room", room.ID, "err", err)
			}
		}
		return room, nil
	}
	return nil, ErrRoomFull
}

func (h *Hub) joinCode(c *Client, kind domain.Kind, code string) (*Room, error) {
	h.mu.Lock()
	room, ok := h.rooms[code]
	if !ok {
		var err error
		room, err = h.newRoomLocked(code, kind)
		if err != nil {
			h.mu.Unlock()
			return nil, err
		}
		h.log.Info("private room created", "room", code, "kind", string(kind))
	}
	h.mu.Unlock()

	if _, err := room.join(c, 0); err != nil {
		return nil, err
	}
	return room, nil
}

func (h *Hub) waitingRoom(kind domain.Kind) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r := h.waiting[kind]; r != nil {
		return r, nil
	}
	r, err := h.newRoomLocked(newCode(), kind)
	if err != nil {
		return nil, err
	}
	h.waiting[kind] = r
	return r, nil
}

// caller holds h.mu
func (h *Hub) newRoomLocked(id string, kind domain.Kind) (*Room, error) {
	opts := game.Options{Cards: h.cfg.Content.Cards}
	if kind == domain.KindTrivia {
		opts.Questions = game.Draw(h.rnd, h.cfg.Content.Questions, h.cfg.Factory.Limits(kind).TotalQuestions)
	} else {
		opts.Questions = game.Shuffled(h.rnd, h.cfg.Content.Questions)
	}
	r, err := newRoom(h, id, kind, opts)
	if err != nil {
		return nil, err
	}
	h.rooms[id] = r
	ActiveRooms.Set(float64(len(h.rooms)))
	return r, nil
}

func newCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// unlist stops matchmaking into r.
func (h *Hub) unlist(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.waiting[r.Kind] == r {
		delete(h.waiting, r.Kind)
	}
}

func (h *Hub) remove(r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.waiting[r.Kind] == r {
		delete(h.waiting, r.Kind)
	}
	if h.rooms[r.ID] == r {
		delete(h.rooms, r.ID)
	}
	ActiveRooms.Set(float64(len(h.rooms)))
}

// Room looks up a room by code.
func (h *Hub) Room(code string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[strings.ToUpper(code)]
	return r, ok
}

// Rooms returns the number of hosted rooms.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// StartCleanup sweeps rooms nobody has been connected to for StaleAfter,
// until ctx is done.
func (h *Hub) StartCleanup(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 10 * time.Minute
	}
	task := h.cfg.Scheduler.Every(every, h.cleanupStaleRooms)
	go func() {
		<-ctx.Done()
		task.Stop()
	}()
}

func (h *Hub) cleanupStaleRooms() {
	now := h.cfg.Scheduler.Now()
	h.mu.RLock()
	var stale []*Room
	for _, r := range h.rooms {
		if r.idle(now, h.cfg.StaleAfter) {
			stale = append(stale, r)
		}
	}
	h.mu.RUnlock()

	for _, r := range stale {
		r.close()
		h.log.Info("cleaned up stale room", "room", r.ID)
	}
}

// Shutdown closes every room.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()
	for _, r := range rooms {
		r.close()
	}
}
