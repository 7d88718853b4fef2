package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"edu_arcade/internal/clock"
	"edu_arcade/internal/domain"
	"edu_arcade/internal/transport"
)

// Limits are the timing and size knobs of a session. Zero fields take the
// defaults of the game kind.
type Limits struct {
	TurnSeconds    int
	SessionSeconds int // 0 = unlimited
	TickInterval   time.Duration
	ResultDelay    time.Duration
	RollDelay      time.Duration
	MoveDelay      time.Duration
	TotalQuestions int
	BoardSize      int
	Rounds         int
}

// DefaultLimits returns the stock limits for kind.
func DefaultLimits(kind domain.Kind) Limits {
	base := Limits{
		TickInterval: time.Second,
		ResultDelay:  3 * time.Second,
		RollDelay:    time.Second,
		MoveDelay:    time.Second,
	}
	switch kind {
	case domain.KindTrivia:
		base.TurnSeconds = 30
		base.TotalQuestions = 10
	case domain.KindBoardRace:
		base.TurnSeconds = 20
		base.SessionSeconds = 600
		base.BoardSize = 30
	case domain.KindDebate:
		base.TurnSeconds = 45
		base.Rounds = 3
	}
	return base
}

func (l Limits) withDefaults(d Limits) Limits {
	if l.TurnSeconds <= 0 {
		l.TurnSeconds = d.TurnSeconds
	}
	if l.SessionSeconds < 0 {
		l.SessionSeconds = 0
	} else if l.SessionSeconds == 0 {
		l.SessionSeconds = d.SessionSeconds
	}
	if l.TickInterval <= 0 {
		l.TickInterval = d.TickInterval
	}
	if l.ResultDelay <= 0 {
		l.ResultDelay = d.ResultDelay
	}
	if l.RollDelay <= 0 {
		l.RollDelay = d.RollDelay
	}
	if l.MoveDelay <= 0 {
		l.MoveDelay = d.MoveDelay
	}
	if l.TotalQuestions <= 0 {
		l.TotalQuestions = d.TotalQuestions
	}
	if l.BoardSize <= 0 {
		l.BoardSize = d.BoardSize
	}
	if l.Rounds <= 0 {
		l.Rounds = d.Rounds
	}
	return l
}

// Options configure one session. Only the content pool of the kind is
// required; everything else has a working default.
type Options struct {
	ID            string
	Players       []domain.Player
	Questions     []domain.Question
	Cards         []domain.Card
	Board         []domain.Square
	Transport     transport.Transport
	Scheduler     clock.Scheduler
	Rand          *rand.Rand
	Dice          func() int
	Announcer     Announcer
	Hooks         Hooks
	Logger        *slog.Logger
	LocalPlayerID string
	Limits        Limits
}

type Factory struct {
	limits map[domain.Kind]Limits
}

func NewFactory() *Factory {
	return &Factory{limits: map[domain.Kind]Limits{
		domain.KindTrivia:    DefaultLimits(domain.KindTrivia),
		domain.KindBoardRace: DefaultLimits(domain.KindBoardRace),
		domain.KindDebate:    DefaultLimits(domain.KindDebate),
	}}
}

// WithLimits overrides the defaults used for kind. Zero fields keep the
// stock values.
func (f *Factory) WithLimits(kind domain.Kind, l Limits) *Factory {
	f.limits[kind] = l.withDefaults(DefaultLimits(kind))
	return f
}

// Limits returns the effective defaults for kind.
func (f *Factory) Limits(kind domain.Kind) Limits {
	return f.limits[kind]
}

func (f *Factory) Create(kind domain.Kind, opts Options) (*Session, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	opts.Limits = opts.Limits.withDefaults(f.limits[kind])
	if opts.Rand == nil {
		opts.Rand = newRand()
	}

	var r rules
	switch kind {
	case domain.KindTrivia:
		r = newTrivia(opts)
	case domain.KindBoardRace:
		if len(opts.Questions) == 0 {
			return nil, fmt.Errorf("board race: %w", ErrEmptyPool)
		}
		r = newBoardRace(opts)
	case domain.KindDebate:
		if len(opts.Cards) == 0 {
			return nil, fmt.Errorf("debate: %w", ErrEmptyPool)
		}
		r = newDebate(opts)
	}
	return newSession(kind, opts, r), nil
}

// New creates a session with the stock limits.
func New(kind domain.Kind, opts Options) (*Session, error) {
	return NewFactory().Create(kind, opts)
}

// newRand seeds a generator from the system CSPRNG.
func newRand() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		binary.LittleEndian.PutUint64(seed[:], uint64(time.Now().UnixNano()))
	}
	return rand.New(rand.NewChaCha8(seed))
}
