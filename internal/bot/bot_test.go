package bot

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"edu_arcade/internal/clock"
	"edu_arcade/internal/domain"
	"edu_arcade/internal/game"
	"edu_arcade/internal/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func seeded() *rand.Rand { return rand.New(rand.NewPCG(3, 5)) }

func question() *domain.Question {
	return &domain.Question{ID: "q1", Prompt: "2+2", Options: []string{"3", "4", "5"}, CorrectAnswer: 1}
}

func TestDecideAnswersOnce(t *testing.T) {
	b := New("a", 1, seeded())
	snap := domain.Snapshot{
		Kind:           domain.KindTrivia,
		Phase:          domain.PhaseQuestion,
		Round:          1,
		QuestionNumber: 1,
		Question:       question(),
		Players:        []domain.Player{{ID: "a"}, {ID: "b"}},
	}

	a, ok := b.Decide(snap)
	require.True(t, ok)
	assert.Equal(t, transport.SubmitAnswer{QuestionID: "q1", AnswerIndex: 1}, a)

	_, ok = b.Decide(snap)
	assert.False(t, ok, "same question must not be answered twice")

	snap.QuestionNumber = 2
	_, ok = b.Decide(snap)
	assert.True(t, ok)
}

func TestDecideWrongAnswerAvoidsCorrect(t *testing.T) {
	b := New("a", 0, seeded())
	for n := 1; n <= 20; n++ {
		a, ok := b.Decide(domain.Snapshot{Kind: domain.KindTrivia, Phase: domain.PhaseQuestion, QuestionNumber: n, Question: question()})
		require.True(t, ok)
		idx := a.(transport.SubmitAnswer).AnswerIndex
		assert.NotEqual(t, 1, idx)
		assert.True(t, idx >= 0 && idx < 3)
	}
}

func TestDecideUsesStudiedKeyForHiddenAnswers(t *testing.T) {
	hidden := question().Redacted()
	snap := domain.Snapshot{Kind: domain.KindTrivia, Phase: domain.PhaseQuestion, QuestionNumber: 1, Question: &hidden}

	b := New("a", 1, seeded())
	b.Study([]domain.Question{*question()})
	a, ok := b.Decide(snap)
	require.True(t, ok)
	assert.Equal(t, 1, a.(transport.SubmitAnswer).AnswerIndex)

	// without a key any option will do
	guesser := New("b", 1, seeded())
	for n := 1; n <= 10; n++ {
		snap.QuestionNumber = n
		a, ok := guesser.Decide(snap)
		require.True(t, ok)
		idx := a.(transport.SubmitAnswer).AnswerIndex
		assert.True(t, idx >= 0 && idx < 3)
	}
}

func TestDecideWaitsForOwnTurn(t *testing.T) {
	b := New("b", 1, seeded())
	snap := domain.Snapshot{
		Kind:    domain.KindBoardRace,
		Phase:   domain.PhaseWaiting,
		Round:   1,
		Players: []domain.Player{{ID: "a"}, {ID: "b"}},
	}
	_, ok := b.Decide(snap)
	assert.False(t, ok)

	snap.CurrentPlayer = 1
	a, ok := b.Decide(snap)
	require.True(t, ok)
	assert.Equal(t, transport.Roll{}, a)

	snap.Phase = domain.PhaseRolling
	_, ok = b.Decide(snap)
	assert.False(t, ok)
}

func TestDecidePlaysStrongestCard(t *testing.T) {
	b := New("a", 1, seeded())
	a, ok := b.Decide(domain.Snapshot{
		Kind:    domain.KindDebate,
		Phase:   domain.PhaseWaiting,
		Round:   1,
		Players: []domain.Player{{ID: "a"}},
		Offer: []domain.Card{
			{ID: "c1", Points: 10},
			{ID: "c2", Points: 25},
			{ID: "c3", Points: 25},
		},
	})
	require.True(t, ok)
	assert.Equal(t, transport.PlayCard{CardID: "c2"}, a)

	_, ok = b.Decide(domain.Snapshot{Kind: domain.KindDebate, Phase: domain.PhaseFinished})
	assert.False(t, ok)
}

// seated wires one Seat per player into a session's change hook.
func seated(t *testing.T, kind domain.Kind, m *clock.Manual, opts game.Options, accuracy float64) (*game.Session, []*Seat) {
	t.Helper()
	var seats []*Seat
	opts.Scheduler = m
	opts.Rand = seeded()
	opts.Logger = quiet()
	opts.Hooks.OnChange = func(snap domain.Snapshot) {
		for _, st := range seats {
			st.Observe(snap)
		}
	}
	s, err := game.New(kind, opts)
	require.NoError(t, err)
	for i, p := range opts.Players {
		seats = append(seats, NewSeat(New(p.ID, accuracy, rand.New(rand.NewPCG(uint64(i), 1))), s, m, 2*time.Second, quiet()))
	}
	return s, seats
}

func TestSeatsPlayTriviaToTheEnd(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	qs := game.SampleQuestions()[:3]
	s, _ := seated(t, domain.KindTrivia, m, game.Options{
		Players:   []domain.Player{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Bruno"}},
		Questions: qs,
	}, 1)
	require.NoError(t, s.Start(context.Background()))

	m.Advance(time.Minute)

	assert.Equal(t, domain.PhaseFinished, s.Phase())
	sum, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, domain.ReasonCompleted, sum.Reason)
	a, _ := sum.ScoreOf("a")
	b, _ := sum.ScoreOf("b")
	assert.Positive(t, a)
	assert.Equal(t, a, b)
}

func TestSeatsPlayDebateRounds(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	s, _ := seated(t, domain.KindDebate, m, game.Options{
		Players: []domain.Player{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Bruno"}},
		Cards:   game.SampleCards(),
	}, 1)
	require.NoError(t, s.Start(context.Background()))

	m.Advance(5 * time.Minute)

	sum, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, domain.PhaseFinished, s.Phase())
	assert.Equal(t, domain.ReasonCompleted, sum.Reason)
	assert.Equal(t, 3, sum.TotalRounds)
	for _, p := range s.Snapshot().Players {
		assert.Equal(t, 3, p.CardsPlayed, p.ID)
	}
}

func TestSeatStopCancelsPending(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	s, seats := seated(t, domain.KindBoardRace, m, game.Options{
		Players:   []domain.Player{{ID: "a"}, {ID: "b"}},
		Questions: game.SampleQuestions(),
	}, 1)
	require.NoError(t, s.Start(context.Background()))
	for _, st := range seats {
		st.Stop()
	}

	m.Advance(time.Second * 5)
	assert.Equal(t, domain.PhaseWaiting, s.Snapshot().Phase)
	assert.Zero(t, s.Snapshot().LastRoll)
	require.NoError(t, s.Close())
}

func TestRemoteAnswersDemoHost(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	demo := transport.NewDemo(transport.DemoConfig{
		Questions:     game.SampleQuestions()[:2],
		LocalPlayerID: "me",
		LocalName:     "Me",
		Scheduler:     m,
		Rand:          seeded(),
		Logger:        quiet(),
	})
	r := NewRemote(New("me", 1, seeded()), demo, m, time.Second, quiet())
	r.Attach()
	defer r.Detach()

	require.NoError(t, demo.Connect(context.Background()))

	m.Advance(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ended, err := r.Wait(ctx)
	require.NoError(t, err)
	var mine int
	for _, p := range ended.FinalScores {
		if p.PlayerID == "me" {
			mine = p.Score
		}
	}
	assert.Positive(t, mine)
	assert.Equal(t, "me", ended.WinnerID)
}
