package game

import (
	"context"
	"testing"
	"time"

	"edu_arcade/internal/clock"
	"edu_arcade/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debateCards() []domain.Card {
	return []domain.Card{
		{ID: "f1", Argument: "pro one", Position: domain.StanceFavor, Points: 30},
		{ID: "f2", Argument: "pro two", Position: domain.StanceFavor, Points: 20},
		{ID: "c1", Argument: "con one", Position: domain.StanceContra, Points: 25},
		{ID: "c2", Argument: "con two", Position: domain.StanceContra, Points: 25},
	}
}

func cardIDs(cards []domain.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestDebateRound(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	var plays []Play
	s := newTestSession(t, domain.KindDebate, m, Options{
		Players: twoPlayers(),
		Cards:   debateCards(),
		Limits:  Limits{Rounds: 1},
		Hooks:   Hooks{OnPlay: func(p Play) { plays = append(plays, p) }},
	})
	require.NoError(t, s.Start(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, "favor", snap.Players[0].Team)
	assert.Equal(t, "contra", snap.Players[1].Team)

	offer, err := s.Offer("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, cardIDs(offer))

	_, err = s.PlayCard("a", "c1")
	assert.ErrorIs(t, err, ErrCardUnavailable)
	_, err = s.PlayCard("b", "c1")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	play, err := s.PlayCard("a", "f1")
	require.NoError(t, err)
	assert.Equal(t, 30, play.Points)
	assert.Equal(t, domain.PhaseResults, s.Phase())

	offer, err = s.Offer("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"f2"}, cardIDs(offer))

	m.Advance(3 * time.Second)
	require.Equal(t, 1, s.Snapshot().CurrentPlayer)

	// b lets the clock run out
	m.Advance(45 * time.Second)
	require.Len(t, plays, 2)
	assert.True(t, plays[1].TimedOut)
	assert.Equal(t, 12, plays[1].Points)

	offer, err = s.Offer("b")
	require.NoError(t, err)
	assert.Len(t, offer, 1)
	assert.NotEqual(t, plays[1].Card.ID, offer[0].ID)

	m.Advance(3 * time.Second)
	sum, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, domain.ReasonCompleted, sum.Reason)
	assert.Equal(t, "a", sum.WinnerID)
	assert.Equal(t, map[string]int{"favor": 30, "contra": 12}, sum.TeamScores)
	assert.Equal(t, "favor", sum.WinningTeam)
	assert.Equal(t, 1, sum.TotalRounds)
}

func TestDebateEndsWhenPoolRunsOut(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	cards := []domain.Card{
		{ID: "f1", Argument: "pro", Position: domain.StanceFavor, Points: 10},
		{ID: "c1", Argument: "con", Position: domain.StanceContra, Points: 10},
	}
	s := newTestSession(t, domain.KindDebate, m, Options{
		Players: twoPlayers(),
		Cards:   cards,
		Limits:  Limits{Rounds: 3},
	})
	require.NoError(t, s.Start(context.Background()))

	_, err := s.PlayCard("a", "f1")
	require.NoError(t, err)
	m.Advance(3 * time.Second)
	_, err = s.PlayCard("b", "c1")
	require.NoError(t, err)
	m.Advance(3 * time.Second)

	sum, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, domain.ReasonPoolExhausted, sum.Reason)
	assert.Equal(t, 2, sum.TotalRounds)
	assert.Equal(t, "a", sum.WinnerID, "ties go to the earlier seat")
}

func TestDebateWinnerIsPlayerNotTeam(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	cards := []domain.Card{
		{ID: "f1", Argument: "pro", Position: domain.StanceFavor, Points: 20},
		{ID: "f2", Argument: "pro", Position: domain.StanceFavor, Points: 20},
		{ID: "c1", Argument: "con", Position: domain.StanceContra, Points: 35},
	}
	players := []domain.Player{{ID: "a", Team: "favor"}, {ID: "b", Team: "contra"}, {ID: "c", Team: "favor"}}
	s := newTestSession(t, domain.KindDebate, m, Options{Players: players, Cards: cards, Limits: Limits{Rounds: 1}})
	require.NoError(t, s.Start(context.Background()))

	_, err := s.PlayCard("a", "f1")
	require.NoError(t, err)
	m.Advance(3 * time.Second)
	_, err = s.PlayCard("b", "c1")
	require.NoError(t, err)
	m.Advance(3 * time.Second)
	_, err = s.PlayCard("c", "f2")
	require.NoError(t, err)
	m.Advance(3 * time.Second)

	sum, ok := s.Summary()
	require.True(t, ok)
	assert.Equal(t, "favor", sum.WinningTeam)
	assert.Equal(t, "b", sum.WinnerID)
}
