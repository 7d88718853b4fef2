// Package bot plays a seat automatically, either inside a local session or
// as a remote client of a host.
package bot

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"edu_arcade/internal/domain"
	"edu_arcade/internal/transport"
)

// Bot decides what a seat does next from a snapshot of the game.
type Bot struct {
	PlayerID string
	Accuracy float64 // chance of picking the correct option, 0..1

	mu   sync.Mutex
	rnd  *rand.Rand
	done map[string]bool
	key  map[string]int
}

func New(playerID string, accuracy float64, rnd *rand.Rand) *Bot {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bot{PlayerID: playerID, Accuracy: accuracy, rnd: rnd, done: make(map[string]bool)}
}

// Study records the correct options of qs, for hosts that withhold them.
func (b *Bot) Study(qs []domain.Question) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.key == nil {
		b.key = make(map[string]int, len(qs))
	}
	for _, q := range qs {
		b.key[q.ID] = q.CorrectAnswer
	}
}

// Decide returns the action to take for snap, if any. The same decision
// point never yields two actions.
func (b *Bot) Decide(snap domain.Snapshot) (transport.Action, bool) {
	if snap.Phase.Terminal() || snap.Preparing {
		return nil, false
	}
	if snap.Kind != domain.KindTrivia {
		cur, ok := snap.Current()
		if !ok || cur.ID != b.PlayerID {
			return nil, false
		}
	}

	var a transport.Action
	switch {
	case snap.Phase == domain.PhaseQuestion && snap.Question != nil:
		a = transport.SubmitAnswer{QuestionID: snap.Question.ID, AnswerIndex: b.pick(*snap.Question)}
	case snap.Kind == domain.KindBoardRace && snap.Phase == domain.PhaseWaiting:
		a = transport.Roll{}
	case snap.Kind == domain.KindDebate && snap.Phase == domain.PhaseWaiting && len(snap.Offer) > 0:
		a = transport.PlayCard{CardID: strongest(snap.Offer).ID}
	default:
		return nil, false
	}

	key := fmt.Sprintf("%s/%d/%d/%s", snap.Phase, snap.Round, snap.QuestionNumber, a.Action())
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done[key] {
		return nil, false
	}
	b.done[key] = true
	return a, true
}

func (b *Bot) pick(q domain.Question) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	correct := q.CorrectAnswer
	if q.Hidden() {
		k, ok := b.key[q.ID]
		if !ok || !q.HasOption(k) {
			return b.rnd.IntN(len(q.Options))
		}
		correct = k
	}
	if len(q.Options) < 2 || b.rnd.Float64() < b.Accuracy {
		return correct
	}
	wrong := b.rnd.IntN(len(q.Options) - 1)
	if wrong >= correct {
		wrong++
	}
	return wrong
}

func strongest(cards []domain.Card) domain.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Points > best.Points {
			best = c
		}
	}
	return best
}
