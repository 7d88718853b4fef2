package game

import (
	"edu_arcade/internal/domain"
	"edu_arcade/internal/scoring"
	"edu_arcade/internal/transport"
)

// debate: each player in turn plays an argument card for their side.
// waiting --play/timeout--> results --> waiting (next player)
type debate struct {
	s         *Session
	available []domain.Card
	rounds    int
	last      *Play
}

func newDebate(opts Options) *debate {
	return &debate{
		available: append([]domain.Card(nil), opts.Cards...),
		rounds:    opts.Limits.Rounds,
	}
}

func (d *debate) bind(s *Session) { d.s = s }

// seat splits players without a team between the two sides, alternating.
func (d *debate) seat(players []*domain.Player) {
	for i, p := range players {
		if p.Team != "" {
			continue
		}
		if i%2 == 0 {
			p.Team = string(domain.StanceFavor)
		} else {
			p.Team = string(domain.StanceContra)
		}
	}
}

func (d *debate) begin() {
	d.s.current = 0
	if !d.s.players[0].IsActive {
		d.s.advanceTurn()
	}
	d.waitTurn()
}

func (d *debate) waitTurn() {
	s := d.s
	if len(d.playable(s.players[s.current])) == 0 {
		s.finish(domain.ReasonPoolExhausted, -1)
		return
	}
	s.setPhase(domain.PhaseWaiting)
	s.startTurn(s.limits.TurnSeconds)
	s.noteChange()
}

// playable returns the indexes of available cards for p's side.
func (d *debate) playable(p *domain.Player) []int {
	var out []int
	for i, c := range d.available {
		if string(c.Position) == p.Team {
			out = append(out, i)
		}
	}
	return out
}

func (d *debate) offer(p *domain.Player) []domain.Card {
	idx := d.playable(p)
	out := make([]domain.Card, 0, len(idx))
	for _, i := range idx {
		out = append(out, d.available[i])
	}
	return out
}

func (d *debate) playCard(playerID, cardID string) (Play, error) {
	s := d.s
	p, err := s.requireTurn(playerID, domain.PhaseWaiting)
	if err != nil {
		return Play{}, err
	}
	for _, i := range d.playable(p) {
		if d.available[i].ID == cardID {
			play := d.play(p, i, false)
			s.submit(p.ID, transport.PlayCard{CardID: cardID})
			return play, nil
		}
	}
	return Play{}, ErrCardUnavailable
}

// play removes the card from the pool for good.
func (d *debate) play(p *domain.Player, idx int, timedOut bool) Play {
	s := d.s
	card := d.available[idx]
	d.available = append(d.available[:idx:idx], d.available[idx+1:]...)

	points := scoring.Debate(card, timedOut)
	p.Score = scoring.Apply(p.Score, points)
	p.CardsPlayed++

	play := Play{PlayerID: p.ID, Card: card, Points: points, TimedOut: timedOut}
	d.last = &play

	s.setPhase(domain.PhaseResults)
	s.notePlay(play)
	s.noteChange()
	s.after(s.limits.ResultDelay, d.next)
	return play
}

func (d *debate) next() {
	s := d.s
	s.advanceTurn()
	if s.round > d.rounds {
		s.finish(domain.ReasonCompleted, -1)
		return
	}
	d.waitTurn()
}

// timeout auto-plays a random valid card at reduced points.
func (d *debate) timeout() {
	s := d.s
	p := s.players[s.current]
	idx := d.playable(p)
	if len(idx) == 0 {
		s.finish(domain.ReasonPoolExhausted, -1)
		return
	}
	d.play(p, idx[s.rnd.IntN(len(idx))], true)
}

func (d *debate) fill(snap *domain.Snapshot) {
	snap.TotalRounds = d.rounds
	snap.AvailableCards = len(d.available)
	if d.s.phase == domain.PhaseWaiting && len(d.s.players) > 0 {
		snap.Offer = d.offer(d.s.players[d.s.current])
	}
	if d.last != nil {
		c := d.last.Card
		snap.LastCard = &c
	}
}

func (d *debate) totalRounds() int {
	if d.s.round > d.rounds {
		return d.rounds
	}
	return d.s.round
}
