// Package scoring holds the point rules of the three mini-games. Everything
// here is a pure function; the session applies the results.
package scoring

import "edu_arcade/internal/domain"

const (
	TriviaBasePoints     = 100
	TriviaSecondBonus    = 2
	TriviaStreakBonus    = 10
	BoardCorrectPoints   = 10
	BoardFallbackSteps   = 1
	DebateTimeoutDivisor = 2
)

// Trivia returns the points for one answer. streak is the number of
// consecutive correct answers before this one.
func Trivia(correct bool, elapsed, limit, streak int) int {
	if !correct {
		return 0
	}
	timeBonus := (limit - elapsed) * TriviaSecondBonus
	if timeBonus < 0 {
		timeBonus = 0
	}
	if streak < 0 {
		streak = 0
	}
	return TriviaBasePoints + timeBonus + streak*TriviaStreakBonus
}

// NextStreak returns the streak after an answer.
func NextStreak(correct bool, streak int) int {
	if !correct {
		return 0
	}
	return streak + 1
}

// Move - how far a board race answer takes the player and what it earns
type Move struct {
	Steps  int
	Points int
}

// BoardRace resolves an answer given the dice roll. Incorrect answers and
// timeouts still advance a single square.
func BoardRace(correct bool, roll int) Move {
	if !correct || roll < BoardFallbackSteps {
		return Move{Steps: BoardFallbackSteps}
	}
	return Move{Steps: roll, Points: BoardCorrectPoints}
}

// Advance moves position by steps without passing the finish square.
func Advance(position, steps, size int) int {
	next := position + steps
	if next > size {
		next = size
	}
	if next < 0 {
		next = 0
	}
	return next
}

// SquareDelta is the fixed effect of landing on sq.
func SquareDelta(sq domain.Square) int {
	switch sq.Type {
	case domain.SquareBonus, domain.SquarePenalty:
		return sq.Points
	default:
		return 0
	}
}

// Debate returns the points for playing card; auto-played cards earn half,
// rounded down.
func Debate(card domain.Card, timedOut bool) int {
	if timedOut {
		return card.Points / DebateTimeoutDivisor
	}
	return card.Points
}

// Apply adds delta to score. Scores never drop below zero.
func Apply(score, delta int) int {
	if score+delta < 0 {
		return 0
	}
	return score + delta
}

// TeamScores sums member scores per team. Players without a team are skipped.
func TeamScores(players []domain.Player) map[string]int {
	out := make(map[string]int)
	for _, p := range players {
		if p.Team == "" {
			continue
		}
		out[p.Team] += p.Score
	}
	return out
}

// WinningTeam returns the team with the strictly highest total, or "" on a tie.
func WinningTeam(totals map[string]int) string {
	best, bestScore, tie := "", 0, false
	for team, score := range totals {
		switch {
		case best == "" || score > bestScore:
			best, bestScore, tie = team, score, false
		case score == bestScore:
			tie = true
		}
	}
	if tie {
		return ""
	}
	return best
}

// Leader returns the index of the highest scorer; ties go to the earlier
// seat. -1 for an empty roster.
func Leader(players []domain.Player) int {
	idx := -1
	for i, p := range players {
		if idx == -1 || p.Score > players[idx].Score {
			idx = i
		}
	}
	return idx
}

// Furthest returns the index of the player closest to the finish, then by
// score, then by seat.
func Furthest(players []domain.Player) int {
	idx := -1
	for i, p := range players {
		if idx == -1 {
			idx = i
			continue
		}
		best := players[idx]
		if p.Position > best.Position || (p.Position == best.Position && p.Score > best.Score) {
			idx = i
		}
	}
	return idx
}
