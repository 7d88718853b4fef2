package game

import (
	"math/rand/v2"

	"edu_arcade/internal/domain"
)

// SquareWeight is the chance of a square type on the track.
type SquareWeight struct {
	Type        domain.SquareType `json:"type"`
	Color       string            `json:"color"`
	Points      int               `json:"points"`
	Probability float64           `json:"probability"` // 0.0 - 1.0
}

const (
	startColor  = "#3498db"
	finishColor = "#f1c40f"
	minBoard    = 2
)

// DefaultSquareWeights returns the stock distribution of inner squares.
func DefaultSquareWeights() []SquareWeight {
	return []SquareWeight{
		{Type: domain.SquareNormal, Color: "#ecf0f1", Probability: 0.55},
		{Type: domain.SquareBonus, Color: "#2ecc71", Points: 15, Probability: 0.15},
		{Type: domain.SquareChallenge, Color: "#f39c12", Probability: 0.15},
		{Type: domain.SquarePenalty, Color: "#e74c3c", Points: -10, Probability: 0.15},
	}
}

// GenerateBoard builds a track of size+1 squares: 0 is the start, size the
// finish and every square in between is drawn from the default weights.
func GenerateBoard(size int, rnd *rand.Rand) []domain.Square {
	return GenerateBoardWith(size, rnd, DefaultSquareWeights())
}

func GenerateBoardWith(size int, rnd *rand.Rand, weights []SquareWeight) []domain.Square {
	if size < minBoard {
		size = minBoard
	}
	squares := make([]domain.Square, size+1)
	squares[0] = domain.Square{ID: 0, Type: domain.SquareStart, Color: startColor}
	squares[size] = domain.Square{ID: size, Type: domain.SquareFinish, Color: finishColor}
	for i := 1; i < size; i++ {
		w := pickSquare(weights, rnd.Float64())
		squares[i] = domain.Square{ID: i, Type: w.Type, Color: w.Color, Points: w.Points}
	}
	return squares
}

// pickSquare walks the cumulative distribution; anything past the last
// bucket falls into the last one.
func pickSquare(weights []SquareWeight, random float64) SquareWeight {
	if len(weights) == 0 {
		return SquareWeight{Type: domain.SquareNormal}
	}
	cumulative := 0.0
	for _, w := range weights {
		cumulative += w.Probability
		if random < cumulative {
			return w
		}
	}
	return weights[len(weights)-1]
}
