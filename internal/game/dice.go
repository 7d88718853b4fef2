package game

import (
	"crypto/rand"
	"math/big"
)

const (
	DiceMin   = 1
	DiceSides = 6
)

// RollDie returns a fair roll of a six-sided die.
func RollDie() int {
	n, err := rand.Int(rand.Reader, big.NewInt(DiceSides))
	if err != nil {
		return DiceMin
	}
	return int(n.Int64()) + DiceMin
}

// clampRoll keeps injected dice within the faces of a real one.
func clampRoll(r int) int {
	if r < DiceMin {
		return DiceMin
	}
	if r > DiceSides {
		return DiceSides
	}
	return r
}
