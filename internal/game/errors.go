package game

import "errors"

var (
	ErrRosterEmpty     = errors.New("roster is empty")
	ErrNotStarted      = errors.New("session not started")
	ErrFinished        = errors.New("session finished")
	ErrClosed          = errors.New("session closed")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrWrongPhase      = errors.New("action not allowed in this phase")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrAlreadyAnswered = errors.New("already answered")
	ErrInvalidAnswer   = errors.New("invalid answer index")
	ErrCardUnavailable = errors.New("card unavailable")
	ErrUnsupported     = errors.New("not supported by this game")
	ErrEmptyPool       = errors.New("content pool is empty")
	ErrUnknownKind     = errors.New("unknown game kind")
)
