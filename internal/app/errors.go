package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidPlayerName = errors.New("invalid player name")
	ErrRoundLocked       = errors.New("round is locked")
	ErrInvalidRound      = errors.New("invalid round")
)
