package domain

import "errors"

var (
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidRate         = errors.New("invalid production rate")
	ErrInvalidCost         = errors.New("invalid daily cost")
	ErrInvalidLength       = errors.New("invalid production length")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrInvalidRateFraction = errors.New("invalid cost rate fraction")
	ErrInvalidUnitCount    = errors.New("invalid unit count")
	ErrUnknownActivity     = errors.New("unknown activity")
	ErrUnknownEquipment    = errors.New("unknown equipment option")
	ErrEmptySchedule       = errors.New("schedule requires at least one activity")
	ErrInvalidMode         = errors.New("invalid game mode")
	ErrInvalidRound        = errors.New("invalid round")
	ErrDayOutOfRange       = errors.New("day out of range")
	ErrHorizonExceeded     = errors.New("progress horizon exceeds limit")
)
