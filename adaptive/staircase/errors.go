package staircase

import "errors"

var (
	ErrInvalidConfig = errors.New("staircase: invalid configuration")
	ErrFinished      = errors.New("staircase: track already finished")
	ErrNoTracks      = errors.New("staircase: scheduler needs at least one track")
)
