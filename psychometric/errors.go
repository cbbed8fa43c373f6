package psychometric

import "errors"

var (
	ErrInvalidSlope     = errors.New("psychometric: slope must be positive and finite")
	ErrInvalidGuess     = errors.New("psychometric: guess rate must be in [0, 1)")
	ErrInvalidLapse     = errors.New("psychometric: lapse rate must be in [0, 1)")
	ErrAsymptotes       = errors.New("psychometric: guess rate + lapse rate must be < 1")
	ErrInvalidThreshold = errors.New("psychometric: Weibull threshold must be positive")
	ErrUnknownFamily    = errors.New("psychometric: unknown function family")
	ErrTargetRange      = errors.New("psychometric: target probability outside (gamma, 1-lambda)")
)
