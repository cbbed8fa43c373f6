package psi

import "errors"

var (
	ErrInvalidConfig   = errors.New("psi: invalid configuration")
	ErrGridMismatch    = errors.New("psi: snapshot grid does not match estimator grid")
	ErrCorruptSnapshot = errors.New("psi: corrupt snapshot")
	ErrNoSnapshot      = errors.New("psi: no snapshot stored for label")
	ErrInvalidLabel    = errors.New("psi: invalid condition label")
)
