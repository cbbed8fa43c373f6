// Package psi implements the PSI method: a Bayesian adaptive procedure that
// keeps a discretized joint posterior over the threshold, slope, guess rate
// and lapse rate of a psychometric function and places each stimulus where
// the expected posterior entropy after the response is smallest.
//
// Setup builds one grid per parameter from an [Axis], forms the joint prior
// as the normalized outer product of the axis priors and precomputes the
// likelihood of a correct response for every stimulus level and grid point.
// Each [Estimator.Update] multiplies the posterior by the likelihood of the
// observed response, renormalizes it and selects the next stimulus.
//
// Two variants are supported: [VariantStandard] fixes the guess rate at
// 1/NAlternatives; [VariantGuessRate] estimates it on its own axis.
//
// The posterior can be saved with [Estimator.Snapshot] and restored in a
// later block with [Estimator.Restore]; [Store] implementations persist
// snapshots keyed by condition label.
//
// Elementwise grid arithmetic uses github.com/cwbudde/algo-vecmath.
package psi
