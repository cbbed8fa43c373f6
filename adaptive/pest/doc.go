// Package pest implements Parameter Estimation by Sequential Testing.
//
// Trials stay at one level until a Wald-style deviation test decides that
// the observed number of correct responses departs from the target
// proportion by more than the deviation limit W. The level then moves, with
// the step size governed by the classic rules: halve on every reversal, keep
// the second step in one direction, double the fourth and later steps, and
// double the third unless the step that led to the last reversal was itself
// a doubling. The track ends when the step falls below MinStep.
package pest
