// Package staircase implements classical up/down adaptive tracks.
//
// Included rules:
//   - RuleTransformed: n-down/m-up transformed staircase.
//   - RuleWeighted: up/down with unequal step sizes so the track converges on
//     an arbitrary percent-correct point.
//   - RuleLimited: transformed staircase with level bounds; a move blocked by a
//     bound counts as a turnpoint.
//   - RuleHybrid: transformed staircase that switches to constant stimuli once
//     the level reaches a limit.
//
// Each track is a value ([Track]) advanced by the pure function [Step]. A
// [Controller] owns one track; a [Scheduler] interleaves several controllers
// with a bound on consecutive trials per track.
package staircase
