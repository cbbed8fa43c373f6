// Package psychometric provides the psychometric function families used by
// the adaptive procedures.
//
// A psychometric function maps a stimulus intensity x to the probability of a
// correct (or "yes") response:
//
//	P(x) = gamma + (1 - gamma - lambda) * F(x; alpha, beta)
//
// where alpha is the threshold, beta the slope (spread) parameter, gamma the
// guess rate and lambda the lapse rate. Included families:
//   - Logistic: F = 1 / (1 + exp(-(x-alpha)/beta))
//   - Gaussian: F = Phi((x-alpha)/beta)
//   - Gumbel:   F = 1 - exp(-exp((x-alpha)/beta))
//   - Weibull:  F = 1 - exp(-(x/alpha)^beta), defined for x > 0
//
// All functions are pure and safe for concurrent use.
package psychometric
