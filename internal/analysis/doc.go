// Package analysis computes the listings and statistics served by the API
// over filtered indicator records.
//
// Conventions are pinned so results do not drift between releases:
//
//   - Standard deviation is the sample deviation (N-1 denominator).
//   - Percentiles interpolate linearly between closest ranks at h = (n-1)p,
//     the same rule numpy and pandas apply by default.
//   - Ties in rankings and listings keep the upstream row order.
//   - Rounding is half to even.
package analysis
