// Package loop provides the data model for magnetometer hysteresis loops.
//
// A measured M-H trace is a time-ordered sequence of (H, M) samples. The
// package splits a trace into its two sweep directions and removes the
// instrumental field offset:
//
//   - [Trace]: raw samples in measurement order
//   - [Branch]: samples of one sweep direction ([Up] or [Down])
//   - [Loop]: the up and down branches of one measurement axis
//   - [Sample]: a physical sample holding an easy-axis and a hard-axis loop
//
// # Example
//
//	tr := loop.Trace{{H: -10, M: -1}, {H: 0, M: 0}, {H: 10, M: 1}, {H: 0, M: 0.2}, {H: -10, M: -1}}
//	l, err := loop.Split(tr)
//	if err != nil {
//	    // not enough samples in one sweep direction
//	}
//	centered, err := loop.Center(l)
//
// Branches are never mutated after a split; Center and Negate return copies.
package loop
