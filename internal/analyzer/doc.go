// Package analyzer runs the full hysteresis-loop pipeline for one axis:
// split, center, estimate seeds, fit both branches, reconcile.
//
// Easy-axis analysis reports Ms, Hc, Mr and squareness; hard-axis analysis
// reports Ms and Hk. Hc, Ms and Hk come from the switching-model fit, Mr is
// always read off the centered data.
//
// # Thread Safety
//
// An [Analyzer] holds only immutable options and may be shared between
// goroutines. [Analyzer.AnalyzeSample] runs both axes concurrently and
// isolates their failures from each other.
package analyzer
