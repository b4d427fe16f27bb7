// Package estimate provides closed-form figures of merit read directly off
// a hysteresis loop's samples.
//
// The estimators are deliberately simple. Their results are reported as
// final answers where no fit is involved (remanence, squareness) and seed
// the switching-model fit otherwise:
//
//   - [Saturation]: mean |M| over the flat ends of both branches
//   - [Coercivity]: mean |H| at which M crosses zero
//   - [Remanence]: mean |M| at which H crosses zero
//   - [AnisotropyField]: Ms divided by the local slope around the crossing
package estimate
