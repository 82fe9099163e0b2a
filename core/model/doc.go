// Package model defines the regression capability consumed by objectives and
// provides gonum based implementations. The dispatcher never depends on a
// specific algorithm: anything satisfying Model can back an objective.
package model
