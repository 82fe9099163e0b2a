// Package workflow describes the units of computational work that the
// dispatcher ranks. A Type is an immutable description (name, dependencies,
// produced properties); an Instance pairs a type with the identifier of the
// material it would run on.
package workflow
