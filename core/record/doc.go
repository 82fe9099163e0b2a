// Package record defines the immutable document type read from a record
// store. Records are sparse: any property, including response properties used
// as ground truth, may be absent. Properties are addressed by dotted paths
// such as "elasticity.G_Voigt".
package record
