// Package objectives contains the objective plug-ins shipped with optimanage
// and the registry used to build them from configuration.
//
// Built-in types:
//   - regression: learns the first response property directly
//   - high_ductility: learns the Pugh ratio K_VRH/G_VRH, favouring ductile materials
//   - negative_poisson: learns the negated Poisson ratio, favouring auxetic materials
package objectives
