package workflow

// Built-in workflow types for materials datasets.
var (
	StructureOptimization = NewType("structure_optimization", nil,
		[]string{"structure", "final_energy", "volume", "density"})
	ElasticTensor = NewType("elastic_tensor", []string{"structure_optimization"},
		[]string{"elasticity.elastic_tensor", "elasticity.K_VRH", "elasticity.G_VRH", "elasticity.poisson_ratio"})
	BandStructure = NewType("band_structure", []string{"structure_optimization"},
		[]string{"band_gap"})
)

// DefaultRegistry returns a registry holding the built-in types.
func DefaultRegistry() *Registry {
	return NewRegistry(StructureOptimization, ElasticTensor, BandStructure)
}
