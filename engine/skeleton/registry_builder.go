package skeleton

// RegistryBuilderOption is a functional option for configuring a Registry via NewRegistry.
type RegistryBuilderOption func(*Registry)

// WithRegistryLimits is an option builder that overrides the capacities the registry enforces.
//
// Parameters:
//   - limits: the capacities to enforce
//
// Returns:
//   - RegistryBuilderOption: a function that applies the limits to a registry
func WithRegistryLimits(limits Limits) RegistryBuilderOption {
	return func(r *Registry) {
		r.limits = limits
	}
}
