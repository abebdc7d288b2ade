package metrics

// Option applies a configuration option to a Run.
type Option func(*Run)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(r *Run) {
		if ns != "" {
			r.namespace = ns
		}
	}
}
