package formula

import (
	"sort"
	"strings"
)

// Function is the signature every formula function implements, built-in
// or host-registered. Arguments arrive already evaluated, in source
// order.
type Function func(args ...Value) (Value, error)

// Registry holds the functions one engine instance can call. Each
// engine owns its own registry, so registering a function on one engine
// never affects another.
type Registry struct {
	functions map[string]Function
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string]Function),
	}
}

// Register adds or overrides a function. Names are case-insensitive and
// stored upper-cased.
func (r *Registry) Register(name string, fn Function) {
	r.functions[strings.ToUpper(name)] = fn
}

// Lookup finds a function by name, case-insensitively
func (r *Registry) Lookup(name string) (Function, bool) {
	fn, ok := r.functions[strings.ToUpper(name)]
	return fn, ok
}

// Has reports whether a function name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.functions[strings.ToUpper(name)]
	return ok
}

// Names returns all registered function names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
