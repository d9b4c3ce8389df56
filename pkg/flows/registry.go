package flows

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds a flow bound to api.
type Constructor func(api API, options ...Option) *Flow

// Registry stores flow constructors by name, providing discovery and
// duplication safeguards.
type Registry struct {
	mu    sync.RWMutex
	flows map[string]Constructor
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		flows: make(map[string]Constructor),
	}
}

// DefaultRegistry holds the built-in flows.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NameAppPipeline, AppPipeline)
	r.MustRegister(NameEC2, EC2)
	r.MustRegister(NameEKS, EKS)
	r.MustRegister(NameS3, S3)
	r.MustRegister(NameSyslog, Syslog)
	return r
}

// Register adds a constructor under name. Duplicate names return an error.
func (r *Registry) Register(name string, ctor Constructor) error {
	if ctor == nil {
		return fmt.Errorf("flows: constructor is required")
	}
	if name == "" {
		return fmt.Errorf("flows: flow name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.flows[name]; exists {
		return fmt.Errorf("flows: flow %q already registered", name)
	}
	r.flows[name] = ctor
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(name string, ctor Constructor) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// Get retrieves a constructor by name.
func (r *Registry) Get(name string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctor, ok := r.flows[name]
	if !ok {
		return nil, fmt.Errorf("flows: flow %q not found", name)
	}
	return ctor, nil
}

// New builds the flow registered under name.
func (r *Registry) New(name string, api API, options ...Option) (*Flow, error) {
	ctor, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return ctor(api, options...), nil
}

// List returns the sorted flow names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.flows))
	for name := range r.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a flow is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.flows[name]
	return ok
}
