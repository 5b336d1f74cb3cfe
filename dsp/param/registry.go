package param

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownAddress is returned when no parameter is registered at an address.
var ErrUnknownAddress = errors.New("param: unknown address")

// Registry keeps parameters in registration order, indexed by address.
type Registry struct {
	mu     sync.RWMutex
	params map[Address]Parameter
	order  []Address
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{params: make(map[Address]Parameter)}
}

// Register adds parameters. A duplicate address is an error and leaves the
// registry unchanged.
func (r *Registry) Register(params ...Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[Address]bool, len(params))
	for _, p := range params {
		if p == nil {
			return errors.New("param: nil parameter")
		}
		addr := p.Address()
		if _, exists := r.params[addr]; exists || seen[addr] {
			return fmt.Errorf("param: duplicate address %d (%s)", addr, p.Name())
		}
		seen[addr] = true
	}

	for _, p := range params {
		r.params[p.Address()] = p
		r.order = append(r.order, p.Address())
	}

	return nil
}

// Get returns the parameter at addr.
func (r *Registry) Get(addr Address) (Parameter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.params[addr]
	return p, ok
}

// Len returns the number of registered parameters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// All returns the parameters in registration order.
func (r *Registry) All() []Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Parameter, len(r.order))
	for i, addr := range r.order {
		out[i] = r.params[addr]
	}
	return out
}

// SetValue stores a plain value on the parameter at addr.
func (r *Registry) SetValue(addr Address, value float64) error {
	p, ok := r.Get(addr)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAddress, addr)
	}
	p.SetValue(value)
	return nil
}

// Value returns the latest plain value of the parameter at addr.
func (r *Registry) Value(addr Address) (float64, error) {
	p, ok := r.Get(addr)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownAddress, addr)
	}
	return p.Value(), nil
}

// SetRampFrames applies a ramp length to every scalar parameter.
func (r *Registry) SetRampFrames(frames int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.params {
		if f, ok := p.(*Float); ok {
			f.SetRampFrames(frames)
		}
	}
}
