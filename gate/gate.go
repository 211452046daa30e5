// Package gate is a small Gate/Policy authorization registry.
// A Gate maps resource type names ("quotation", "invoice") to a Policy that
// decides whether a subject may perform an action on a given resource.
// The package knows nothing about billing models.
//
// Subjects are generic so the same registry works for user ids, claims or
// full user values: Gate[string] is used with uuid user ids.
package gate

import (
	"context"
	"fmt"
	"sync"
)

// Gate is the central authorization checkpoint.
// U must be comparable so the zero value can stand for "no subject".
type Gate[U comparable] struct {
	mu       sync.RWMutex
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds the policy for resourceType, replacing any previous one.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.policies[resourceType] = p
}

// Registered reports whether resourceType has a policy.
func (g *Gate[U]) Registered(resourceType string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.policies[resourceType]
	return ok
}

// Authorize returns nil when subject may perform action on resource.
// A zero subject yields ErrUnauthenticated, an unknown resource type
// ErrNoPolicyDefined, and a denial an error wrapping ErrUnauthorized.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, resourceType string, resource any) error {
	var zero U
	if subject == zero {
		return ErrUnauthenticated
	}
	g.mu.RLock()
	p, ok := g.policies[resourceType]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPolicyDefined, resourceType)
	}
	if !p.Can(ctx, subject, action, resource) {
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, action, resourceType)
	}
	return nil
}

// Can is Authorize as a bool.
func (g *Gate[U]) Can(ctx context.Context, subject U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, subject, action, resourceType, resource) == nil
}
