package policy

import (
	"context"

	"github.com/diewo77/go-billing/gate"
)

// Ownable is an interface for resources that have an owner.
type Ownable interface {
	GetUserID() string
}

// OwnershipPolicy grants every action on a resource to its owner only.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can checks if the user owns the resource.
// For list/create actions (resource is nil) it returns true; those are
// scoped to the caller by the use cases themselves.
func (p *OwnershipPolicy) Can(_ context.Context, userID string, action gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		// resources without an owner are never reachable
		return false
	}
	return ownable.GetUserID() != "" && ownable.GetUserID() == userID
}
