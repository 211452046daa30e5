package policy_test

import (
	"context"
	"testing"

	"github.com/diewo77/go-billing/gate"
	"github.com/diewo77/go-billing/internal/policy"
)

// mockOwnable is a test resource that implements Ownable.
type mockOwnable struct {
	userID string
}

func (m *mockOwnable) GetUserID() string {
	return m.userID
}

// mockNonOwnable is a test resource that does NOT implement Ownable.
type mockNonOwnable struct {
	ID string
}

func TestOwnershipPolicy_NilResource(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()

	if !p.Can(ctx, "u1", gate.ActionList, nil) {
		t.Error("Expected Can to return true for nil resource")
	}
	if !p.Can(ctx, "u1", gate.ActionCreate, nil) {
		t.Error("Expected Can to return true for nil resource on create")
	}
}

func TestOwnershipPolicy_OwnerCanAccess(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	resource := &mockOwnable{userID: "u42"}

	for _, action := range []gate.Action{gate.ActionView, gate.ActionUpdate, gate.ActionConvert, gate.ActionTransition} {
		if !p.Can(ctx, "u42", action, resource) {
			t.Errorf("Expected owner to have %s access", action)
		}
	}
}

func TestOwnershipPolicy_NonOwnerDenied(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	resource := &mockOwnable{userID: "u42"}

	if p.Can(ctx, "u99", gate.ActionView, resource) {
		t.Error("Expected non-owner to be denied")
	}
	if p.Can(ctx, "u99", gate.ActionSend, resource) {
		t.Error("Expected non-owner to be denied for send")
	}
}

func TestOwnershipPolicy_OrphanDenied(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	if p.Can(context.Background(), "", gate.ActionView, &mockOwnable{}) {
		t.Error("Expected resource without owner to be denied")
	}
}

func TestOwnershipPolicy_NonOwnableResource(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	ctx := context.Background()
	resource := &mockNonOwnable{ID: "1"}

	if p.Can(ctx, "u1", gate.ActionView, resource) {
		t.Error("Expected non-Ownable resource to be denied")
	}
}
