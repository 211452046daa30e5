package policy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-billing/auth"
	"github.com/diewo77/go-billing/auth/mocks"
	"github.com/diewo77/go-billing/internal/models"
	"github.com/diewo77/go-billing/internal/policy"
	"github.com/diewo77/go-billing/internal/services"
	"github.com/diewo77/go-billing/internal/store"
	"github.com/diewo77/go-billing/internal/store/storetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	alice = auth.Identity{ID: "alice", Email: "alice@example.com", FirstName: "Alice"}
	bob   = auth.Identity{ID: "bob", Email: "bob@example.com", FirstName: "Bob"}
)

func newGuard(t *testing.T, ids auth.IdentityProvider) *policy.Guard {
	t.Helper()
	db := storetest.NewDB(t)
	quotations := store.NewQuotationStore(db)
	invoices := store.NewInvoiceStore(db)
	clients := store.NewClientStore(db)
	clock := services.WithClock(func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) })
	return policy.NewGuard(ids, policy.Backend{
		Quotations:       quotations,
		Invoices:         invoices,
		Clients:          clients,
		QuotationService: services.NewQuotationService(quotations, clients, clock),
		InvoiceService:   services.NewInvoiceService(quotations, invoices, clock),
		QueryService:     services.NewQueryService(quotations, invoices),
	})
}

func as(id auth.Identity) context.Context {
	return auth.WithIdentity(context.Background(), id)
}

// acceptedQuotation creates a client and an accepted quotation owned by id.
func acceptedQuotation(t *testing.T, g *policy.Guard, id auth.Identity) models.Quotation {
	t.Helper()
	ctx := as(id)
	c, err := g.CreateClient(ctx, models.ClientInfo{Firstname: "Ada", Lastname: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	q, err := g.CreateQuotation(ctx, services.CreateQuotationInput{
		ClientID: c.ID,
		Lines:    []services.LineInput{{ProductName: "Audit", Quantity: 1, UnitPrice: decimal.NewFromInt(2500)}},
		TaxRate:  decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	q, err = g.UpdateQuotationStatus(ctx, q.ID, "accepted")
	require.NoError(t, err)
	return q
}

func TestGuard_Unauthenticated(t *testing.T) {
	g := newGuard(t, auth.ContextProvider{})

	_, err := g.ListQuotations(context.Background())
	require.Equal(t, services.KindUnauthenticated, services.KindOf(err))

	_, err = g.CreateDraftInvoice(context.Background(), "q1")
	require.Equal(t, services.KindUnauthenticated, services.KindOf(err))
}

func TestGuard_ProviderError(t *testing.T) {
	ctrl := gomock.NewController(t)
	ids := mocks.NewMockIdentityProvider(ctrl)
	ids.EXPECT().CurrentUser(gomock.Any()).Return(auth.Identity{}, errors.New("token expired"))

	g := newGuard(t, ids)
	_, err := g.ListInvoices(context.Background())
	require.Equal(t, services.KindUnauthenticated, services.KindOf(err))
}

func TestGuard_OwnerFlow(t *testing.T) {
	g := newGuard(t, auth.ContextProvider{})
	q := acceptedQuotation(t, g, alice)
	ctx := as(alice)

	inv, err := g.CreateDraftInvoice(ctx, q.ID)
	require.NoError(t, err)

	got, err := g.GetInvoiceByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)

	sent, err := g.UpdateInvoiceStatus(ctx, inv.ID, "sent")
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusSent, sent.Status)

	accepted, err := g.ListAcceptedQuotations(ctx)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.True(t, accepted[0].HasInvoice)

	clients, err := g.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
}

func TestGuard_OtherUserSeesNotFound(t *testing.T) {
	g := newGuard(t, auth.ContextProvider{})
	q := acceptedQuotation(t, g, alice)
	inv, err := g.CreateDraftInvoice(as(alice), q.ID)
	require.NoError(t, err)

	ctx := as(bob)
	_, err = g.GetQuotationByID(ctx, q.ID)
	f := services.AsFailure(err)
	require.Equal(t, services.KindUnauthorized, f.Kind)
	require.Equal(t, "Quotation not found", f.Message)

	_, err = g.UpdateQuotationStatus(ctx, q.ID, "rejected")
	require.Equal(t, services.KindUnauthorized, services.KindOf(err))

	_, err = g.GetInvoiceByID(ctx, inv.ID)
	f = services.AsFailure(err)
	require.Equal(t, services.KindUnauthorized, f.Kind)
	require.Equal(t, "Invoice not found", f.Message)

	_, err = g.UpdateInvoiceStatus(ctx, inv.ID, "cancelled")
	require.Equal(t, services.KindUnauthorized, services.KindOf(err))

	// nothing changed for the owner
	still, err := g.GetInvoiceByID(as(alice), inv.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusDraft, still.Status)

	mine, err := g.ListInvoices(ctx)
	require.NoError(t, err)
	require.Empty(t, mine)
}

func TestGuard_MissingIDsReachUseCase(t *testing.T) {
	g := newGuard(t, auth.ContextProvider{})
	ctx := as(alice)

	_, err := g.GetInvoiceByID(ctx, "missing")
	require.Equal(t, services.KindNotFound, services.KindOf(err))

	_, err = g.GenerateInvoice(ctx, services.GenerateInvoiceInput{})
	require.Equal(t, services.KindValidation, services.KindOf(err))
}
