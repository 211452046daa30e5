// Package policy puts authorization in front of the billing use cases.
package policy

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-billing/auth"
	"github.com/diewo77/go-billing/gate"
	"github.com/diewo77/go-billing/internal/models"
	"github.com/diewo77/go-billing/internal/services"
	"github.com/diewo77/go-billing/internal/store"
)

// Resource type names registered on the gate.
const (
	ResourceQuotation = "quotation"
	ResourceInvoice   = "invoice"
	ResourceClient    = "client"
)

// ClientBook is the client persistence used by the guard.
type ClientBook interface {
	services.ClientBook
	FindByUser(ctx context.Context, userID string) ([]models.Client, error)
}

// Backend groups what the guard protects and the lookups it needs to
// decide ownership.
type Backend struct {
	Quotations services.QuotationRepository
	Invoices   services.InvoiceRepository
	Clients    ClientBook

	QuotationService *services.QuotationService
	InvoiceService   *services.InvoiceService
	QueryService     *services.QueryService
}

// Guard decorates the use cases. Every call resolves the caller once,
// checks ownership of the addressed resource through the gate and runs the
// use case with the caller stored as acting user.
//
// Missing or unknown ids are passed through so the use case reports its own
// validation or not found failure.
type Guard struct {
	identities auth.IdentityProvider
	gate       *gate.Gate[string]
	b          Backend
}

func NewGuard(identities auth.IdentityProvider, b Backend) *Guard {
	g := gate.NewGate[string]()
	owner := NewOwnershipPolicy()
	g.Register(ResourceQuotation, owner)
	g.Register(ResourceInvoice, owner)
	g.Register(ResourceClient, owner)
	return &Guard{identities: identities, gate: g, b: b}
}

// Gate exposes the registry, mainly for tests and extra policies.
func (g *Guard) Gate() *gate.Gate[string] { return g.gate }

func (g *Guard) actor(ctx context.Context) (context.Context, models.User, error) {
	id, err := g.identities.CurrentUser(ctx)
	if err != nil || id.ID == "" {
		return ctx, models.User{}, services.Unauthenticated()
	}
	u := id.User()
	return services.WithActor(ctx, u), u, nil
}

func (g *Guard) authorize(ctx context.Context, u models.User, action gate.Action, resourceType string, resource any, hidden string) error {
	err := g.gate.Authorize(ctx, u.ID, action, resourceType, resource)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gate.ErrUnauthenticated):
		return services.Unauthenticated()
	default:
		return services.Unauthorized(hidden, err)
	}
}

func (g *Guard) quotation(ctx context.Context, u models.User, action gate.Action, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	q, err := g.b.Quotations.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return services.AsFailure(err)
	}
	return g.authorize(ctx, u, action, ResourceQuotation, q, "Quotation not found")
}

// ownedInvoice carries the owner of the quotation an invoice comes from.
type ownedInvoice struct {
	models.Invoice
	owner string
}

func (o ownedInvoice) GetUserID() string { return o.owner }

func (g *Guard) invoice(ctx context.Context, u models.User, action gate.Action, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	inv, err := g.b.Invoices.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return services.AsFailure(err)
	}
	owned := ownedInvoice{Invoice: inv}
	q, err := g.b.Quotations.FindByID(ctx, inv.QuotationID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return services.AsFailure(err)
	}
	if err == nil {
		owned.owner = q.UserID
	}
	return g.authorize(ctx, u, action, ResourceInvoice, owned, "Invoice not found")
}

func (g *Guard) CreateQuotation(ctx context.Context, in services.CreateQuotationInput) (models.Quotation, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return models.Quotation{}, err
	}
	if err := g.authorize(ctx, u, gate.ActionCreate, ResourceQuotation, nil, "Quotation not found"); err != nil {
		return models.Quotation{}, err
	}
	return g.b.QuotationService.CreateQuotation(ctx, u.ID, in)
}

func (g *Guard) UpdateQuotationStatus(ctx context.Context, id, status string) (models.Quotation, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return models.Quotation{}, err
	}
	if err := g.quotation(ctx, u, gate.ActionUpdate, id); err != nil {
		return models.Quotation{}, err
	}
	return g.b.QuotationService.UpdateQuotationStatus(ctx, id, status)
}

func (g *Guard) GetQuotationByID(ctx context.Context, id string) (models.Quotation, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return models.Quotation{}, err
	}
	if err := g.quotation(ctx, u, gate.ActionView, id); err != nil {
		return models.Quotation{}, err
	}
	return g.b.QuotationService.GetQuotationByID(ctx, id)
}

func (g *Guard) ListQuotations(ctx context.Context) ([]models.Quotation, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return nil, err
	}
	return g.b.QuotationService.ListQuotations(ctx, u.ID)
}

func (g *Guard) ListAcceptedQuotations(ctx context.Context) ([]services.AcceptedQuotation, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return nil, err
	}
	return g.b.QueryService.ListAcceptedQuotations(ctx, u.ID)
}

func (g *Guard) GenerateInvoice(ctx context.Context, in services.GenerateInvoiceInput) (models.Invoice, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return models.Invoice{}, err
	}
	if err := g.quotation(ctx, u, gate.ActionConvert, in.QuotationID); err != nil {
		return models.Invoice{}, err
	}
	return g.b.InvoiceService.GenerateInvoice(ctx, in)
}

func (g *Guard) CreateDraftInvoice(ctx context.Context, quotationID string) (models.Invoice, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return models.Invoice{}, err
	}
	if err := g.quotation(ctx, u, gate.ActionConvert, quotationID); err != nil {
		return models.Invoice{}, err
	}
	return g.b.InvoiceService.CreateDraftInvoice(ctx, quotationID)
}

func (g *Guard) UpdateInvoiceStatus(ctx context.Context, id, status string) (models.Invoice, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return models.Invoice{}, err
	}
	if err := g.invoice(ctx, u, gate.ActionTransition, id); err != nil {
		return models.Invoice{}, err
	}
	return g.b.InvoiceService.UpdateInvoiceStatus(ctx, id, status)
}

func (g *Guard) SendInvoice(ctx context.Context, id string) (models.Invoice, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return models.Invoice{}, err
	}
	if err := g.invoice(ctx, u, gate.ActionSend, id); err != nil {
		return models.Invoice{}, err
	}
	return g.b.InvoiceService.SendInvoice(ctx, id)
}

func (g *Guard) GetInvoiceByID(ctx context.Context, id string) (models.Invoice, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return models.Invoice{}, err
	}
	if err := g.invoice(ctx, u, gate.ActionView, id); err != nil {
		return models.Invoice{}, err
	}
	return g.b.InvoiceService.GetInvoiceByID(ctx, id)
}

func (g *Guard) ListInvoices(ctx context.Context) ([]models.Invoice, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return nil, err
	}
	return g.b.InvoiceService.ListInvoices(ctx, u.ID)
}

func (g *Guard) ListOverdueInvoices(ctx context.Context) ([]models.Invoice, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return nil, err
	}
	return g.b.InvoiceService.ListOverdueInvoices(ctx, u.ID)
}

// CreateClient adds an entry to the caller's client book.
func (g *Guard) CreateClient(ctx context.Context, info models.ClientInfo) (models.Client, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return models.Client{}, err
	}
	if err := g.authorize(ctx, u, gate.ActionCreate, ResourceClient, nil, "Client not found"); err != nil {
		return models.Client{}, err
	}
	info.ID = ""
	c, err := g.b.Clients.Create(ctx, models.Client{ClientInfo: info, UserID: u.ID})
	if err != nil {
		return models.Client{}, services.AsFailure(err)
	}
	return c, nil
}

func (g *Guard) ListClients(ctx context.Context) ([]models.Client, error) {
	ctx, u, err := g.actor(ctx)
	if err != nil {
		return nil, err
	}
	cs, err := g.b.Clients.FindByUser(ctx, u.ID)
	if err != nil {
		return nil, services.AsFailure(err)
	}
	return cs, nil
}
