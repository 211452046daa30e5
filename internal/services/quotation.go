package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/diewo77/go-billing/internal/events"
	"github.com/diewo77/go-billing/internal/metrics"
	"github.com/diewo77/go-billing/internal/models"
	"github.com/diewo77/go-billing/internal/notify"
	"github.com/diewo77/go-billing/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationService holds the quotation use cases.
type QuotationService struct {
	quotations QuotationRepository
	clients    ClientBook
	opts       options
}

func NewQuotationService(quotations QuotationRepository, clients ClientBook, opts ...Option) *QuotationService {
	return &QuotationService{quotations: quotations, clients: clients, opts: buildOptions(opts)}
}

// LineInput is a requested quotation line; TotalPrice is always computed.
type LineInput struct {
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
}

// CreateQuotationInput references an existing client by ClientID, or carries
// NewClient to register one in the owner's client book first.
type CreateQuotationInput struct {
	ClientID  string             `json:"client_id"`
	NewClient *models.ClientInfo `json:"new_client,omitempty"`
	Lines     []LineInput        `json:"lines"`
	TaxRate   decimal.Decimal    `json:"tax_rate"`
	Date      *time.Time         `json:"date,omitempty"`
}

func validateCreate(in CreateQuotationInput) []string {
	var msgs []string
	if strings.TrimSpace(in.ClientID) == "" && in.NewClient == nil {
		msgs = append(msgs, "Client ID is required")
	}
	if in.NewClient != nil && (strings.TrimSpace(in.NewClient.Firstname) == "" || strings.TrimSpace(in.NewClient.Lastname) == "") {
		msgs = append(msgs, "Client first name and last name are required")
	}
	if len(in.Lines) == 0 {
		msgs = append(msgs, "Quotation must have at least one line")
	}
	for i, l := range in.Lines {
		if strings.TrimSpace(l.ProductName) == "" {
			msgs = append(msgs, fmt.Sprintf("Line %d: product name is required", i+1))
		}
		if l.Quantity <= 0 {
			msgs = append(msgs, fmt.Sprintf("Line %d: quantity must be positive", i+1))
		}
		if l.UnitPrice.IsNegative() {
			msgs = append(msgs, fmt.Sprintf("Line %d: unit price cannot be negative", i+1))
		}
		if !l.UnitPrice.Equal(l.UnitPrice.Round(2)) {
			msgs = append(msgs, fmt.Sprintf("Line %d: unit price must have at most 2 decimal places", i+1))
		}
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(hundredPercent) {
		msgs = append(msgs, "Tax rate must be between 0 and 100")
	}
	return msgs
}

var hundredPercent = decimal.NewFromInt(100)

// CreateQuotation builds a draft quotation for userID. The client snapshot is copied
// from the client book at this point and never refreshed in storage.
func (s *QuotationService) CreateQuotation(ctx context.Context, userID string, in CreateQuotationInput) (q models.Quotation, err error) {
	defer func() { metrics.IncQuotation("create", string(KindOf(err))) }()

	if msgs := validateCreate(in); len(msgs) > 0 {
		return models.Quotation{}, validationFailed(msgs...)
	}

	lines := make([]models.Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		line, err := models.NewLine(l.ProductID, l.ProductName, l.ProductDescription, l.Quantity, l.UnitPrice)
		if err != nil {
			return models.Quotation{}, validationFailed(err.Error())
		}
		lines = append(lines, line)
	}

	// The inline client is registered last so a rejected request leaves
	// nothing behind.
	var client models.Client
	if in.NewClient != nil {
		client, err = s.clients.Create(ctx, models.Client{ClientInfo: *in.NewClient, UserID: userID})
		if err != nil {
			return models.Quotation{}, unexpected("Failed to create client", err)
		}
	} else {
		client, err = s.clients.FindByID(ctx, in.ClientID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && client.UserID != userID) {
			return models.Quotation{}, notFoundFailure("Client not found")
		}
		if err != nil {
			return models.Quotation{}, unexpected("Failed to load client", err)
		}
	}

	date := s.opts.now()
	if in.Date != nil {
		date = *in.Date
	}
	q, err = s.quotations.Save(ctx, models.Quotation{
		ID:      uuid.NewString(),
		Version: 1,
		Lines:   lines,
		Status:  models.QuotationStatusDraft,
		Client:  client.Info(),
		Date:    date,
		TaxRate: in.TaxRate,
		UserID:  userID,
	})
	if err != nil {
		if in.NewClient != nil {
			if derr := s.clients.Delete(ctx, client.ID); derr != nil {
				slog.WarnContext(ctx, "orphan client left behind", "client_id", client.ID, "error", derr)
			}
		}
		return models.Quotation{}, unexpected("Failed to create quotation", err)
	}

	s.opts.events.Publish(ctx, events.Event{
		Type:        events.QuotationCreated,
		OccurredAt:  s.opts.now(),
		UserID:      userID,
		QuotationID: q.ID,
		Status:      string(q.Status),
	})
	slog.InfoContext(ctx, "quotation created", "quotation_id", q.ID, "lines", len(q.Lines))
	return q, nil
}

// UpdateQuotationStatus assigns any of the four quotation statuses. Quotations have no
// transition table; only the value itself is validated. Reaching "sent"
// mails a confirmation to the client.
func (s *QuotationService) UpdateQuotationStatus(ctx context.Context, id, status string) (q models.Quotation, err error) {
	defer func() { metrics.IncQuotation("status", string(KindOf(err))) }()

	var msgs []string
	if strings.TrimSpace(id) == "" {
		msgs = append(msgs, "Quotation ID is required")
	}
	if status == "" {
		msgs = append(msgs, "New status is required")
	}
	next, perr := models.ParseQuotationStatus(status)
	if perr != nil {
		msgs = append(msgs, "Invalid status value")
	}
	if len(msgs) > 0 {
		return models.Quotation{}, validationFailed(msgs...)
	}

	current, err := s.quotations.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Quotation{}, notFoundFailure("Quotation not found")
	}
	if err != nil {
		return models.Quotation{}, unexpected("Failed to load quotation", err)
	}

	q, err = s.quotations.Update(ctx, current.WithStatus(next))
	if errors.Is(err, store.ErrNotFound) {
		return models.Quotation{}, notFoundFailure("Quotation not found")
	}
	if err != nil {
		return models.Quotation{}, unexpected("Status update failed", err)
	}

	s.opts.events.Publish(ctx, events.Event{
		Type:        events.QuotationStatusChanged,
		OccurredAt:  s.opts.now(),
		UserID:      q.UserID,
		QuotationID: q.ID,
		From:        string(current.Status),
		Status:      string(q.Status),
	})
	if next == models.QuotationStatusSent && current.Status != models.QuotationStatusSent {
		notifyClient(ctx, s.opts.notifier, q.Client, q.ID, notify.KindQuotation)
	}
	return q, nil
}

// GetQuotationByID returns the quotation with its client re-read from the client book.
// A quotation whose client has disappeared is reported as not found.
func (s *QuotationService) GetQuotationByID(ctx context.Context, id string) (models.Quotation, error) {
	if strings.TrimSpace(id) == "" {
		return models.Quotation{}, validationFailed("Quotation ID is required")
	}
	q, err := s.quotations.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Quotation{}, notFoundFailure("Quotation not found")
	}
	if err != nil {
		return models.Quotation{}, unexpected("Failed to load quotation", err)
	}
	client, err := s.clients.FindByID(ctx, q.Client.ID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Quotation{}, notFoundFailure("Client not found")
	}
	if err != nil {
		return models.Quotation{}, unexpected("Failed to load client", err)
	}
	return q.WithClient(client.Info()), nil
}

// ListQuotations returns every quotation owned by userID, newest first.
func (s *QuotationService) ListQuotations(ctx context.Context, userID string) ([]models.Quotation, error) {
	qs, err := s.quotations.FindByUser(ctx, userID)
	if err != nil {
		return nil, unexpected("Failed to list quotations", err)
	}
	return qs, nil
}

// notifyClient sends a confirmation signed by the acting user. Failures are
// logged and counted; the status change that triggered them stands.
func notifyClient(ctx context.Context, n Notifier, client models.ClientInfo, documentID string, kind notify.DocumentKind) {
	sender := ""
	if actor, ok := ActorFromContext(ctx); ok {
		sender = actor.DisplayName()
	}
	err := n.Notify(ctx, notify.Notice{
		To:              client.Email,
		ClientFirstName: client.Firstname,
		DocumentID:      documentID,
		SenderName:      sender,
		Kind:            kind,
	})
	if err != nil {
		metrics.IncNotification("error")
		slog.WarnContext(ctx, "confirmation notice failed", "kind", kind, "document_id", documentID, "error", err)
		return
	}
	metrics.IncNotification("")
}
