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
)

// maxNumberAttempts bounds retries of auto-numbered saves racing on the same number.
const maxNumberAttempts = 5

// InvoiceService holds the invoice use cases.
type InvoiceService struct {
	quotations QuotationRepository
	invoices   InvoiceRepository
	opts       options
}

func NewInvoiceService(quotations QuotationRepository, invoices InvoiceRepository, opts ...Option) *InvoiceService {
	return &InvoiceService{quotations: quotations, invoices: invoices, opts: buildOptions(opts)}
}

// GenerateInvoiceInput requests the conversion of a quotation. A nil
// InvoiceNumber lets the store pick the next number of the month.
type GenerateInvoiceInput struct {
	QuotationID   string    `json:"quotation_id"`
	DueDate       time.Time `json:"due_date"`
	InvoiceNumber *string   `json:"invoice_number,omitempty"`
}

func (s *InvoiceService) validateGenerate(in GenerateInvoiceInput) []string {
	var msgs []string
	if strings.TrimSpace(in.QuotationID) == "" {
		msgs = append(msgs, "Quotation ID is required")
	}
	if in.DueDate.IsZero() {
		msgs = append(msgs, "Due date is required")
	} else if !in.DueDate.After(s.opts.now()) {
		msgs = append(msgs, "Due date must be in the future")
	}
	if in.InvoiceNumber != nil && strings.TrimSpace(*in.InvoiceNumber) == "" {
		msgs = append(msgs, "Invoice number cannot be empty")
	}
	return msgs
}

// GenerateInvoice converts an accepted quotation into a draft invoice.
// Checks run in order and the first failing one is reported.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, in GenerateInvoiceInput) (inv models.Invoice, err error) {
	start := time.Now()
	defer func() { metrics.ObserveConversion(string(KindOf(err)), time.Since(start)) }()

	if msgs := s.validateGenerate(in); len(msgs) > 0 {
		return models.Invoice{}, validationFailed(msgs...)
	}

	q, err := s.quotations.FindByID(ctx, in.QuotationID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Invoice{}, notFoundFailure("Quotation not found")
	}
	if err != nil {
		return models.Invoice{}, unexpected("Failed to load quotation", err)
	}

	if err := models.CheckEligibility(q); err != nil {
		return models.Invoice{}, ineligible(err)
	}

	if _, err := s.invoices.FindByQuotationID(ctx, q.ID); err == nil {
		return models.Invoice{}, duplicateInvoice()
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.Invoice{}, unexpected("Failed to check existing invoice", err)
	}

	if in.InvoiceNumber != nil {
		number := strings.TrimSpace(*in.InvoiceNumber)
		if _, err := s.invoices.FindByInvoiceNumber(ctx, number); err == nil {
			return models.Invoice{}, duplicateNumber()
		} else if !errors.Is(err, store.ErrNotFound) {
			return models.Invoice{}, unexpected("Failed to check invoice number", err)
		}
		inv, err = s.save(ctx, q, number, in.DueDate)
	} else {
		inv, err = s.saveNumbered(ctx, q, in.DueDate)
	}
	if err != nil {
		return models.Invoice{}, err
	}

	s.opts.events.Publish(ctx, events.Event{
		Type:          events.InvoiceGenerated,
		OccurredAt:    s.opts.now(),
		UserID:        q.UserID,
		QuotationID:   q.ID,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Status:        string(inv.Status),
	})
	slog.InfoContext(ctx, "invoice generated", "invoice_id", inv.ID, "invoice_number", inv.InvoiceNumber, "quotation_id", q.ID)
	return inv, nil
}

// saveNumbered picks the next free number and retries when a concurrent
// conversion takes it first.
func (s *InvoiceService) saveNumbered(ctx context.Context, q models.Quotation, dueDate time.Time) (models.Invoice, error) {
	for attempt := 1; ; attempt++ {
		number, err := s.invoices.GenerateUniqueInvoiceNumber(ctx, s.opts.now())
		if err != nil {
			return models.Invoice{}, unexpected("Failed to generate invoice number", err)
		}
		inv, err := s.save(ctx, q, number, dueDate)
		if KindOf(err) != KindDuplicateInvoiceNumber || attempt == maxNumberAttempts {
			return inv, err
		}
		slog.DebugContext(ctx, "invoice number taken, retrying", "invoice_number", number, "attempt", attempt)
	}
}

func (s *InvoiceService) save(ctx context.Context, q models.Quotation, number string, dueDate time.Time) (models.Invoice, error) {
	inv, err := models.GenerateFromQuotation(q, number, dueDate, s.opts.now())
	if err != nil {
		return models.Invoice{}, ineligible(err)
	}
	saved, err := s.invoices.Save(ctx, inv)
	switch {
	case err == nil:
		return saved, nil
	case errors.Is(err, store.ErrDuplicateInvoice):
		return models.Invoice{}, duplicateInvoice()
	case errors.Is(err, store.ErrDuplicateInvoiceNumber):
		return models.Invoice{}, duplicateNumber()
	default:
		return models.Invoice{}, unexpected("Failed to save invoice", err)
	}
}

// CreateDraftInvoice converts a quotation with the default payment term and
// an auto-generated number.
func (s *InvoiceService) CreateDraftInvoice(ctx context.Context, quotationID string) (models.Invoice, error) {
	return s.GenerateInvoice(ctx, GenerateInvoiceInput{
		QuotationID: quotationID,
		DueDate:     models.DefaultDueDate(s.opts.now()),
	})
}

// UpdateInvoiceStatus applies a lifecycle transition. Reaching "sent" mails
// a confirmation to the client; a mail failure does not undo the transition.
func (s *InvoiceService) UpdateInvoiceStatus(ctx context.Context, invoiceID, status string) (models.Invoice, error) {
	inv, from, err := s.transition(ctx, invoiceID, status)
	if err != nil {
		return models.Invoice{}, err
	}
	if inv.Status == models.InvoiceStatusSent {
		notifyClient(ctx, s.opts.notifier, inv.Client, inv.ID, notify.KindInvoice)
	}
	slog.InfoContext(ctx, "invoice status updated", "invoice_id", inv.ID, "from", from, "to", inv.Status)
	return inv, nil
}

// SendInvoice mails the confirmation for a draft invoice and then marks it
// sent. Nothing changes when the mail cannot be delivered.
func (s *InvoiceService) SendInvoice(ctx context.Context, invoiceID string) (models.Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return models.Invoice{}, validationFailed("Invoice ID is required")
	}
	inv, err := s.find(ctx, invoiceID)
	if err != nil {
		return models.Invoice{}, err
	}
	if !models.CanTransition(inv.Status, models.InvoiceStatusSent) {
		return models.Invoice{}, invalidTransition(&models.TransitionError{From: inv.Status, To: models.InvoiceStatusSent})
	}

	sender := ""
	if actor, ok := ActorFromContext(ctx); ok {
		sender = actor.DisplayName()
	}
	err = s.opts.notifier.Notify(ctx, notify.Notice{
		To:              inv.Client.Email,
		ClientFirstName: inv.Client.Firstname,
		DocumentID:      inv.ID,
		SenderName:      sender,
		Kind:            notify.KindInvoice,
	})
	if err != nil {
		metrics.IncNotification("error")
		return models.Invoice{}, unexpected("Failed to send invoice", err)
	}
	metrics.IncNotification("")

	sent, _, err := s.transition(ctx, invoiceID, string(models.InvoiceStatusSent))
	return sent, err
}

func (s *InvoiceService) transition(ctx context.Context, invoiceID, status string) (inv models.Invoice, from models.InvoiceStatus, err error) {
	defer func() {
		label := status
		if _, perr := models.ParseInvoiceStatus(status); perr != nil {
			label = ""
		}
		metrics.IncTransition(label, string(KindOf(err)))
	}()

	var msgs []string
	if strings.TrimSpace(invoiceID) == "" {
		msgs = append(msgs, "Invoice ID is required")
	}
	if status == "" {
		msgs = append(msgs, "New status is required")
	}
	to, perr := models.ParseInvoiceStatus(status)
	if perr != nil {
		msgs = append(msgs, "Invalid status value")
	}
	if len(msgs) > 0 {
		return models.Invoice{}, "", validationFailed(msgs...)
	}

	current, err := s.find(ctx, invoiceID)
	if err != nil {
		return models.Invoice{}, "", err
	}
	next, err := models.Transition(current, to, s.opts.now())
	if err != nil {
		return models.Invoice{}, current.Status, invalidTransition(err)
	}
	inv, err = s.invoices.Update(ctx, next)
	if errors.Is(err, store.ErrNotFound) {
		return models.Invoice{}, current.Status, notFoundFailure("Invoice not found")
	}
	if err != nil {
		return models.Invoice{}, current.Status, unexpected("Status update failed", err)
	}

	s.opts.events.Publish(ctx, events.Event{
		Type:          events.InvoiceStatusChanged,
		OccurredAt:    s.opts.now(),
		QuotationID:   inv.QuotationID,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		From:          string(current.Status),
		Status:        string(inv.Status),
	})
	return inv, current.Status, nil
}

func (s *InvoiceService) find(ctx context.Context, id string) (models.Invoice, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Invoice{}, notFoundFailure("Invoice not found")
	}
	if err != nil {
		return models.Invoice{}, unexpected("Failed to load invoice", err)
	}
	return inv, nil
}

// GetInvoiceByID returns one invoice.
func (s *InvoiceService) GetInvoiceByID(ctx context.Context, id string) (models.Invoice, error) {
	if strings.TrimSpace(id) == "" {
		return models.Invoice{}, validationFailed("Invoice ID is required")
	}
	return s.find(ctx, id)
}

// ListInvoices returns the invoices of userID's quotations.
func (s *InvoiceService) ListInvoices(ctx context.Context, userID string) ([]models.Invoice, error) {
	invs, err := s.invoices.FindByUser(ctx, userID)
	if err != nil {
		return nil, unexpected("Failed to list invoices", err)
	}
	return invs, nil
}

// ListOverdueInvoices returns userID's unpaid invoices past due, oldest due date first.
func (s *InvoiceService) ListOverdueInvoices(ctx context.Context, userID string) ([]models.Invoice, error) {
	invs, err := s.invoices.FindOverdueByUser(ctx, userID, s.opts.now())
	if err != nil {
		return nil, unexpected("Failed to list overdue invoices", err)
	}
	return invs, nil
}

func ineligible(err error) *Failure {
	msg := "Quotation is invalid"
	if errors.Is(err, models.ErrQuotationNotAccepted) {
		msg = "Only accepted quotations can generate invoices"
	}
	f := newFailure(KindIneligibleQuotation, msg)
	f.Err = err
	return f
}

func duplicateInvoice() *Failure {
	return newFailure(KindDuplicateInvoice, "Invoice already exists for this quotation")
}

func duplicateNumber() *Failure {
	return newFailure(KindDuplicateInvoiceNumber, "Invoice number already exists")
}

func invalidTransition(err error) *Failure {
	var te *models.TransitionError
	if !errors.As(err, &te) {
		return unexpected("Status update failed", err)
	}
	return &Failure{
		Kind:    KindInvalidTransition,
		Message: te.Error(),
		Errors:  []string{fmt.Sprintf("Cannot change status from %s to %s", te.From, te.To)},
		Err:     err,
	}
}
