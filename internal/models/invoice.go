package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// InvoiceStatuses lists every known invoice status.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
}

// ParseInvoiceStatus returns the status matching s, or an error for unknown values.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	for _, st := range InvoiceStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown invoice status %q", s)
}

// invoiceTransitions is the invoice state machine. Paid and cancelled are terminal.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:   {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:    {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to InvoiceStatus) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var (
	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrIneligibleQuotation is returned when a quotation cannot be converted.
	ErrIneligibleQuotation  = errors.New("quotation cannot be invoiced")
	ErrQuotationNotAccepted = fmt.Errorf("%w: status is not accepted", ErrIneligibleQuotation)
	ErrQuotationIncomplete  = fmt.Errorf("%w: missing client or lines", ErrIneligibleQuotation)
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	From InvoiceStatus
	To   InvoiceStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Invalid status transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// QuotationSnapshot is the part of the source quotation frozen into an invoice.
type QuotationSnapshot struct {
	ID      string          `json:"id"`
	Lines   []Line          `json:"lines"`
	TaxRate decimal.Decimal `json:"tax_rate"`
	Date    time.Time       `json:"date"`
}

// Invoice is a financial document derived from exactly one accepted quotation.
// Values are never mutated in place; Transition returns a new Invoice.
type Invoice struct {
	ID                string            `json:"id"`
	InvoiceNumber     string            `json:"invoice_number"`
	Status            InvoiceStatus     `json:"status"`
	Date              time.Time         `json:"date"`
	DueDate           time.Time         `json:"due_date"`
	QuotationID       string            `json:"quotation_id"`
	Quotation         QuotationSnapshot `json:"quotation"`
	Client            ClientInfo        `json:"client"`
	TotalExcludingTax decimal.Decimal   `json:"total_excluding_tax"`
	TotalIncludingTax decimal.Decimal   `json:"total_including_tax"`
	TaxRate           decimal.Decimal   `json:"tax_rate"`
	PaidDate          *time.Time        `json:"paid_date,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// TaxAmount returns totalExcludingTax * taxRate / 100.
func (i Invoice) TaxAmount() decimal.Decimal {
	return i.TotalExcludingTax.Mul(i.TaxRate).Div(hundred)
}

// IsOverdue reports whether the invoice is unpaid past its due date.
func (i Invoice) IsOverdue(now time.Time) bool {
	return i.Status != InvoiceStatusPaid && i.DueDate.Before(now)
}

// DaysUntilDue returns the whole days left before the due date, negative once passed.
func (i Invoice) DaysUntilDue(now time.Time) int {
	return int(math.Ceil(i.DueDate.Sub(now).Hours() / 24))
}

// Transition applies a status change and returns the resulting invoice.
// Moving to paid records the due date as the paid date.
func Transition(inv Invoice, to InvoiceStatus, now time.Time) (Invoice, error) {
	if !CanTransition(inv.Status, to) {
		return inv, &TransitionError{From: inv.Status, To: to}
	}
	next := inv
	next.Quotation.Lines = copyLines(inv.Quotation.Lines)
	next.Status = to
	next.UpdatedAt = now
	if to == InvoiceStatusPaid {
		paid := inv.DueDate
		next.PaidDate = &paid
	}
	return next, nil
}

// MarkAsPaid is Transition(inv, paid, now).
func MarkAsPaid(inv Invoice, now time.Time) (Invoice, error) {
	return Transition(inv, InvoiceStatusPaid, now)
}

// Cancel is Transition(inv, cancelled, now).
func Cancel(inv Invoice, now time.Time) (Invoice, error) {
	return Transition(inv, InvoiceStatusCancelled, now)
}

// DefaultPaymentTerm is the due delay used when none is given.
const DefaultPaymentTerm = 30 * 24 * time.Hour

// DefaultDueDate returns now + DefaultPaymentTerm.
func DefaultDueDate(now time.Time) time.Time {
	return now.Add(DefaultPaymentTerm)
}

// CheckEligibility returns nil when q may be converted into an invoice.
func CheckEligibility(q Quotation) error {
	if q.Status != QuotationStatusAccepted {
		return ErrQuotationNotAccepted
	}
	if !q.Valid() || q.Client.IsZero() {
		return ErrQuotationIncomplete
	}
	return nil
}

// GenerateFromQuotation builds a draft invoice from an accepted quotation.
func GenerateFromQuotation(q Quotation, number string, dueDate, now time.Time) (Invoice, error) {
	if err := CheckEligibility(q); err != nil {
		return Invoice{}, err
	}
	return Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: number,
		Status:        InvoiceStatusDraft,
		Date:          now,
		DueDate:       dueDate,
		QuotationID:   q.ID,
		Quotation: QuotationSnapshot{
			ID:      q.ID,
			Lines:   copyLines(q.Lines),
			TaxRate: q.TaxRate,
			Date:    q.Date,
		},
		Client:            q.Client,
		TotalExcludingTax: q.TotalWithoutTaxes(),
		TotalIncludingTax: q.TotalWithTaxes(),
		TaxRate:           q.TaxRate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
