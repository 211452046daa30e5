package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// QuotationStatus represents the status of a quotation.
type QuotationStatus string

const (
	QuotationStatusDraft    QuotationStatus = "draft"
	QuotationStatusSent     QuotationStatus = "sent"
	QuotationStatusAccepted QuotationStatus = "accepted"
	QuotationStatusRejected QuotationStatus = "rejected"
)

// QuotationStatuses lists every known quotation status.
var QuotationStatuses = []QuotationStatus{
	QuotationStatusDraft,
	QuotationStatusSent,
	QuotationStatusAccepted,
	QuotationStatusRejected,
}

// ParseQuotationStatus returns the status matching s, or an error for unknown values.
func ParseQuotationStatus(s string) (QuotationStatus, error) {
	for _, st := range QuotationStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown quotation status %q", s)
}

var hundred = decimal.NewFromInt(100)

// Quotation is a priced offer made by a user to a client.
// Implements the Ownable interface for ownership-based authorization.
type Quotation struct {
	ID      string          `json:"id"`
	Version int             `json:"version"`
	Lines   []Line          `json:"lines"`
	Status  QuotationStatus `json:"status"`
	Client  ClientInfo      `json:"client"`
	Date    time.Time       `json:"date"`
	TaxRate decimal.Decimal `json:"tax_rate"`
	UserID  string          `json:"user_id"`
}

// GetUserID implements the Ownable interface for authorization.
func (q Quotation) GetUserID() string {
	return q.UserID
}

// TotalWithoutTaxes is the sum of the line totals.
func (q Quotation) TotalWithoutTaxes() decimal.Decimal {
	return SumLines(q.Lines)
}

// TotalWithTaxes applies the flat tax rate: total * (1 + taxRate/100).
func (q Quotation) TotalWithTaxes() decimal.Decimal {
	return q.TotalWithoutTaxes().Mul(decimal.NewFromInt(1).Add(q.TaxRate.Div(hundred)))
}

// Valid reports whether the quotation has at least one line.
func (q Quotation) Valid() bool {
	return len(q.Lines) > 0
}

// WithStatus returns a copy of q carrying the given status and a bumped version.
// Quotations have no transition table: any known status may be assigned.
func (q Quotation) WithStatus(status QuotationStatus) Quotation {
	next := q
	next.Lines = copyLines(q.Lines)
	next.Status = status
	next.Version++
	return next
}

// WithClient returns a copy of q whose snapshot is replaced by c.
func (q Quotation) WithClient(c ClientInfo) Quotation {
	next := q
	next.Lines = copyLines(q.Lines)
	next.Client = c
	return next
}
