package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidLine is returned when a line has a non-positive quantity or a negative price.
var ErrInvalidLine = errors.New("invalid line")

// Line is one priced item of a quotation or invoice.
// TotalPrice is computed once by NewLine and never recomputed implicitly.
type Line struct {
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	ProductDescription string          `json:"product_description,omitempty"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	TotalPrice         decimal.Decimal `json:"total_price"`
}

// NewLine builds a line with TotalPrice = quantity * unitPrice.
func NewLine(productID, name, description string, quantity int, unitPrice decimal.Decimal) (Line, error) {
	if quantity <= 0 {
		return Line{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidLine, quantity)
	}
	if unitPrice.IsNegative() {
		return Line{}, fmt.Errorf("%w: unit price must not be negative, got %s", ErrInvalidLine, unitPrice)
	}
	return Line{
		ProductID:          productID,
		ProductName:        name,
		ProductDescription: description,
		Quantity:           quantity,
		UnitPrice:          unitPrice,
		TotalPrice:         unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// SumLines adds up the stored TotalPrice of every line.
func SumLines(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalPrice)
	}
	return total
}

func copyLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
