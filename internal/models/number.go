package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InvoiceNumberPrefix returns "FAC-YYYYMM-" for the month of t.
func InvoiceNumberPrefix(t time.Time) string {
	return fmt.Sprintf("FAC-%04d%02d-", t.Year(), int(t.Month()))
}

// FormatInvoiceNumber formats FAC-YYYYMM-NNNNNN.
func FormatInvoiceNumber(t time.Time, seq int) string {
	return fmt.Sprintf("%s%06d", InvoiceNumberPrefix(t), seq)
}

// NextInvoiceNumber returns the number following the highest suffix found among
// existing numbers of t's month. Numbers of other months or malformed ones are ignored.
func NextInvoiceNumber(t time.Time, existing []string) string {
	prefix := InvoiceNumberPrefix(t)
	highest := 0
	for _, n := range existing {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(n, prefix))
		if err != nil {
			continue
		}
		if seq > highest {
			highest = seq
		}
	}
	return FormatInvoiceNumber(t, highest+1)
}
