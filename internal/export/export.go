// Package export renders quotations and invoices as PDF documents and the
// invoice register as an XLSX workbook.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/diewo77/go-billing/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const dateLayout = "02/01/2006"

func money(d decimal.Decimal) string {
	return d.StringFixed(2) + " EUR"
}

type document struct {
	title   string
	ref     string
	date    time.Time
	dueDate *time.Time
	status  string
	client  models.ClientInfo
	lines   []models.Line
	taxRate decimal.Decimal
	total   decimal.Decimal
	gross   decimal.Decimal
}

func render(doc document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; client names and labels carry accents
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.title+" "+doc.ref, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(doc.title+" "+doc.ref))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr("Date : "+doc.date.Format(dateLayout)))
	pdf.Ln(5)
	if doc.dueDate != nil {
		pdf.Cell(0, 6, tr("Échéance : "+doc.dueDate.Format(dateLayout)))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, tr("Statut : "+doc.status))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, tr("Client"))
	pdf.Ln(5)
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{doc.client.DisplayName(), doc.client.Address, doc.client.Email, doc.client.Phone} {
		if line == "" {
			continue
		}
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(80, 6, tr("Désignation"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, tr("Qté"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Prix unitaire", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Total HT", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, l := range doc.lines {
		pdf.CellFormat(80, 6, tr(l.ProductName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", l.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, money(l.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, money(l.TotalPrice), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	tax := doc.gross.Sub(doc.total)
	for _, row := range [][2]string{
		{"Total HT", money(doc.total)},
		{"TVA " + doc.taxRate.String() + " %", money(tax)},
		{"Total TTC", money(doc.gross)},
	} {
		pdf.CellFormat(140, 6, tr(row[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, row[1], "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// QuotationPDF renders a quotation.
func QuotationPDF(q models.Quotation) ([]byte, error) {
	return render(document{
		title:   "Devis",
		ref:     q.ID,
		date:    q.Date,
		status:  string(q.Status),
		client:  q.Client,
		lines:   q.Lines,
		taxRate: q.TaxRate,
		total:   q.TotalWithoutTaxes(),
		gross:   q.TotalWithTaxes(),
	})
}

// InvoicePDF renders an invoice from its frozen snapshot.
func InvoicePDF(inv models.Invoice) ([]byte, error) {
	due := inv.DueDate
	return render(document{
		title:   "Facture",
		ref:     inv.InvoiceNumber,
		date:    inv.Date,
		dueDate: &due,
		status:  string(inv.Status),
		client:  inv.Client,
		lines:   inv.Quotation.Lines,
		taxRate: inv.TaxRate,
		total:   inv.TotalExcludingTax,
		gross:   inv.TotalIncludingTax,
	})
}

// RegisterSheet is the worksheet holding the invoice register.
const RegisterSheet = "Factures"

var registerHeader = []any{"Numéro", "Date", "Échéance", "Client", "Statut", "Total HT", "TVA %", "Total TTC", "Payée le", "En retard"}

// InvoiceRegisterXLSX lists invoices one per row. Overdue is evaluated at now.
func InvoiceRegisterXLSX(invoices []models.Invoice, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", RegisterSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(RegisterSheet, "A1", &registerHeader); err != nil {
		return nil, err
	}
	for i, inv := range invoices {
		paid := ""
		if inv.PaidDate != nil {
			paid = inv.PaidDate.Format("2006-01-02")
		}
		overdue := "non"
		if inv.IsOverdue(now) {
			overdue = "oui"
		}
		row := []any{
			inv.InvoiceNumber,
			inv.Date.Format("2006-01-02"),
			inv.DueDate.Format("2006-01-02"),
			inv.Client.DisplayName(),
			string(inv.Status),
			inv.TotalExcludingTax.InexactFloat64(),
			inv.TaxRate.InexactFloat64(),
			inv.TotalIncludingTax.InexactFloat64(),
			paid,
			overdue,
		}
		if err := f.SetSheetRow(RegisterSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
