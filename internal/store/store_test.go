package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-billing/internal/models"
	"github.com/diewo77/go-billing/internal/store"
	"github.com/diewo77/go-billing/internal/store/storetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var march = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newQuotation(t *testing.T, userID string, status models.QuotationStatus) models.Quotation {
	t.Helper()
	l1, err := models.NewLine("p1", "Audit", "Site audit", 1, decimal.NewFromInt(2500))
	require.NoError(t, err)
	l2, err := models.NewLine("p2", "Training", "", 2, decimal.NewFromInt(300))
	require.NoError(t, err)
	return models.Quotation{
		Version: 1,
		Lines:   []models.Line{l1, l2},
		Status:  status,
		Client:  models.ClientInfo{ID: "c1", Firstname: "Ada", Lastname: "Lovelace", Email: "ada@example.com"},
		Date:    march,
		TaxRate: decimal.NewFromInt(20),
		UserID:  userID,
	}
}

func TestQuotationStore_SaveFindUpdate(t *testing.T) {
	ctx := context.Background()
	qs := store.NewQuotationStore(storetest.NewDB(t))

	saved, err := qs.Save(ctx, newQuotation(t, "u1", models.QuotationStatusDraft))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := qs.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	require.Equal(t, "Audit", got.Lines[0].ProductName)
	require.True(t, got.TotalWithoutTaxes().Equal(decimal.NewFromInt(3100)))
	require.Equal(t, "Lovelace", got.Client.Lastname)

	updated, err := qs.Update(ctx, got.WithStatus(models.QuotationStatusAccepted))
	require.NoError(t, err)
	require.Equal(t, models.QuotationStatusAccepted, updated.Status)
	require.Equal(t, 2, updated.Version)

	again, err := qs.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, models.QuotationStatusAccepted, again.Status)
	require.Len(t, again.Lines, 2)

	_, err = qs.FindByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = qs.Update(ctx, models.Quotation{ID: "missing"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLineColumnsStored(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	qs, is := store.NewQuotationStore(db), store.NewInvoiceStore(db)

	for _, table := range []string{"quotation_lines", "invoice_lines"} {
		for _, col := range []string{"position", "product_id", "product_name", "product_description", "quantity", "unit_price", "total_price"} {
			require.True(t, db.Migrator().HasColumn(table, col), "%s.%s", table, col)
		}
	}

	q, err := qs.Save(ctx, newQuotation(t, "u1", models.QuotationStatusAccepted))
	require.NoError(t, err)
	inv, err := is.Save(ctx, generate(t, q, "FAC-202603-000001", march.AddDate(0, 0, 30)))
	require.NoError(t, err)

	type row struct {
		Position    int
		ProductName string
		Quantity    int
		UnitPrice   decimal.Decimal
		TotalPrice  decimal.Decimal
	}
	var qrows, irows []row
	require.NoError(t, db.Table("quotation_lines").Where("quotation_id = ?", q.ID).Order("position").Find(&qrows).Error)
	require.NoError(t, db.Table("invoice_lines").Where("invoice_id = ?", inv.ID).Order("position").Find(&irows).Error)

	for _, rows := range [][]row{qrows, irows} {
		require.Len(t, rows, 2)
		require.Equal(t, 1, rows[1].Position)
		require.Equal(t, "Training", rows[1].ProductName)
		require.Equal(t, 2, rows[1].Quantity)
		require.True(t, rows[1].UnitPrice.Equal(decimal.NewFromInt(300)), "unit = %s", rows[1].UnitPrice)
		require.True(t, rows[1].TotalPrice.Equal(decimal.NewFromInt(600)), "total = %s", rows[1].TotalPrice)
	}
}

func TestQuotationStore_FindByUser(t *testing.T) {
	ctx := context.Background()
	qs := store.NewQuotationStore(storetest.NewDB(t))

	for _, st := range []models.QuotationStatus{models.QuotationStatusAccepted, models.QuotationStatusDraft} {
		_, err := qs.Save(ctx, newQuotation(t, "u1", st))
		require.NoError(t, err)
	}
	_, err := qs.Save(ctx, newQuotation(t, "u2", models.QuotationStatusAccepted))
	require.NoError(t, err)

	mine, err := qs.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)

	accepted, err := qs.FindByUserAndStatus(ctx, "u1", models.QuotationStatusAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)

	all, err := qs.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	none, err := qs.FindByUser(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, none)
}

func generate(t *testing.T, q models.Quotation, number string, due time.Time) models.Invoice {
	t.Helper()
	inv, err := models.GenerateFromQuotation(q, number, due, march)
	require.NoError(t, err)
	return inv
}

func TestInvoiceStore_UniqueQuotation(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	qs, is := store.NewQuotationStore(db), store.NewInvoiceStore(db)

	q, err := qs.Save(ctx, newQuotation(t, "u1", models.QuotationStatusAccepted))
	require.NoError(t, err)

	first, err := is.Save(ctx, generate(t, q, "FAC-202603-000001", march.AddDate(0, 1, 0)))
	require.NoError(t, err)
	require.Len(t, first.Quotation.Lines, 2)

	_, err = is.Save(ctx, generate(t, q, "FAC-202603-000002", march.AddDate(0, 1, 0)))
	require.ErrorIs(t, err, store.ErrDuplicateInvoice)

	// both constraints collide: the quotation one is reported
	_, err = is.Save(ctx, generate(t, q, "FAC-202603-000001", march.AddDate(0, 1, 0)))
	require.ErrorIs(t, err, store.ErrDuplicateInvoice)

	all, err := is.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestInvoiceStore_UniqueNumber(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	qs, is := store.NewQuotationStore(db), store.NewInvoiceStore(db)

	q1, err := qs.Save(ctx, newQuotation(t, "u1", models.QuotationStatusAccepted))
	require.NoError(t, err)
	q2, err := qs.Save(ctx, newQuotation(t, "u1", models.QuotationStatusAccepted))
	require.NoError(t, err)

	_, err = is.Save(ctx, generate(t, q1, "FAC-202603-000001", march.AddDate(0, 1, 0)))
	require.NoError(t, err)
	_, err = is.Save(ctx, generate(t, q2, "FAC-202603-000001", march.AddDate(0, 1, 0)))
	require.ErrorIs(t, err, store.ErrDuplicateInvoiceNumber)

	found, err := is.FindByInvoiceNumber(ctx, "FAC-202603-000001")
	require.NoError(t, err)
	require.Equal(t, q1.ID, found.QuotationID)
}

func TestInvoiceStore_Lookups(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	qs, is := store.NewQuotationStore(db), store.NewInvoiceStore(db)

	qa, err := qs.Save(ctx, newQuotation(t, "alice", models.QuotationStatusAccepted))
	require.NoError(t, err)
	qb, err := qs.Save(ctx, newQuotation(t, "bob", models.QuotationStatusAccepted))
	require.NoError(t, err)

	ia, err := is.Save(ctx, generate(t, qa, "FAC-202603-000001", march.AddDate(0, 0, 5)))
	require.NoError(t, err)
	ib, err := is.Save(ctx, generate(t, qb, "FAC-202603-000002", march.AddDate(0, 0, 2)))
	require.NoError(t, err)

	byQuotation, err := is.FindByQuotationID(ctx, qa.ID)
	require.NoError(t, err)
	require.Equal(t, ia.ID, byQuotation.ID)

	_, err = is.FindByQuotationID(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)

	alice, err := is.FindByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	require.Equal(t, ia.ID, alice[0].ID)

	byClient, err := is.FindByClientID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, byClient, 2)

	linked, err := is.FindByQuotationIDs(ctx, []string{qa.ID, qb.ID, "other"})
	require.NoError(t, err)
	require.Len(t, linked, 2)
	require.Equal(t, ib.ID, linked[qb.ID].ID)

	ok, err := is.Exists(ctx, ia.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, is.Delete(ctx, ia.ID))
	ok, err = is.Exists(ctx, ia.ID)
	require.NoError(t, err)
	require.False(t, ok)
	require.ErrorIs(t, is.Delete(ctx, ia.ID), store.ErrNotFound)
}

func TestInvoiceStore_FindOverdue(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	qs, is := store.NewQuotationStore(db), store.NewInvoiceStore(db)

	dues := []time.Time{march.AddDate(0, 0, 3), march.AddDate(0, 0, 1), march.AddDate(0, 0, 20)}
	var ids []string
	for i, due := range dues {
		q, err := qs.Save(ctx, newQuotation(t, "u1", models.QuotationStatusAccepted))
		require.NoError(t, err)
		inv, err := is.Save(ctx, generate(t, q, models.FormatInvoiceNumber(march, i+1), due))
		require.NoError(t, err)
		ids = append(ids, inv.ID)
	}

	// mark the second one paid: paid invoices are never overdue
	paid, err := is.FindByID(ctx, ids[1])
	require.NoError(t, err)
	paid.Status = models.InvoiceStatusPaid
	_, err = is.Update(ctx, paid)
	require.NoError(t, err)

	now := march.AddDate(0, 0, 10)
	overdue, err := is.FindOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, ids[0], overdue[0].ID)

	later := march.AddDate(0, 1, 0)
	overdue, err = is.FindOverdueByUser(ctx, "u1", later)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	require.Equal(t, ids[0], overdue[0].ID)
	require.Equal(t, ids[2], overdue[1].ID)

	none, err := is.FindOverdueByUser(ctx, "someone-else", later)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestInvoiceStore_Update(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	qs, is := store.NewQuotationStore(db), store.NewInvoiceStore(db)

	q, err := qs.Save(ctx, newQuotation(t, "u1", models.QuotationStatusAccepted))
	require.NoError(t, err)
	inv, err := is.Save(ctx, generate(t, q, "FAC-202603-000001", march.AddDate(0, 1, 0)))
	require.NoError(t, err)

	sent, err := models.Transition(inv, models.InvoiceStatusSent, march.Add(time.Hour))
	require.NoError(t, err)
	paid, err := models.MarkAsPaid(sent, march.Add(2*time.Hour))
	require.NoError(t, err)

	got, err := is.Update(ctx, paid)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPaid, got.Status)
	require.NotNil(t, got.PaidDate)
	require.True(t, got.PaidDate.Equal(inv.DueDate))
	require.True(t, got.TotalIncludingTax.Equal(decimal.NewFromInt(3720)))

	_, err = is.Update(ctx, models.Invoice{ID: "missing", Status: models.InvoiceStatusPaid})
	require.True(t, errors.Is(err, store.ErrNotFound))
}

func TestInvoiceStore_GenerateUniqueInvoiceNumber(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	qs, is := store.NewQuotationStore(db), store.NewInvoiceStore(db)

	n, err := is.GenerateUniqueInvoiceNumber(ctx, march)
	require.NoError(t, err)
	require.Equal(t, "FAC-202603-000001", n)

	for _, num := range []string{"FAC-202603-000004", "FAC-202602-000009", "FAC-202603-000002"} {
		q, err := qs.Save(ctx, newQuotation(t, "u1", models.QuotationStatusAccepted))
		require.NoError(t, err)
		_, err = is.Save(ctx, generate(t, q, num, march.AddDate(0, 1, 0)))
		require.NoError(t, err)
	}

	n, err = is.GenerateUniqueInvoiceNumber(ctx, march)
	require.NoError(t, err)
	require.Equal(t, "FAC-202603-000005", n)

	n, err = is.GenerateUniqueInvoiceNumber(ctx, march.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Equal(t, "FAC-202604-000001", n)
}

func TestClientAndUserStores(t *testing.T) {
	ctx := context.Background()
	db := storetest.NewDB(t)
	cs, us := store.NewClientStore(db), store.NewUserStore(db)

	u, err := us.Create(ctx, models.User{Email: " Owner@Example.com ", FirstName: "Olga"})
	require.NoError(t, err)
	byEmail, err := us.FindByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	_, err = us.FindByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = us.Register(ctx, models.User{Email: "OWNER@example.com"}, "hash")
	require.ErrorIs(t, err, store.ErrDuplicateEmail)
	r, err := us.Register(ctx, models.User{Email: "second@example.com"}, "hash")
	require.NoError(t, err)
	_, hash, err := us.Credentials(ctx, "Second@Example.com")
	require.NoError(t, err)
	require.Equal(t, "hash", hash)
	require.NotEqual(t, u.ID, r.ID)

	c, err := cs.Create(ctx, models.Client{ClientInfo: models.ClientInfo{Firstname: "Ada", Lastname: "Lovelace"}, UserID: u.ID})
	require.NoError(t, err)
	got, err := cs.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada", got.Firstname)
	require.Equal(t, u.ID, got.GetUserID())

	list, err := cs.FindByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = cs.FindByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}
