package ledger

import (
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/the-ledger-must-balance/internal/common"
	"github.com/Veraticus/the-ledger-must-balance/internal/model"
	"github.com/Veraticus/the-ledger-must-balance/internal/mutation"
	"github.com/Veraticus/the-ledger-must-balance/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var visa = model.FundingSource{Kind: model.FundingCreditCard, ID: "visa"}

func cardExpense(desc, amount, date string) *model.Occurrence {
	return &model.Occurrence{
		Description: desc,
		Amount:      dec(amount),
		Type:        model.EntryExpense,
		DueDate:     day(date),
		Funding:     visa,
	}
}

func TestService_CardTransactionsFollowClosingDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-02-01")
	f.card(t, "visa", 5, 15)

	onClosing := cardExpense("Coffee", "4.50", "2024-01-05")
	afterClosing := cardExpense("Books", "45.25", "2024-01-06")
	require.NoError(t, f.svc.CreateTransaction(ctx, onClosing))
	require.NoError(t, f.svc.CreateTransaction(ctx, afterClosing))
	require.NotNil(t, onClosing.InvoiceID)
	require.NotNil(t, afterClosing.InvoiceID)
	assert.NotEqual(t, *onClosing.InvoiceID, *afterClosing.InvoiceID)

	jan, err := f.svc.Invoice(ctx, "visa", day("2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, *onClosing.InvoiceID, jan.Invoice.ID)
	assert.Equal(t, day("2024-01-15"), jan.Invoice.DueDate)
	assert.Equal(t, model.InvoiceClosed, jan.Invoice.Status)
	assert.Equal(t, "4.50", jan.Total.StringFixed(2))
	assert.Equal(t, day("2023-12-06"), jan.PeriodStart)
	assert.Equal(t, day("2024-01-05"), jan.PeriodEnd)

	feb, err := f.svc.Invoice(ctx, "visa", day("2024-02-01"))
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceOpen, feb.Invoice.Status)
	require.Len(t, feb.Occurrences, 1)
	assert.Equal(t, afterClosing.ID, feb.Occurrences[0].ID)
}

func TestService_InvoiceTotalCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-02-01")
	f.card(t, "visa", 5, 15)

	first := cardExpense("Lunch", "12.00", "2024-02-02")
	require.NoError(t, f.svc.CreateTransaction(ctx, first))

	total, err := f.svc.InvoiceTotal(ctx, *first.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "12.00", total.StringFixed(2))

	require.NoError(t, f.svc.CreateTransaction(ctx, cardExpense("Dinner", "30.00", "2024-02-03")))

	total, err = f.svc.InvoiceTotal(ctx, *first.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "42.00", total.StringFixed(2))

	amount := dec("20.00")
	_, err = f.svc.EditOccurrence(ctx, first.ID, mutation.Changes{Amount: &amount}, mutation.ScopeThisOnly)
	require.NoError(t, err)

	total, err = f.svc.InvoiceTotal(ctx, *first.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", total.StringFixed(2))
}

func TestService_MovingDueDateChangesInvoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-02-01")
	f.card(t, "visa", 5, 15)

	occ := cardExpense("Shoes", "80.00", "2024-02-03")
	require.NoError(t, f.svc.CreateTransaction(ctx, occ))

	moved := day("2024-02-10")
	_, err := f.svc.EditOccurrence(ctx, occ.ID, mutation.Changes{DueDate: &moved}, mutation.ScopeThisOnly)
	require.NoError(t, err)

	got, err := f.store.GetOccurrence(ctx, occ.ID)
	require.NoError(t, err)
	require.NotNil(t, got.InvoiceID)
	assert.NotEqual(t, *occ.InvoiceID, *got.InvoiceID)

	inv, err := f.store.GetInvoice(ctx, *got.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-01"), inv.ReferenceMonth)
}

func TestService_CardInstallmentsGetOneInvoiceEach(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-02-01")
	f.card(t, "visa", 5, 15)

	_, occs, err := f.svc.CreateInstallmentPurchase(ctx, laptop(visa))
	require.NoError(t, err)

	months := make([]string, len(occs))
	for i := range occs {
		require.NotNil(t, occs[i].InvoiceID)
		inv, err := f.store.GetInvoice(ctx, *occs[i].InvoiceID)
		require.NoError(t, err)
		months[i] = inv.ReferenceMonth.Format("2006-01")
	}
	assert.Equal(t, []string{"2024-04", "2024-05", "2024-06"}, months)

	june, err := f.svc.Invoice(ctx, "visa", day("2024-06-01"))
	require.NoError(t, err)
	assert.Equal(t, "33.34", june.Total.StringFixed(2))
}

func TestService_UnknownCardRejected(t *testing.T) {
	f := newFixture(t, "2024-02-01")
	err := f.svc.CreateTransaction(context.Background(), cardExpense("Ghost", "1.00", "2024-02-02"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestService_AssignOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-02-01")
	f.card(t, "visa", 5, 15)

	require.NoError(t, f.store.InsertBatch(ctx, []model.Occurrence{{
		ID:          "orphan",
		Description: "Legacy charge",
		Amount:      dec("9.99"),
		Type:        model.EntryExpense,
		DueDate:     day("2024-01-20"),
		Status:      model.StatusConfirmed,
		Funding:     visa,
	}}))

	n, err := f.svc.AssignOrphans(ctx, "visa")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.svc.AssignOrphans(ctx, "visa")
	require.NoError(t, err)
	assert.Zero(t, n)

	orphans, err := f.store.ListOccurrences(ctx, service.OccurrenceFilter{CreditCardID: "visa", WithoutInvoice: true})
	require.NoError(t, err)
	assert.Empty(t, orphans)

	feb, err := f.svc.Invoice(ctx, "visa", day("2024-02-01"))
	require.NoError(t, err)
	assert.Equal(t, "9.99", feb.Total.StringFixed(2))
}

func TestService_PayInvoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-02-01")
	f.card(t, "visa", 5, 15)

	occ := cardExpense("Coffee", "4.50", "2024-01-05")
	require.NoError(t, f.svc.CreateTransaction(ctx, occ))
	require.NoError(t, f.svc.PayInvoice(ctx, *occ.InvoiceID))

	jan, err := f.svc.Invoice(ctx, "visa", day("2024-01-01"))
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, jan.Invoice.Status)

	assert.ErrorIs(t, f.svc.PayInvoice(ctx, "missing"), common.ErrNotFound)
}

const statement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240131120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>200.00
<FITID>CC2024012001
<NAME>PAYMENT THANK YOU
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestService_ImportStatement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2024-02-01")
	f.card(t, "visa", 5, 15)

	result, err := f.svc.ImportStatement(ctx, strings.NewReader(statement), visa)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2}, result)

	again, err := f.svc.ImportStatement(ctx, strings.NewReader(statement), visa)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Skipped: 2}, again)

	occs, err := f.store.ListOccurrences(ctx, service.OccurrenceFilter{CreditCardID: "visa"})
	require.NoError(t, err)
	require.Len(t, occs, 2)

	purchase, payment := occs[0], occs[1]
	assert.Equal(t, model.EntryExpense, purchase.Type)
	assert.Equal(t, model.StatusConfirmed, purchase.Status)
	assert.Equal(t, "CC2024011001", purchase.ExternalID)
	require.NotNil(t, purchase.InvoiceID)
	assert.Equal(t, model.EntryIncome, payment.Type)
	assert.Nil(t, payment.InvoiceID)

	_, err = f.svc.ImportStatement(ctx, strings.NewReader("garbage"), visa)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
