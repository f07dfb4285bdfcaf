package backup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/customer-debt-ledger/internal/ids"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/ledger"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/storage/memory"
)

func TestFileName(t *testing.T) {
	at := time.Date(2025, 7, 4, 13, 5, 9, 0, time.UTC)
	assert.Equal(t, "debts_backup_2025-07-04_13-05-09.json", FileName(at))
}

func TestDecodeRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: "customers: []"},
		{name: "json array at top level", doc: `[]`},
		{name: "missing customers", doc: `{"exchangeRates":{"USD":360}}`},
		{name: "customers is null", doc: `{"customers":null}`},
		{name: "customers is an object", doc: `{"customers":{"id":"c-1"}}`},
		{name: "customers is a string", doc: `{"customers":"[]"}`},
		{name: "malformed customer", doc: `{"customers":[{"id":1}]}`},
		{name: "malformed rates", doc: `{"customers":[],"exchangeRates":[1,2]}`},
		{name: "trailing garbage", doc: `{"customers":[]} this is not json`},
		{name: "two documents", doc: `{"customers":[]} {"customers":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, ledger.ErrValidation)
		})
	}
}

func TestDecodeExistingBackupDocument(t *testing.T) {
	doc := `{
  "customers": [
    {
      "id": "8d4c",
      "name": "Ana",
      "debts": [
        {"id": "d1", "amount": -20, "currency": "USD", "notes": "pago", "date": "2025-01-05T10:00:00.000Z", "rateToCUP": 360}
      ],
      "boxTransactions": [
        {"id": "b1", "type": "ADD", "boxes": 10, "notes": "cajas", "date": "2025-01-01T10:00:00.000Z"},
        {"id": "b2", "type": "PAY", "boxes": 2.5, "notes": "Pago de cajas", "date": "2025-01-02T10:00:00.000Z",
         "paymentAmount": 100, "paymentCurrency": "EUR", "paymentRateToCUP": 375, "boxValueInCUP": 15000, "debtId": "b1"}
      ]
    }
  ]
}`

	data, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Nil(t, data.ExchangeRates)
	require.Len(t, data.Customers, 1)
	c := data.Customers[0]
	assert.True(t, decimal.NewFromInt(-20).Equal(c.Debts[0].Amount))
	assert.Equal(t, models.BoxTransactionPay, c.BoxTransactions[1].Type)
	assert.Equal(t, models.CurrencyEUR, c.BoxTransactions[1].PaymentCurrency)
	assert.Equal(t, "b1", c.BoxTransactions[1].DebtID)
	assert.Nil(t, c.BoxTransactions[0].PaymentAmount)
}

func TestExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	source, err := ledger.NewLedger(ctx, memory.NewMemorySnapshotStore(),
		ledger.WithIDGenerator(ids.NewSequence("src")),
		ledger.WithClock(func() time.Time { clock = clock.Add(time.Second); return clock }),
	)
	require.NoError(t, err)

	ana, err := source.AddCustomer(ctx, "Ana")
	require.NoError(t, err)
	_, err = source.AddDebt(ctx, ana.ID, ledger.NewDebt{Amount: decimal.RequireFromString("12.5"), Currency: models.CurrencyZELLE, RateToCUP: decimal.NewFromInt(365), Notes: "flour"})
	require.NoError(t, err)
	add, err := source.AddBoxes(ctx, ana.ID, ledger.NewBoxDebt{Boxes: decimal.NewFromInt(10), Notes: "widgets"})
	require.NoError(t, err)
	_, err = source.PayBoxes(ctx, ana.ID, ledger.NewBoxPayment{
		DebtID:           add.ID,
		PaymentAmount:    decimal.NewFromInt(10),
		PaymentCurrency:  models.CurrencyUSD,
		PaymentRateToCUP: decimal.NewFromInt(360),
		BoxValueInCUP:    decimal.NewFromInt(120),
		Notes:            "Pago de cajas",
	})
	require.NoError(t, err)
	_, err = source.AddCustomer(ctx, "Bruno")
	require.NoError(t, err)
	require.NoError(t, source.UpdateExchangeRates(ctx, models.ExchangeRates{models.CurrencyUSD: decimal.NewFromInt(370)}))

	var exported bytes.Buffer
	require.NoError(t, Export(&exported, source.Snapshot()))
	assert.Contains(t, exported.String(), "\n  \"customers\": [")

	target, err := ledger.NewLedger(ctx, memory.NewMemorySnapshotStore())
	require.NoError(t, err)
	data, err := Decode(bytes.NewReader(exported.Bytes()))
	require.NoError(t, err)
	require.NoError(t, target.RestoreSnapshot(ctx, data))

	var reexported bytes.Buffer
	require.NoError(t, Export(&reexported, target.Snapshot()))
	assert.JSONEq(t, exported.String(), reexported.String())
	assert.Equal(t, source.Customers(), target.Customers())
}

func TestRestoreRefusesInvalidRateTable(t *testing.T) {
	ctx := context.Background()
	l, err := ledger.NewLedger(ctx, memory.NewMemorySnapshotStore())
	require.NoError(t, err)
	before := l.ExchangeRates()

	data, err := Decode(strings.NewReader(`{"customers":[],"exchangeRates":{"GBP":-5,"CUP":2,"USD":0}}`))
	require.NoError(t, err)

	assert.ErrorIs(t, l.RestoreSnapshot(ctx, data), ledger.ErrValidation)
	assert.Equal(t, before, l.ExchangeRates())
	assert.NoError(t, l.UpdateExchangeRates(ctx, l.ExchangeRates()))
}

func TestFailedRestoreKeepsState(t *testing.T) {
	ctx := context.Background()
	l, err := ledger.NewLedger(ctx, memory.NewMemorySnapshotStore())
	require.NoError(t, err)
	_, err = l.AddCustomer(ctx, "Ana")
	require.NoError(t, err)
	before := l.Snapshot()

	_, err = Decode(strings.NewReader(`{"customers": "nope", "exchangeRates": {}}`))
	require.ErrorIs(t, err, ledger.ErrValidation)

	assert.Equal(t, before, l.Snapshot())
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	path, err := WriteFile(dir, models.Snapshot{Customers: []models.Customer{}, ExchangeRates: models.ExchangeRates{}}, at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "debts_backup_2025-01-02_03-04-05.json"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := Decode(f)
	require.NoError(t, err)
	assert.Empty(t, data.Customers)
	assert.NotNil(t, data.Customers)
}
