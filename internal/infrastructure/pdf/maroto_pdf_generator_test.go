package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/jhoicas/viajes-backoffice/internal/application/billing"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	"github.com/jhoicas/viajes-backoffice/internal/domain/money"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":           "0,00",
		"25000":       "25.000,00",
		"3333.3333":   "3.333,33",
		"1000000.005": "1.000.000,01",
		"-1234.5":     "-1.234,50",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), "in=%s", in)
	}
}

func TestGenerateInvoicePDF_Deposito(t *testing.T) {
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	inv := &entity.Invoice{
		ID:             "dep-1",
		Number:         "DEP-001",
		Type:           entity.InvoiceTypeDeposit,
		Status:         entity.InvoiceStatusSent,
		Currency:       "USD",
		TotalAmount:    decimal.NewFromInt(1000),
		BalanceDue:     decimal.NewFromInt(1000),
		DepositPercent: decimal.NewFromInt(30),
		DueDate:        &due,
		ClientName:     "Ana Pérez",
		ClientEmail:    "ana@example.com",
		CreatedAt:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	split, err := money.SplitForInvoice(inv)
	require.NoError(t, err)

	out, err := NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), inv, split, appbilling.Issuer{Name: "Viajes del Sur"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
