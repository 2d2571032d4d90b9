package money_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/viajes-backoffice/internal/domain"
	"github.com/jhoicas/viajes-backoffice/internal/domain/entity"
	"github.com/jhoicas/viajes-backoffice/internal/domain/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var oneCent = dec("0.01")

func TestDeriveFullTripCost(t *testing.T) {
	cases := []struct {
		name    string
		total   string
		percent string
		typ     string
		want    string // redondeado a 2 decimales
	}{
		{"depósito 30%", "1000", "30", entity.InvoiceTypeDeposit, "3333.33"},
		{"depósito 50%", "1500", "50", entity.InvoiceTypeDeposit, "3000.00"},
		{"depósito 25%", "250.50", "25", entity.InvoiceTypeDeposit, "1002.00"},
		{"final 30%", "2333.33", "30", entity.InvoiceTypeFinal, "3333.33"},
		{"final 50%", "1500", "50", entity.InvoiceTypeFinal, "3000.00"},
		{"final 10%", "900", "10", entity.InvoiceTypeFinal, "1000.00"},
		{"standard ignora porcentaje", "1234.56", "0", entity.InvoiceTypeStandard, "1234.56"},
		{"total cero", "0", "30", entity.InvoiceTypeDeposit, "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := money.DeriveFullTripCost(dec(tc.total), dec(tc.percent), tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.want, money.RoundDisplay(got).StringFixed(2))
		})
	}
}

func TestDeriveFullTripCost_PorcentajeInvalido(t *testing.T) {
	for _, p := range []string{"0", "100", "-5", "150", "100.0001"} {
		for _, typ := range []string{entity.InvoiceTypeDeposit, entity.InvoiceTypeFinal} {
			_, err := money.DeriveFullTripCost(dec("1000"), dec(p), typ)
			assert.ErrorIs(t, err, domain.ErrInvalidPercentage, "p=%s type=%s", p, typ)
		}
	}
}

func TestDeriveFullTripCost_EntradasInvalidas(t *testing.T) {
	_, err := money.DeriveFullTripCost(dec("-1"), dec("30"), entity.InvoiceTypeDeposit)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = money.DeriveFullTripCost(dec("100"), dec("30"), "recurring")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeriveDepositAndBalance(t *testing.T) {
	deposit, balance, err := money.DeriveDepositAndBalance(dec("3000"), dec("30"))
	require.NoError(t, err)
	assert.True(t, deposit.Equal(dec("900")), "deposit=%s", deposit)
	assert.True(t, balance.Equal(dec("2100")), "balance=%s", balance)

	_, _, err = money.DeriveDepositAndBalance(dec("3000"), dec("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidPercentage)
}

// El escenario de referencia: depósito de 1000 al 30%.
func TestSplitFor_EscenarioDeposito(t *testing.T) {
	split, err := money.SplitFor(dec("1000"), dec("30"), entity.InvoiceTypeDeposit)
	require.NoError(t, err)

	r := split.Rounded()
	assert.Equal(t, "3333.33", r.FullTripCost.StringFixed(2))
	assert.Equal(t, "1000.00", r.Deposit.StringFixed(2))
	assert.Equal(t, "2333.33", r.Balance.StringFixed(2))

	// Sin redondeo intermedio: la suma exacta reconstruye el total.
	assert.True(t, split.Deposit.Add(split.Balance).Equal(split.FullTripCost))
}

func TestSplitFor_Standard(t *testing.T) {
	split, err := money.SplitFor(dec("780.40"), decimal.Zero, entity.InvoiceTypeStandard)
	require.NoError(t, err)
	assert.True(t, split.Deposit.IsZero())
	assert.True(t, split.Balance.Equal(dec("780.40")))
}

// Ley de ida y vuelta: el depósito derivado del costo total reconstruye el total de la factura.
func TestRoundTrip_DepositoReconstruyeTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		x := decimal.New(rng.Int63n(100_000_000)+1, -2) // 0.01 .. 1,000,000.00
		p := decimal.New(rng.Int63n(9_998)+1, -2)       // 0.01 .. 99.98
		full, err := money.DeriveFullTripCost(x, p, entity.InvoiceTypeDeposit)
		require.NoError(t, err)
		deposit, _, err := money.DeriveDepositAndBalance(full, p)
		require.NoError(t, err)

		diff := money.RoundDisplay(deposit).Sub(x).Abs()
		require.True(t, diff.LessThanOrEqual(oneCent), "x=%s p=%s deposit=%s", x, p, deposit)
	}
}

func TestRoundTrip_FinalReconstruyeSaldo(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		x := decimal.New(rng.Int63n(100_000_000)+1, -2)
		p := decimal.New(rng.Int63n(9_998)+1, -2)
		full, err := money.DeriveFullTripCost(x, p, entity.InvoiceTypeFinal)
		require.NoError(t, err)
		_, balance, err := money.DeriveDepositAndBalance(full, p)
		require.NoError(t, err)

		diff := money.RoundDisplay(balance).Sub(x).Abs()
		require.True(t, diff.LessThanOrEqual(oneCent), "x=%s p=%s balance=%s", x, p, balance)
	}
}

func TestRoundDisplay_MitadSeAlejaDeCero(t *testing.T) {
	cases := map[string]string{
		"2.345":                     "2.35",
		"2.344":                     "2.34",
		"2.3449":                    "2.34",
		"0.005":                     "0.01",
		"-2.345":                    "-2.35",
		"-2.344":                    "-2.34",
		"1000":                      "1000.00",
		"3333.33333333333333333333": "3333.33",
	}
	for in, want := range cases {
		assert.Equal(t, want, money.RoundDisplay(dec(in)).StringFixed(2), "in=%s", in)
	}
}
