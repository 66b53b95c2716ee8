package pricing_test

import (
	"testing"

	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/pricing"
	"github.com/dukerupert/vanir/internal/vat"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(price string, qty int32, rate domain.VatRate) domain.CartLine {
	return domain.CartLine{
		ProductID:  uuid.New(),
		CategoryID: uuid.New(),
		BasePrice:  dec(price),
		Surcharge:  decimal.Zero,
		Quantity:   qty,
		VatRate:    rate,
	}
}

func TestValueCart_EmptyCart(t *testing.T) {
	calc := vat.NewCalculator(vat.DefaultRates())

	totals, err := pricing.ValueCart(calc, nil, domain.StatusDomesticConsumer)

	require.NoError(t, err)
	assert.True(t, totals.NetTotal.IsZero())
	assert.True(t, totals.VatTotal.IsZero())
	assert.True(t, totals.GrossTotal.IsZero())
	assert.Empty(t, totals.Breakdown)
	assert.False(t, totals.ReverseCharge)
}

func TestValueCart_SingleLine(t *testing.T) {
	calc := vat.NewCalculator(vat.DefaultRates())
	lines := []domain.CartLine{line("100.00", 1, domain.VatRateStandard)}

	totals, err := pricing.ValueCart(calc, lines, domain.StatusDomesticConsumer)

	require.NoError(t, err)
	assert.True(t, totals.NetTotal.Equal(dec("100.00")))
	assert.True(t, totals.VatTotal.Equal(dec("23.00")))
	assert.True(t, totals.GrossTotal.Equal(dec("123.00")))
}

func TestValueCart_SurchargeAndQuantity(t *testing.T) {
	calc := vat.NewCalculator(vat.DefaultRates())
	custom := line("20.00", 3, domain.VatRateStandard)
	custom.Surcharge = dec("5.00") // per-item print fee

	totals, err := pricing.ValueCart(calc, []domain.CartLine{custom}, domain.StatusDomesticConsumer)

	require.NoError(t, err)
	// (20 + 5) * 3 = 75 net
	assert.True(t, totals.NetTotal.Equal(dec("75.00")))
	assert.True(t, totals.VatTotal.Equal(dec("17.25")))
	assert.True(t, totals.GrossTotal.Equal(dec("92.25")))
}

func TestValueCart_BreakdownByRateBand(t *testing.T) {
	calc := vat.NewCalculator(vat.DefaultRates())
	lines := []domain.CartLine{
		line("100.00", 1, domain.VatRateStandard),
		line("50.00", 2, domain.VatRateReduced),
		line("10.00", 1, domain.VatRateZero),
	}

	totals, err := pricing.ValueCart(calc, lines, domain.StatusDomesticConsumer)

	require.NoError(t, err)
	require.Len(t, totals.Breakdown, 3)

	std := totals.Breakdown[domain.VatRateStandard]
	assert.True(t, std.Net.Equal(dec("100.00")))
	assert.True(t, std.Vat.Equal(dec("23.00")))

	red := totals.Breakdown[domain.VatRateReduced]
	assert.True(t, red.Net.Equal(dec("100.00")))
	assert.True(t, red.Vat.Equal(dec("13.50")))

	zero := totals.Breakdown[domain.VatRateZero]
	assert.True(t, zero.Net.Equal(dec("10.00")))
	assert.True(t, zero.Vat.IsZero())

	assert.True(t, totals.NetTotal.Equal(dec("210.00")))
	assert.True(t, totals.VatTotal.Equal(dec("36.50")))
	assert.True(t, totals.GrossTotal.Equal(totals.NetTotal.Add(totals.VatTotal)))
}

func TestValueCart_ReverseChargeKeepsNominalBuckets(t *testing.T) {
	calc := vat.NewCalculator(vat.DefaultRates())
	lines := []domain.CartLine{
		line("100.00", 1, domain.VatRateStandard),
		line("40.00", 1, domain.VatRateReduced),
	}

	totals, err := pricing.ValueCart(calc, lines, domain.StatusEUBusiness)

	require.NoError(t, err)
	assert.True(t, totals.ReverseCharge)
	assert.True(t, totals.VatTotal.IsZero())
	assert.True(t, totals.GrossTotal.Equal(dec("140.00")))

	// The breakdown still shows which nominal band each net came from.
	require.Len(t, totals.Breakdown, 2)
	assert.True(t, totals.Breakdown[domain.VatRateStandard].Net.Equal(dec("100.00")))
	assert.True(t, totals.Breakdown[domain.VatRateStandard].Vat.IsZero())
	assert.True(t, totals.Breakdown[domain.VatRateReduced].Net.Equal(dec("40.00")))
}

func TestValueCart_RoundingAtBucketBoundary(t *testing.T) {
	calc := vat.NewCalculator(vat.DefaultRates())
	// 19.99 * 23% = 4.5977 per line; three lines accumulate before rounding:
	// 13.7931 -> 13.79, not 3 * 4.60 = 13.80.
	lines := []domain.CartLine{
		line("19.99", 1, domain.VatRateStandard),
		line("19.99", 1, domain.VatRateStandard),
		line("19.99", 1, domain.VatRateStandard),
	}

	totals, err := pricing.ValueCart(calc, lines, domain.StatusDomesticConsumer)

	require.NoError(t, err)
	assert.True(t, totals.VatTotal.Equal(dec("13.79")), "got %s", totals.VatTotal)
	assert.True(t, totals.GrossTotal.Equal(totals.NetTotal.Add(totals.VatTotal)))
}

func TestValueCart_GrossEqualsNetPlusVat(t *testing.T) {
	calc := vat.NewCalculator(vat.DefaultRates())
	lines := []domain.CartLine{
		line("3.33", 7, domain.VatRateStandard),
		line("1.01", 13, domain.VatRateReduced),
		line("9.99", 2, domain.VatRateSecondReduced),
	}

	for _, status := range []domain.CustomerTaxStatus{
		domain.StatusDomesticConsumer,
		domain.StatusDomesticBusiness,
		domain.StatusEUBusiness,
		domain.StatusEUConsumer,
		domain.StatusNonEUBusiness,
	} {
		t.Run(string(status), func(t *testing.T) {
			totals, err := pricing.ValueCart(calc, lines, status)

			require.NoError(t, err)
			assert.True(t, totals.GrossTotal.Equal(totals.NetTotal.Add(totals.VatTotal)))

			for rate, bucket := range totals.Breakdown {
				assert.True(t, bucket.Gross.Equal(bucket.Net.Add(bucket.Vat)), "bucket %s", rate)
			}
		})
	}
}

func TestValueCart_QuantityMonotonicity(t *testing.T) {
	calc := vat.NewCalculator(vat.DefaultRates())

	prev := decimal.Zero
	for qty := int32(1); qty <= 10; qty++ {
		totals, err := pricing.ValueCart(calc, []domain.CartLine{line("7.49", qty, domain.VatRateStandard)}, domain.StatusDomesticConsumer)
		require.NoError(t, err)
		assert.True(t, totals.GrossTotal.GreaterThanOrEqual(prev), "gross must not decrease as quantity grows")
		prev = totals.GrossTotal
	}
}

func TestValueCart_MalformedLines(t *testing.T) {
	calc := vat.NewCalculator(vat.DefaultRates())

	tests := []struct {
		name string
		line domain.CartLine
	}{
		{"negative price", line("-1.00", 1, domain.VatRateStandard)},
		{"zero quantity", line("10.00", 0, domain.VatRateStandard)},
		{"negative quantity", line("10.00", -2, domain.VatRateStandard)},
		{"unknown rate", line("10.00", 1, domain.VatRate("luxury"))},
		{"negative surcharge", func() domain.CartLine {
			l := line("10.00", 1, domain.VatRateStandard)
			l.Surcharge = dec("-0.01")
			return l
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pricing.ValueCart(calc, []domain.CartLine{tt.line}, domain.StatusDomesticConsumer)

			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}

func TestReduceProportionally(t *testing.T) {
	mk := func() []pricing.LineBasis {
		bases, err := pricing.Bases([]domain.CartLine{
			line("60.00", 1, domain.VatRateStandard),
			line("40.00", 1, domain.VatRateStandard),
			line("25.00", 1, domain.VatRateReduced),
		})
		require.NoError(t, err)
		return bases
	}

	t.Run("spreads by net share", func(t *testing.T) {
		bases := mk()
		pricing.ReduceProportionally(bases, []int{0, 1}, dec("10.00"))

		assert.True(t, bases[0].Net.Equal(dec("54.00")), "got %s", bases[0].Net)
		assert.True(t, bases[1].Net.Equal(dec("36.00")), "got %s", bases[1].Net)
		assert.True(t, bases[2].Net.Equal(dec("25.00")), "non-qualifying line untouched")
	})

	t.Run("remainder lands on last qualifying line", func(t *testing.T) {
		bases := mk()
		pricing.ReduceProportionally(bases, []int{0, 1, 2}, dec("10.00"))

		reduced := bases[0].Net.Add(bases[1].Net).Add(bases[2].Net)
		assert.True(t, reduced.Equal(dec("115.00")), "total must shrink by exactly the amount, got %s", reduced)
	})

	t.Run("amount above qualifying total zeroes the bases", func(t *testing.T) {
		bases := mk()
		pricing.ReduceProportionally(bases, []int{0, 1}, dec("500.00"))

		assert.True(t, bases[0].Net.IsZero())
		assert.True(t, bases[1].Net.IsZero())
	})

	t.Run("zero amount is a no-op", func(t *testing.T) {
		bases := mk()
		pricing.ReduceProportionally(bases, []int{0, 1}, decimal.Zero)

		assert.True(t, bases[0].Net.Equal(dec("60.00")))
	})

	t.Run("no qualifying lines is a no-op", func(t *testing.T) {
		bases := mk()
		pricing.ReduceProportionally(bases, nil, dec("10.00"))

		assert.True(t, bases[0].Net.Equal(dec("60.00")))
	})
}
