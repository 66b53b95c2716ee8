// Package pricing values cart snapshots: per-line net totals, VAT per the
// customer's tax status, and a breakdown bucketed by nominal rate. It also
// carries the proportional net-basis reduction used to fold a discount into a
// cart before VAT is computed.
package pricing

import (
	"github.com/dukerupert/vanir/internal/domain"
	"github.com/dukerupert/vanir/internal/vat"
	"github.com/shopspring/decimal"
)

// LineBasis pairs a cart line with the net basis VAT will be computed on.
// The basis starts as the line's full net total and shrinks when a discount
// is folded in.
type LineBasis struct {
	Line domain.CartLine
	Net  decimal.Decimal
}

// Bases validates the lines and builds their initial net bases. Validation
// failures are fatal: they mean the cart snapshot is corrupt.
func Bases(lines []domain.CartLine) ([]LineBasis, error) {
	bases := make([]LineBasis, len(lines))
	for i, line := range lines {
		if err := line.Validate(); err != nil {
			return nil, err
		}
		bases[i] = LineBasis{Line: line, Net: line.NetTotal()}
	}
	return bases, nil
}

// ReduceProportionally spreads amount across the qualifying line indexes in
// proportion to each line's share of their combined net. The last qualifying
// line absorbs the division remainder so the bases shrink by exactly amount.
// A basis never goes below zero.
func ReduceProportionally(bases []LineBasis, qualifying []int, amount decimal.Decimal) {
	if len(qualifying) == 0 || amount.Sign() <= 0 {
		return
	}

	total := decimal.Zero
	for _, i := range qualifying {
		total = total.Add(bases[i].Net)
	}
	if total.Sign() <= 0 {
		return
	}
	if amount.GreaterThan(total) {
		amount = total
	}

	remaining := amount
	for n, i := range qualifying {
		var cut decimal.Decimal
		if n == len(qualifying)-1 {
			cut = remaining
		} else {
			cut = amount.Mul(bases[i].Net).Div(total)
			if cut.GreaterThan(bases[i].Net) {
				cut = bases[i].Net
			}
		}
		bases[i].Net = bases[i].Net.Sub(cut)
		if bases[i].Net.Sign() < 0 {
			bases[i].Net = decimal.Zero
		}
		remaining = remaining.Sub(cut)
	}
}

// ValueBases computes VAT over the given bases and aggregates totals plus the
// per-nominal-rate breakdown. Amounts accumulate unrounded; each bucket is
// rounded once at the end and the totals are sums of rounded buckets, so
// gross == net + vat holds exactly at output precision.
func ValueBases(calc *vat.Calculator, bases []LineBasis, status domain.CustomerTaxStatus) (*domain.CartTotals, error) {
	type acc struct {
		net decimal.Decimal
		vat decimal.Decimal
	}
	buckets := make(map[domain.VatRate]*acc)
	reverseCharge := false

	for _, b := range bases {
		result, err := calc.Calculate(b.Net, b.Line.VatRate, status)
		if err != nil {
			return nil, err
		}
		if result.ReverseCharge {
			reverseCharge = true
		}

		// Keyed by the nominal rate even when effective VAT is zero, so
		// reporting still sees which band the net came from.
		bucket, ok := buckets[b.Line.VatRate]
		if !ok {
			bucket = &acc{net: decimal.Zero, vat: decimal.Zero}
			buckets[b.Line.VatRate] = bucket
		}
		bucket.net = bucket.net.Add(result.Net)
		bucket.vat = bucket.vat.Add(result.Vat)
	}

	totals := &domain.CartTotals{
		NetTotal:      decimal.Zero,
		VatTotal:      decimal.Zero,
		GrossTotal:    decimal.Zero,
		Breakdown:     make(map[domain.VatRate]domain.RateBucket, len(buckets)),
		ReverseCharge: reverseCharge,
	}

	for rate, bucket := range buckets {
		net := domain.RoundMoney(bucket.net)
		vatAmount := domain.RoundMoney(bucket.vat)
		gross := net.Add(vatAmount)

		totals.Breakdown[rate] = domain.RateBucket{Net: net, Vat: vatAmount, Gross: gross}
		totals.NetTotal = totals.NetTotal.Add(net)
		totals.VatTotal = totals.VatTotal.Add(vatAmount)
		totals.GrossTotal = totals.GrossTotal.Add(gross)
	}

	return totals, nil
}

// ValueCart values a cart snapshot at full price. Empty carts value to
// all-zero totals, not an error.
func ValueCart(calc *vat.Calculator, lines []domain.CartLine, status domain.CustomerTaxStatus) (*domain.CartTotals, error) {
	bases, err := Bases(lines)
	if err != nil {
		return nil, err
	}
	return ValueBases(calc, bases, status)
}
