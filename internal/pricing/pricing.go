// Package pricing implements the cart price aggregation rules: per-line price
// from unit price plus customization deltas, order-independent subtotal, and
// the delivery-fee/tax total. All arithmetic is decimal; rounding to two
// places happens once, at Totals.Rounded, never on intermediate values.
package pricing

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/Andrewcephas/food-fusion-commerce-hub/internal/domain"
)

// Config carries the environment-driven pricing knobs.
type Config struct {
	DeliveryFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// Line is the pricing view of a cart line: everything needed to compute its
// price, decoupled from where the line is stored.
type Line struct {
	UnitPrice    decimal.Decimal
	OptionDeltas []decimal.Decimal
	Quantity     int
}

// Totals breaks a cart's price down the way the checkout summary shows it.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// LinePrice is (unit price + sum of option deltas) x quantity.
func LinePrice(l Line) decimal.Decimal {
	unit := l.UnitPrice
	for _, d := range l.OptionDeltas {
		unit = unit.Add(d)
	}
	return unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal sums LinePrice over all lines. Decimal addition is exact, so the
// result does not depend on line order.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LinePrice(l))
	}
	return sum
}

// Compute returns the full breakdown: subtotal + deliveryFee + subtotal*taxRate.
// An empty cart yields a zero subtotal and zero tax; rejecting empty checkouts
// is the checkout service's job, not the calculator's.
func Compute(lines []Line, cfg Config) Totals {
	subtotal := Subtotal(lines)
	tax := subtotal.Mul(cfg.TaxRate)
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: cfg.DeliveryFee,
		Tax:         tax,
		Total:       subtotal.Add(cfg.DeliveryFee).Add(tax),
	}
}

// Rounded banks each component to two decimal places for display and
// persistence. The total is rounded as a whole, not rebuilt from the rounded
// parts, so repeated computation never drifts.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:    t.Subtotal.Round(2),
		DeliveryFee: t.DeliveryFee.Round(2),
		Tax:         t.Tax.Round(2),
		Total:       t.Total.Round(2),
	}
}

// Deltas resolves a line's selected options against the product's
// customization groups. Unknown groups or labels contribute nothing; the
// structured PriceDelta field is the only pricing input.
func Deltas(groups []domain.CustomizationGroup, selected map[string]string) []decimal.Decimal {
	if len(selected) == 0 {
		return nil
	}
	deltas := make([]decimal.Decimal, 0, len(selected))
	for _, g := range groups {
		label, ok := selected[g.Name]
		if !ok {
			continue
		}
		if opt, ok := g.Option(label); ok {
			deltas = append(deltas, opt.PriceDelta)
		}
	}
	return deltas
}

var labelDeltaRe = regexp.MustCompile(`\(([+-])\$(\d+(?:\.\d{1,2})?)\)`)

// ParseLabelDelta extracts a signed price delta embedded in a legacy option
// label, e.g. "Extra Cheese (+$2.00)" or "No Meat (-$3)". Labels without an
// embedded amount yield zero. New catalog rows carry the structured
// PriceDelta field instead; this exists to migrate and display old rows.
func ParseLabelDelta(label string) decimal.Decimal {
	m := labelDeltaRe.FindStringSubmatch(label)
	if m == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(m[2])
	if err != nil {
		return decimal.Zero
	}
	if m[1] == "-" {
		return d.Neg()
	}
	return d
}
