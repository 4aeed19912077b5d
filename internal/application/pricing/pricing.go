package pricing

import "math"

// Line is a priced cart line. Callers resolve the catalog themselves; a line
// whose product could not be resolved is passed with UnitPrice 0.
type Line struct {
	UnitPrice float64
	Quantity  int
}

type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	TotalDiscount float64 `json:"total_discount"`
	Tax           float64 `json:"tax"`
	ShippingFee   float64 `json:"shipping_fee"`
	Total         float64 `json:"total_price"`
	TotalQuantity int     `json:"total_quantity"`
}

// CalculateTotal prices a cart snapshot. discountPercent outside [0,100] is
// treated as no discount; taxRate is a fraction, not a percentage. Monetary
// outputs are rounded to 2 decimal places only at the end so rounding error
// does not compound across lines.
func CalculateTotal(lines []Line, shippingFee, taxRate, discountPercent float64) Totals {
	if discountPercent < 0 || discountPercent > 100 {
		discountPercent = 0
	}

	var subtotal, totalDiscount float64
	var totalQuantity int

	for _, l := range lines {
		lineTotal := l.UnitPrice * float64(l.Quantity)
		lineDiscount := lineTotal * discountPercent / 100
		subtotal += lineTotal - lineDiscount
		totalDiscount += lineDiscount
		totalQuantity += l.Quantity
	}

	tax := subtotal * taxRate
	total := subtotal + tax + shippingFee

	return Totals{
		Subtotal:      round2(subtotal),
		TotalDiscount: round2(totalDiscount),
		Tax:           round2(tax),
		ShippingFee:   round2(shippingFee),
		Total:         round2(total),
		TotalQuantity: totalQuantity,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
