package sales

import (
	"salesadmin/internal/model"

	"github.com/shopspring/decimal"
)

var (
	vatDivisor = decimal.RequireFromString("1.1")
	half       = decimal.RequireFromString("0.5")
)

// roundWon rounds half up to a whole won. Negative halves round toward zero.
func roundWon(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}

// parseAmount reads a Cafe24 money field; malformed values count as zero
func parseAmount(a model.Amount) decimal.Decimal {
	if !a.Present() {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(string(a))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// OrderAmount resolves the paid amount of an order. The first present field wins:
// actual_order_amount.payment_amount, payment_amount, total_order_amount, and
// finally order_price_amount less points, credits and coupon discount.
func OrderAmount(o model.Order) int64 {
	switch {
	case o.ActualOrderAmount != nil && o.ActualOrderAmount.PaymentAmount.Present():
		return roundWon(parseAmount(o.ActualOrderAmount.PaymentAmount))
	case o.PaymentAmount.Present():
		return roundWon(parseAmount(o.PaymentAmount))
	case o.TotalOrderAmount.Present():
		return roundWon(parseAmount(o.TotalOrderAmount))
	case o.OrderPriceAmount.Present():
		net := parseAmount(o.OrderPriceAmount).
			Sub(parseAmount(o.PointsSpentAmount)).
			Sub(parseAmount(o.CreditsSpentAmount)).
			Sub(parseAmount(o.CouponDiscountPrice))
		return roundWon(net)
	}
	return 0
}

// ExcludeVAT backs the 10% VAT out of a VAT-inclusive amount
func ExcludeVAT(amount int64) int64 {
	return roundWon(decimal.NewFromInt(amount).Div(vatDivisor))
}

// lineTotal is round(price * quantity) for a line item
func lineTotal(item model.OrderItem) int64 {
	return roundWon(parseAmount(item.ProductPrice).Mul(decimal.NewFromInt(int64(itemQuantity(item)))))
}

// itemQuantity treats a missing quantity as one unit
func itemQuantity(item model.OrderItem) int {
	if item.Quantity > 0 {
		return item.Quantity
	}
	return 1
}
