package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Amount is a monetary field as Cafe24 sends it: a decimal string, occasionally a bare number or null
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(s))
		return nil
	}
	*a = Amount(b)
	return nil
}

// Present reports whether the field carried a value
func (a Amount) Present() bool {
	return a != ""
}

// PaymentMethods accepts both the list form and the legacy single-string form
type PaymentMethods []string

func (p *PaymentMethods) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*p = nil
		} else {
			*p = PaymentMethods{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*p = list
	return nil
}

// ActualOrderAmount is the settled amount block embedded in a Cafe24 order
type ActualOrderAmount struct {
	OrderPriceAmount    Amount `json:"order_price_amount"`
	ShippingFee         Amount `json:"shipping_fee"`
	PointsSpentAmount   Amount `json:"points_spent_amount"`
	CreditsSpentAmount  Amount `json:"credits_spent_amount"`
	CouponDiscountPrice Amount `json:"coupon_discount_price"`
	PaymentAmount       Amount `json:"payment_amount"`
}

// Order is a read-only Cafe24 order record with its line items embedded
type Order struct {
	OrderID             string             `json:"order_id"`
	OrderDate           string             `json:"order_date"`
	PaymentAmount       Amount             `json:"payment_amount"`
	TotalOrderAmount    Amount             `json:"total_order_amount"`
	OrderPriceAmount    Amount             `json:"order_price_amount"`
	PointsSpentAmount   Amount             `json:"points_spent_amount"`
	CreditsSpentAmount  Amount             `json:"credits_spent_amount"`
	CouponDiscountPrice Amount             `json:"coupon_discount_price"`
	ActualOrderAmount   *ActualOrderAmount `json:"actual_order_amount,omitempty"`
	PaymentMethod       PaymentMethods     `json:"payment_method"`
	OrderFromMobile     string             `json:"order_from_mobile"`
	Items               []OrderItem        `json:"items"`
}

// OrderItem is a single line of an order
type OrderItem struct {
	OrderItemCode string `json:"order_item_code"`
	OrderStatus   string `json:"order_status"`
	ProductName   string `json:"product_name"`
	Quantity      int    `json:"quantity"`
	ProductPrice  Amount `json:"product_price"`
}

// IsMobile reports whether the order was placed from a mobile device
func (o Order) IsMobile() bool {
	return o.OrderFromMobile == "T"
}

// FirstPaymentMethod returns the first listed payment method or "unknown"
func (o Order) FirstPaymentMethod() string {
	if len(o.PaymentMethod) > 0 && o.PaymentMethod[0] != "" {
		return o.PaymentMethod[0]
	}
	return "unknown"
}
