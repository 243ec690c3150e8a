package sales

import (
	"encoding/json"
	"testing"

	"salesadmin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcludeVAT(t *testing.T) {
	tests := []struct {
		in   int64
		want int64
	}{
		{1100, 1000},
		{1099, 999},
		{0, 0},
		{11000, 10000},
		{55, 50},
		{1, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExcludeVAT(tt.in), "ExcludeVAT(%d)", tt.in)
	}
}

func TestOrderAmount_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		order model.Order
		want  int64
	}{
		{
			name: "actual payment amount wins",
			order: model.Order{
				ActualOrderAmount: &model.ActualOrderAmount{PaymentAmount: "5000"},
				PaymentAmount:     "9999",
			},
			want: 5000,
		},
		{
			name: "empty actual amount falls through",
			order: model.Order{
				ActualOrderAmount: &model.ActualOrderAmount{},
				PaymentAmount:     "9999",
			},
			want: 9999,
		},
		{
			name:  "total order amount",
			order: model.Order{TotalOrderAmount: "12000.00"},
			want:  12000,
		},
		{
			name: "order price less deductions",
			order: model.Order{
				OrderPriceAmount:    "20000",
				PointsSpentAmount:   "1000",
				CreditsSpentAmount:  "500",
				CouponDiscountPrice: "2000",
			},
			want: 16500,
		},
		{
			name:  "missing deductions count as zero",
			order: model.Order{OrderPriceAmount: "20000"},
			want:  20000,
		},
		{
			name:  "nothing present",
			order: model.Order{},
			want:  0,
		},
		{
			name:  "malformed amount is zero",
			order: model.Order{PaymentAmount: "n/a"},
			want:  0,
		},
		{
			name:  "fraction rounds half up",
			order: model.Order{PaymentAmount: "100.5"},
			want:  101,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderAmount(tt.order))
		})
	}
}

func TestOrderAmount_FromJSON(t *testing.T) {
	raw := `{
		"order_id": "20240101-0000001",
		"payment_amount": 9999,
		"actual_order_amount": {"payment_amount": " 5000.00 "},
		"payment_method": "card"
	}`

	var o model.Order
	require.NoError(t, json.Unmarshal([]byte(raw), &o))

	assert.Equal(t, int64(5000), OrderAmount(o))
	assert.Equal(t, "card", o.FirstPaymentMethod())
}

func TestLineTotal_DefaultsQuantity(t *testing.T) {
	assert.Equal(t, int64(3300), lineTotal(model.OrderItem{ProductPrice: "3300"}))
	assert.Equal(t, int64(6600), lineTotal(model.OrderItem{ProductPrice: "3300", Quantity: 2}))
}
