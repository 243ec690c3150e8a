package sales

import (
	"sort"
	"testing"

	"salesadmin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(id, status, amount, date string, items ...model.OrderItem) model.Order {
	if len(items) == 0 {
		items = []model.OrderItem{{OrderStatus: status, ProductName: "상품", Quantity: 1, ProductPrice: model.Amount(amount)}}
	}
	return model.Order{
		OrderID:       id,
		OrderDate:     date,
		PaymentAmount: model.Amount(amount),
		Items:         items,
	}
}

func TestCalculateOrderStats_SingleValidOrder(t *testing.T) {
	orders := []model.Order{
		order("A-1", "N10", "11000", "2024-01-01T01:00:00Z", model.OrderItem{
			OrderStatus: "N10", Quantity: 1, ProductName: "A", ProductPrice: "11000",
		}),
	}

	stats := CalculateOrderStats(orders)
	assert.Equal(t, int64(10000), stats.TotalAmount)
	assert.Equal(t, 1, stats.ValidOrders)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, int64(10000), stats.AverageOrderValue)
	assert.Equal(t, 1, stats.TotalItems)

	hourly := CalculateHourlySales(orders)
	assert.Equal(t, int64(10000), hourly[10].Sales)
	assert.Equal(t, 1, hourly[10].Orders)
}

func TestCalculateOrderStats_CancelledOrder(t *testing.T) {
	stats := CalculateOrderStats([]model.Order{
		order("C-1", "C34", "5000", "2024-01-01T03:00:00Z"),
	})

	assert.Equal(t, int64(0), stats.TotalAmount)
	assert.Equal(t, 1, stats.CancelRefundOrders)
	assert.Equal(t, int64(4545), stats.CancelRefundAmount)
	assert.Equal(t, 0, stats.ValidOrders)
	assert.Equal(t, int64(0), stats.AverageOrderValue)
}

func TestCalculateOrderStats_PendingOnlyInPendingBucket(t *testing.T) {
	stats := CalculateOrderStats([]model.Order{
		order("P-1", "N00", "22000", "2024-01-01T03:00:00Z"),
		order("V-1", "N40", "11000", "2024-01-01T04:00:00Z"),
	})

	assert.Equal(t, 1, stats.PendingOrders)
	assert.Equal(t, int64(20000), stats.PendingAmount)
	assert.Equal(t, int64(10000), stats.TotalAmount)
	assert.Equal(t, 1, stats.ValidOrders)
}

func TestCalculateOrderStats_VATAfterSummation(t *testing.T) {
	stats := CalculateOrderStats([]model.Order{
		order("V-1", "N10", "5", "2024-01-01T00:00:00Z"),
		order("V-2", "N10", "5", "2024-01-01T00:00:00Z"),
	})

	// per-order exclusion would give 5 + 5
	assert.Equal(t, int64(10), ExcludeVAT(5)+ExcludeVAT(5))
	assert.Equal(t, int64(9), stats.TotalAmount)
	assert.Equal(t, int64(5), stats.AverageOrderValue)

	daily := CalculateDailySales([]model.Order{
		order("V-1", "N10", "5", "2024-01-01T00:00:00Z"),
		order("V-2", "N10", "5", "2024-01-01T00:00:00Z"),
	})
	require.Len(t, daily, 1)
	assert.Equal(t, int64(10), daily[0].Sales)
}

func TestCalculateOrderStats_Histograms(t *testing.T) {
	mixed := model.Order{
		OrderID:       "M-1",
		OrderDate:     "2024-01-01T00:00:00Z",
		PaymentAmount: "1000",
		PaymentMethod: model.PaymentMethods{"card", "point"},
		Items: []model.OrderItem{
			{OrderStatus: "N40", Quantity: 2},
			{OrderStatus: "C34", Quantity: 1},
			{Quantity: 0},
		},
	}
	noMethod := order("M-2", "N10", "1000", "2024-01-01T00:00:00Z")

	stats := CalculateOrderStats([]model.Order{mixed, noMethod})

	assert.Equal(t, map[string]int{"N40": 1, "C34": 1, StatusUnknown: 1, "N10": 1}, stats.OrderStatusCount)
	assert.Equal(t, map[string]int{"card": 1, "unknown": 1}, stats.PaymentMethodCount)
	assert.Equal(t, 5, stats.TotalItems)
	assert.Equal(t, 2, stats.ValidOrders)
}

func TestCalculateOrderStats_Empty(t *testing.T) {
	stats := CalculateOrderStats(nil)
	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.AverageOrderValue)
	assert.NotNil(t, stats.OrderStatusCount)
	assert.NotNil(t, stats.PaymentMethodCount)
}

func TestCalculateTopProducts(t *testing.T) {
	orders := []model.Order{
		{Items: []model.OrderItem{
			{OrderStatus: "N40", ProductName: "B", Quantity: 1, ProductPrice: "1100"},
			{OrderStatus: "N40", ProductName: "A", Quantity: 2, ProductPrice: "1100"},
		}},
		{Items: []model.OrderItem{
			// item-level filter even though the order's primary status is valid
			{OrderStatus: "N10", ProductName: "C", Quantity: 1, ProductPrice: "1100"},
			{OrderStatus: "R12", ProductName: "A", Quantity: 9, ProductPrice: "1100"},
			{OrderStatus: "N00", ProductName: "D", Quantity: 9, ProductPrice: "9900"},
		}},
	}

	top := CalculateTopProducts(orders, 10)
	require.Len(t, top, 3)
	assert.Equal(t, TopProduct{Name: "A", Quantity: 2, Sales: 2000}, top[0])
	// B and C tie and keep first-seen order
	assert.Equal(t, "B", top[1].Name)
	assert.Equal(t, "C", top[2].Name)

	limited := CalculateTopProducts(orders, 1)
	assert.Len(t, limited, 1)
}

func TestCalculateTopProducts_DefaultLimit(t *testing.T) {
	var items []model.OrderItem
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		items = append(items, model.OrderItem{OrderStatus: "N40", ProductName: name, Quantity: 1, ProductPrice: "1000"})
	}

	top := CalculateTopProducts([]model.Order{{Items: items}}, 0)
	assert.Len(t, top, DefaultTopProducts)
	assert.True(t, sort.SliceIsSorted(top, func(i, j int) bool { return top[i].Sales > top[j].Sales }))
	assert.Equal(t, "a", top[0].Name)
}

func TestCalculateDailySales(t *testing.T) {
	orders := []model.Order{
		order("3", "N40", "2200", "2024-01-03T10:00:00+09:00"),
		order("1", "N40", "1100", "2024-01-01T10:00:00+09:00"),
		order("2", "N00", "1100", "2024-01-02T10:00:00+09:00"),
		order("4", "N40", "1100", "2024-01-01T23:00:00+09:00"),
		order("5", "C10", "1100", "2024-01-01T23:30:00+09:00"),
	}

	daily := CalculateDailySales(orders)
	assert.Equal(t, []DailySales{
		{Date: "2024-01-01", Sales: 2000, Orders: 2},
		{Date: "2024-01-03", Sales: 2000, Orders: 1},
	}, daily)
}

func TestCalculateDailySales_Empty(t *testing.T) {
	assert.Empty(t, CalculateDailySales(nil))
}

func TestCalculateHourlySales_AlwaysTwentyFourHours(t *testing.T) {
	hourly := CalculateHourlySales(nil)
	require.Len(t, hourly, 24)
	for h, point := range hourly {
		assert.Equal(t, h, point.Hour)
		assert.Zero(t, point.Sales)
		assert.Zero(t, point.Orders)
	}
}

func TestCalculateHourlySales_KSTBucketing(t *testing.T) {
	orders := []model.Order{
		order("1", "N40", "1100", "2024-01-01T20:30:00Z"),
		order("2", "N40", "1100", "2024-01-02T05:30:00+09:00"),
		order("3", "N40", "1100", "2024-01-02T05:00:00"),
		order("4", "N40", "1100", "not a timestamp"),
		order("5", "N00", "1100", "2024-01-02T05:00:00Z"),
	}

	hourly := CalculateHourlySales(orders)
	assert.Equal(t, HourlySales{Hour: 5, Sales: 2000, Orders: 2}, hourly[5])
	assert.Equal(t, HourlySales{Hour: 14, Sales: 1000, Orders: 1}, hourly[14])

	var total int
	for _, h := range hourly {
		total += h.Orders
	}
	assert.Equal(t, 3, total)
}

func TestKSTHour(t *testing.T) {
	hour, ok := KSTHour("2024-01-01T15:00:00Z")
	require.True(t, ok)
	assert.Equal(t, 0, hour)

	_, ok = KSTHour("")
	assert.False(t, ok)
}
