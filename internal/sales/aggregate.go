package sales

import (
	"sort"
	"strings"
	"time"

	"salesadmin/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultTopProducts is the ranking size used when no limit is given
const DefaultTopProducts = 5

const kstOffsetHours = 9

// KST is Korea Standard Time, which has no daylight saving
var KST = time.FixedZone("KST", kstOffsetHours*3600)

// DateLayout is the YYYY-MM-DD form used for query ranges
const DateLayout = "2006-01-02"

// TodayKST returns the KST calendar date of now
func TodayKST(now time.Time) string {
	return now.In(KST).Format(DateLayout)
}

// OrderStats is the summary of an order set
type OrderStats struct {
	TotalAmount        int64          `json:"totalSales"`
	TotalOrders        int            `json:"totalOrders"`
	ValidOrders        int            `json:"validOrders"`
	PendingOrders      int            `json:"pendingOrders"`
	PendingAmount      int64          `json:"pendingAmount"`
	CancelRefundOrders int            `json:"cancelRefundOrders"`
	CancelRefundAmount int64          `json:"cancelRefundAmount"`
	TotalItems         int            `json:"totalItems"`
	AverageOrderValue  int64          `json:"averageOrderValue"`
	OrderStatusCount   map[string]int `json:"-"`
	PaymentMethodCount map[string]int `json:"-"`
}

// DailySales is one calendar date of valid sales
type DailySales struct {
	Date   string `json:"date"`
	Sales  int64  `json:"sales"`
	Orders int    `json:"orders"`
}

// HourlySales is one KST hour of valid sales
type HourlySales struct {
	Hour   int   `json:"hour"`
	Sales  int64 `json:"sales"`
	Orders int   `json:"orders"`
}

// TopProduct is a product ranked by VAT-exclusive sales
type TopProduct struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Sales    int64  `json:"sales"`
}

// CalculateOrderStats folds orders into the summary. Amounts are summed raw per
// bucket and VAT is excluded once on each total. The status histogram counts
// every line item, not only the primary one.
func CalculateOrderStats(orders []model.Order) OrderStats {
	stats := OrderStats{
		OrderStatusCount:   make(map[string]int),
		PaymentMethodCount: make(map[string]int),
	}

	var validTotal, pendingTotal, cancelTotal int64
	for _, o := range orders {
		stats.TotalOrders++
		amount := OrderAmount(o)

		switch ClassifyOrder(o) {
		case ClassPending:
			stats.PendingOrders++
			pendingTotal += amount
		case ClassCancelRefund:
			stats.CancelRefundOrders++
			cancelTotal += amount
		default:
			stats.ValidOrders++
			validTotal += amount
		}

		for _, item := range o.Items {
			stats.TotalItems += itemQuantity(item)
			status := item.OrderStatus
			if status == "" {
				status = StatusUnknown
			}
			stats.OrderStatusCount[status]++
		}

		stats.PaymentMethodCount[o.FirstPaymentMethod()]++
	}

	stats.TotalAmount = ExcludeVAT(validTotal)
	stats.PendingAmount = ExcludeVAT(pendingTotal)
	stats.CancelRefundAmount = ExcludeVAT(cancelTotal)

	if stats.ValidOrders > 0 {
		avg := decimal.NewFromInt(stats.TotalAmount).Div(decimal.NewFromInt(int64(stats.ValidOrders)))
		stats.AverageOrderValue = roundWon(avg)
	}

	return stats
}

// CalculateTopProducts ranks products over valid line items. The filter is the
// item's own status, and VAT is excluded per line. Ties keep first-seen order.
func CalculateTopProducts(orders []model.Order, limit int) []TopProduct {
	if limit <= 0 {
		limit = DefaultTopProducts
	}

	index := make(map[string]int)
	products := make([]TopProduct, 0)
	for _, o := range orders {
		for _, item := range o.Items {
			if Classify(item.OrderStatus) != ClassValid {
				continue
			}

			i, ok := index[item.ProductName]
			if !ok {
				i = len(products)
				index[item.ProductName] = i
				products = append(products, TopProduct{Name: item.ProductName})
			}
			products[i].Quantity += itemQuantity(item)
			products[i].Sales += ExcludeVAT(lineTotal(item))
		}
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Sales > products[j].Sales
	})

	if len(products) > limit {
		products = products[:limit]
	}
	return products
}

// CalculateDailySales groups valid orders by the date part of order_date,
// excluding VAT per order, ascending by date.
func CalculateDailySales(orders []model.Order) []DailySales {
	byDate := make(map[string]*DailySales)
	for _, o := range orders {
		if ClassifyOrder(o) != ClassValid {
			continue
		}

		date, _, _ := strings.Cut(o.OrderDate, "T")
		day, ok := byDate[date]
		if !ok {
			day = &DailySales{Date: date}
			byDate[date] = day
		}
		day.Sales += ExcludeVAT(OrderAmount(o))
		day.Orders++
	}

	series := make([]DailySales, 0, len(byDate))
	for _, day := range byDate {
		series = append(series, *day)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})
	return series
}

// CalculateHourlySales returns all 24 KST hours in order, zero-filled,
// excluding VAT per order. Orders whose timestamp cannot be parsed are skipped.
func CalculateHourlySales(orders []model.Order) []HourlySales {
	series := make([]HourlySales, 24)
	for h := range series {
		series[h].Hour = h
	}

	for _, o := range orders {
		if ClassifyOrder(o) != ClassValid {
			continue
		}

		hour, ok := KSTHour(o.OrderDate)
		if !ok {
			continue
		}
		series[hour].Sales += ExcludeVAT(OrderAmount(o))
		series[hour].Orders++
	}
	return series
}

// KSTHour converts an order timestamp to its hour of day at UTC+9.
// Timestamps without an offset are read as UTC.
func KSTHour(timestamp string) (int, bool) {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05", timestamp)
		if err != nil {
			return 0, false
		}
	}
	return (t.UTC().Hour() + kstOffsetHours) % 24, true
}
