// Package sales turns raw Cafe24 orders into dashboard figures.
//
// Every function here is pure. Orders are classified by the primary-status
// rule: the status of the first line item stands for the whole order. Amounts
// are whole won, and VAT is backed out by dividing by 1.1. Where the VAT
// exclusion happens differs per aggregate and is part of each function's
// contract:
//
//   - CalculateOrderStats sums raw amounts and excludes VAT once per bucket.
//   - CalculateDailySales and CalculateHourlySales exclude VAT per order.
//   - CalculateTopProducts excludes VAT per line item.
//
// Hours and dates use the fixed KST offset (UTC+9), never the host time zone.
package sales
