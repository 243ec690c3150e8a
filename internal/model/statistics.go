package model

// OrderStatusCount is one row of the per-status histogram shown on the dashboard
type OrderStatusCount struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// RecentOrder is the condensed order row shown in the dashboard's recent list
type RecentOrder struct {
	OrderID     string `json:"orderId"`
	OrderDate   string `json:"orderDate"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	ProductName string `json:"productName"`
	ItemCount   int    `json:"itemCount"`
}
