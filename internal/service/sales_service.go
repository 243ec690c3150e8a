package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"salesadmin/internal/cafe24"
	"salesadmin/internal/model"
	"salesadmin/internal/sales"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DeviceAll    = "all"
	DevicePC     = "pc"
	DeviceMobile = "mobile"

	SortDate   = "date"
	SortAmount = "amount"

	recentOrderLimit = 10
	noProductName    = "상품정보 없음"
)

// OrderSource fetches every order placed in an inclusive date range
type OrderSource interface {
	FetchOrders(ctx context.Context, token, start, end string, progress cafe24.ProgressFunc) ([]model.Order, error)
}

// TokenSource hands out a usable Cafe24 access token and drives the OAuth grant
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Authenticated(ctx context.Context) bool
	AuthURL() string
	SaveGrant(ctx context.Context, code string) error
}

type SalesQuery struct {
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	DeviceType string `form:"deviceType" binding:"omitempty,oneof=all pc mobile"`
	Sort       string `form:"sort" binding:"omitempty,oneof=date amount"`
	Order      string `form:"order" binding:"omitempty,oneof=asc desc"`
}

type SalesReport struct {
	Success              bool                     `json:"success"`
	MallID               string                   `json:"mallId"`
	BrandName            string                   `json:"brandName,omitempty"`
	StartDate            string                   `json:"startDate"`
	EndDate              string                   `json:"endDate"`
	DeviceType           string                   `json:"deviceType"`
	Stats                sales.OrderStats         `json:"stats"`
	OrderStatus          []model.OrderStatusCount `json:"orderStatus"`
	PaymentMethods       map[string]int           `json:"paymentMethods"`
	TopProducts          []sales.TopProduct       `json:"topProducts"`
	DailySales           []sales.DailySales       `json:"dailySales"`
	HourlySales          []sales.HourlySales      `json:"hourlySales"`
	RecentOrders         []model.RecentOrder      `json:"recentOrders"`
	YesterdayHourlySales []sales.HourlySales      `json:"yesterdayHourlySales,omitempty"`
	YesterdayStats       *sales.OrderStats        `json:"yesterdayStats,omitempty"`
	LastUpdated          string                   `json:"lastUpdated"`
}

type Cafe24Status struct {
	Authenticated bool   `json:"authenticated"`
	AuthURL       string `json:"authUrl"`
}

type SalesService interface {
	Report(ctx context.Context, q SalesQuery) (*SalesReport, error)
	AuthStatus(ctx context.Context) Cafe24Status
	AuthURL() string
	CompleteAuth(ctx context.Context, code string) error
}

type SalesServiceConfig struct {
	MallID    string
	BrandName string
}

type salesService struct {
	orders    OrderSource
	tokens    TokenSource
	audit     AuditService
	publisher EventPublisher
	cfg       SalesServiceConfig
	now       func() time.Time
}

func NewSalesService(orders OrderSource, tokens TokenSource, audit AuditService, publisher EventPublisher, cfg SalesServiceConfig) SalesService {
	return &salesService{
		orders:    orders,
		tokens:    tokens,
		audit:     audit,
		publisher: publisherOrNoop(publisher),
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *salesService) AuthURL() string {
	return s.tokens.AuthURL()
}

func (s *salesService) AuthStatus(ctx context.Context) Cafe24Status {
	return Cafe24Status{
		Authenticated: s.tokens.Authenticated(ctx),
		AuthURL:       s.tokens.AuthURL(),
	}
}

// CompleteAuth exchanges the callback code and stores the resulting token
func (s *salesService) CompleteAuth(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("%w: missing authorization code", ErrInvalidRequest)
	}
	if err := s.tokens.SaveGrant(ctx, code); err != nil {
		return err
	}
	if err := s.audit.Record(ctx, nil, model.ActionCafe24Authorize, s.cfg.MallID, s.cfg.MallID, nil); err != nil {
		zap.L().Warn("cafe24 authorization not audited", zap.Error(err))
	}
	return nil
}

// normalize fills defaults and validates the date range
func (s *salesService) normalize(q SalesQuery) (SalesQuery, error) {
	today := sales.TodayKST(s.now())
	if q.StartDate == "" {
		q.StartDate = today
	}
	if q.EndDate == "" {
		q.EndDate = q.StartDate
	}
	if q.DeviceType == "" {
		q.DeviceType = DeviceAll
	}
	if q.Sort == "" {
		q.Sort = SortDate
	}
	if q.Order == "" {
		q.Order = "desc"
	}

	start, err := time.Parse(sales.DateLayout, q.StartDate)
	if err != nil {
		return q, fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrInvalidRequest)
	}
	end, err := time.Parse(sales.DateLayout, q.EndDate)
	if err != nil {
		return q, fmt.Errorf("%w: endDate must be YYYY-MM-DD", ErrInvalidRequest)
	}
	if end.Before(start) {
		return q, fmt.Errorf("%w: startDate must not be after endDate", ErrInvalidRequest)
	}
	return q, nil
}

// Report fetches the range and builds the dashboard payload. A range of exactly
// today also carries yesterday's hourly series for comparison.
func (s *salesService) Report(ctx context.Context, q SalesQuery) (*SalesReport, error) {
	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := sales.TodayKST(now)
	withYesterday := q.StartDate == today && q.EndDate == today

	var current, previous []model.Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := s.orders.FetchOrders(gctx, token, q.StartDate, q.EndDate, nil)
		current = orders
		return err
	})
	if withYesterday {
		yesterday := now.In(sales.KST).AddDate(0, 0, -1).Format(sales.DateLayout)
		g.Go(func() error {
			orders, err := s.orders.FetchOrders(gctx, token, yesterday, yesterday, nil)
			previous = orders
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	current = FilterByDevice(current, q.DeviceType)
	stats := sales.CalculateOrderStats(current)

	report := &SalesReport{
		Success:        true,
		MallID:         s.cfg.MallID,
		BrandName:      s.cfg.BrandName,
		StartDate:      q.StartDate,
		EndDate:        q.EndDate,
		DeviceType:     q.DeviceType,
		Stats:          stats,
		OrderStatus:    statusHistogram(stats.OrderStatusCount),
		PaymentMethods: stats.PaymentMethodCount,
		TopProducts:    sales.CalculateTopProducts(current, sales.DefaultTopProducts),
		DailySales:     sales.CalculateDailySales(current),
		HourlySales:    sales.CalculateHourlySales(current),
		RecentOrders:   recentOrders(current, q.Sort, q.Order, recentOrderLimit),
		LastUpdated:    now.UTC().Format(time.RFC3339),
	}

	if withYesterday {
		previous = FilterByDevice(previous, q.DeviceType)
		yStats := sales.CalculateOrderStats(previous)
		report.YesterdayStats = &yStats
		report.YesterdayHourlySales = sales.CalculateHourlySales(previous)
	}

	zap.L().Info("sales report built",
		zap.String("start", q.StartDate),
		zap.String("end", q.EndDate),
		zap.Int("orders", stats.TotalOrders),
		zap.Int64("total_sales", stats.TotalAmount),
	)

	s.publisher.Publish(EventSalesRefreshed, map[string]interface{}{
		"startDate":   q.StartDate,
		"endDate":     q.EndDate,
		"totalSales":  stats.TotalAmount,
		"totalOrders": stats.TotalOrders,
	})

	return report, nil
}

// FilterByDevice keeps orders placed from the requested device class
func FilterByDevice(orders []model.Order, device string) []model.Order {
	if device == "" || device == DeviceAll {
		return orders
	}

	wantMobile := device == DeviceMobile
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.IsMobile() == wantMobile {
			out = append(out, o)
		}
	}
	return out
}

func statusHistogram(counts map[string]int) []model.OrderStatusCount {
	res := make([]model.OrderStatusCount, 0, len(counts))
	for code, n := range counts {
		res = append(res, model.OrderStatusCount{Status: code, Label: sales.StatusLabel(code), Count: n})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Status < res[j].Status
	})
	return res
}

func recentOrders(orders []model.Order, sortBy, order string, limit int) []model.RecentOrder {
	rows := make([]model.RecentOrder, 0, len(orders))
	for _, o := range orders {
		name := noProductName
		if len(o.Items) > 0 && o.Items[0].ProductName != "" {
			name = o.Items[0].ProductName
		}
		rows = append(rows, model.RecentOrder{
			OrderID:     o.OrderID,
			OrderDate:   o.OrderDate,
			Status:      sales.StatusLabel(sales.PrimaryStatus(o)),
			Amount:      sales.OrderAmount(o),
			ProductName: name,
			ItemCount:   len(o.Items),
		})
	}

	less := func(i, j int) bool { return rows[i].OrderDate < rows[j].OrderDate }
	if sortBy == SortAmount {
		less = func(i, j int) bool { return rows[i].Amount < rows[j].Amount }
	}
	if order == "asc" {
		sort.SliceStable(rows, less)
	} else {
		sort.SliceStable(rows, func(i, j int) bool { return less(j, i) })
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
