package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesadmin/internal/cafe24"
	"salesadmin/internal/config"
	"salesadmin/internal/database"
	"salesadmin/internal/logger"
	"salesadmin/internal/repository"
	"salesadmin/internal/sales"
	"salesadmin/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type summary struct {
	MallID      string             `json:"mallId"`
	StartDate   string             `json:"startDate"`
	EndDate     string             `json:"endDate"`
	DeviceType  string             `json:"deviceType"`
	Stats       sales.OrderStats   `json:"stats"`
	TopProducts []sales.TopProduct `json:"topProducts"`
	DailySales  []sales.DailySales `json:"dailySales"`
	FetchedIn   string             `json:"fetchedIn"`
}

func main() {
	today := sales.TodayKST(time.Now())
	start := flag.String("start", today, "Start date (YYYY-MM-DD, KST)")
	end := flag.String("end", today, "End date (YYYY-MM-DD, KST)")
	device := flag.String("device", service.DeviceAll, "Device filter: all, pc or mobile")
	top := flag.Int("top", sales.DefaultTopProducts, "Number of top products")
	quiet := flag.Bool("q", false, "Hide the progress bar")
	flag.Parse()

	if err := run(*start, *end, *device, *top, *quiet); err != nil {
		fmt.Fprintln(os.Stderr, "orderstats:", err)
		os.Exit(1)
	}
}

func run(start, end, device string, top int, quiet bool) error {
	switch device {
	case service.DeviceAll, service.DevicePC, service.DeviceMobile:
	default:
		return fmt.Errorf("unknown device %q", device)
	}
	if _, err := cafe24.DaySpan(start, end); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := tokenStore(cfg)
	if err != nil {
		return err
	}
	provider := cafe24.NewTokenProvider(store, cafe24.NewOAuth(cafe24.OAuthConfig{
		MallID:       cfg.Cafe24.MallID,
		ClientID:     cfg.Cafe24.ClientID,
		ClientSecret: cfg.Cafe24.ClientSecret,
		RedirectURI:  cfg.Cafe24.RedirectURI,
	}))

	token, err := provider.AccessToken(ctx)
	if errors.Is(err, cafe24.ErrNeedsAuth) {
		return fmt.Errorf("%w: authorize the mall at %s first", err, provider.AuthURL())
	}
	if err != nil {
		return err
	}

	client := cafe24.NewClient(cfg.Cafe24.MallID,
		cafe24.WithAPIVersion(cfg.Cafe24.APIVersion),
		cafe24.WithRateLimit(cfg.Cafe24.RateLimitRPS, cfg.Cafe24.RateBurst),
	)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if quiet {
			return
		}
		if bar == nil {
			bar = progressbar.Default(int64(total), "fetching orders")
		}
		_ = bar.Set(done)
	}

	began := time.Now()
	orders, err := client.FetchOrders(ctx, token, start, end, progress)
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	log.Info("orders fetched", zap.Int("count", len(orders)), zap.Duration("elapsed", time.Since(began)))

	orders = service.FilterByDevice(orders, device)
	out := summary{
		MallID:      cfg.Cafe24.MallID,
		StartDate:   start,
		EndDate:     end,
		DeviceType:  device,
		Stats:       sales.CalculateOrderStats(orders),
		TopProducts: sales.CalculateTopProducts(orders, top),
		DailySales:  sales.CalculateDailySales(orders),
		FetchedIn:   time.Since(began).Round(time.Millisecond).String(),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// tokenStore reads the grant from wherever the API server keeps it
func tokenStore(cfg *config.Config) (cafe24.TokenStore, error) {
	if cfg.Redis.Addr != "" {
		return cafe24.NewRedisTokenStore(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})), nil
	}

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}
	return repository.NewCafe24TokenRepository(db, cfg.Cafe24.MallID), nil
}
