package cafe24

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesadmin/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	pageLimit          = 100
	pageBatchSize      = 10
	periodBatchSize    = 3
	periodDays         = 3
	directFetchMaxDays = 5
)

const dateLayout = "2006-01-02"

// Period is an inclusive range of calendar dates
type Period struct {
	Start string
	End   string
}

// ProgressFunc is told how many sub-ranges are done out of the total
type ProgressFunc func(done, total int)

// DaySpan counts the calendar days of an inclusive range
func DaySpan(start, end string) (int, error) {
	s, e, err := parseRange(start, end)
	if err != nil {
		return 0, err
	}
	return int(e.Sub(s).Hours()/24) + 1, nil
}

// SplitPeriod cuts an inclusive range into consecutive sub-ranges of days
// calendar days each; the last one ends at the true end date.
func SplitPeriod(start, end string, days int) ([]Period, error) {
	s, e, err := parseRange(start, end)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, fmt.Errorf("period length must be positive, got %d", days)
	}

	var periods []Period
	for cur := s; !cur.After(e); cur = cur.AddDate(0, 0, days) {
		last := cur.AddDate(0, 0, days-1)
		if last.After(e) {
			last = e
		}
		periods = append(periods, Period{Start: cur.Format(dateLayout), End: last.Format(dateLayout)})
	}
	return periods, nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return s, e, nil
}

// FetchOrders returns every order in the inclusive date range. Short ranges are
// read page-parallel; longer ones are split into 3-day sub-ranges fetched three
// at a time. A page or sub-range that fails is logged and contributes nothing.
// Only an invalid range or a rejected credential is returned as an error.
func (c *Client) FetchOrders(ctx context.Context, token, start, end string, progress ProgressFunc) ([]model.Order, error) {
	span, err := DaySpan(start, end)
	if err != nil {
		return nil, err
	}

	if span <= directFetchMaxDays {
		orders, err := c.fetchPages(ctx, token, Period{Start: start, End: end})
		if progress != nil {
			progress(1, 1)
		}
		return orders, err
	}

	periods, err := SplitPeriod(start, end, periodDays)
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	for i := 0; i < len(periods); i += periodBatchSize {
		batch := periods[i:min(i+periodBatchSize, len(periods))]
		results := make([][]model.Order, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for j, p := range batch {
			g.Go(func() error {
				res, err := c.fetchPages(gctx, token, p)
				if errors.Is(err, ErrNeedsAuth) {
					return err
				}
				if err != nil {
					zap.L().Warn("cafe24 period fetch failed",
						zap.String("start", p.Start), zap.String("end", p.End), zap.Error(err))
					return nil
				}
				results[j] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, res := range results {
			orders = append(orders, res...)
		}
		if progress != nil {
			progress(i+len(batch), len(periods))
		}
	}
	return orders, nil
}

// fetchPages reads a range in batches of concurrent page requests until a page
// comes back short or a whole batch is empty.
func (c *Client) fetchPages(ctx context.Context, token string, p Period) ([]model.Order, error) {
	var orders []model.Order
	for offset := 0; ; offset += pageBatchSize * pageLimit {
		pages := make([][]model.Order, pageBatchSize)

		g, gctx := errgroup.WithContext(ctx)
		for i := range pages {
			pageOffset := offset + i*pageLimit
			g.Go(func() error {
				res, err := c.ListOrders(gctx, token, p.Start, p.End, pageOffset)
				if errors.Is(err, ErrNeedsAuth) {
					return err
				}
				if err != nil {
					zap.L().Warn("cafe24 page fetch failed",
						zap.String("start", p.Start), zap.String("end", p.End),
						zap.Int("offset", pageOffset), zap.Error(err))
					return nil
				}
				pages[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		exhausted := false
		batchTotal := 0
		for _, page := range pages {
			orders = append(orders, page...)
			batchTotal += len(page)
			if len(page) < pageLimit {
				exhausted = true
			}
		}
		if exhausted || batchTotal == 0 {
			return orders, nil
		}
	}
}
