package sales

import (
	"fmt"
	"math"
)

// Direction of a day-over-day change
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionSame Direction = "same"
)

// Change is a formatted day-over-day percentage
type Change struct {
	Text      string    `json:"text"`
	Direction Direction `json:"direction"`
}

// HourDelta compares one hour of today against the same hour yesterday
type HourDelta struct {
	Hour      int    `json:"hour"`
	Today     int64  `json:"today"`
	Yesterday int64  `json:"yesterday"`
	Change    Change `json:"change"`
}

// Comparison is the cumulative and recent-hours view up to a cutoff hour
type Comparison struct {
	Hour           int         `json:"hour"`
	TodayTotal     int64       `json:"todayTotal"`
	YesterdayTotal int64       `json:"yesterdayTotal"`
	Diff           int64       `json:"diff"`
	Change         Change      `json:"change"`
	Recent         []HourDelta `json:"recent"`
}

// recentWindow is how many hours, including the cutoff, the recent view covers
const recentWindow = 3

// PercentChange formats today against yesterday. Zero yesterday yields "NEW"
// when today sold anything and "-" otherwise.
func PercentChange(today, yesterday int64) Change {
	if yesterday == 0 {
		if today > 0 {
			return Change{Text: "NEW", Direction: DirectionUp}
		}
		return Change{Text: "-", Direction: DirectionSame}
	}

	// float64 then half up; 229 against 200 is +14%, not +15%
	ratio := float64(today-yesterday) / float64(yesterday) * 100
	pct := int64(math.Floor(ratio + 0.5))

	switch {
	case pct > 0:
		return Change{Text: fmt.Sprintf("+%d%%", pct), Direction: DirectionUp}
	case pct < 0:
		return Change{Text: fmt.Sprintf("%d%%", pct), Direction: DirectionDown}
	}
	return Change{Text: "0%", Direction: DirectionSame}
}

// SalesUntil sums sales for every hour up to and including cutoff
func SalesUntil(series []HourlySales, cutoff int) int64 {
	var total int64
	for _, h := range series {
		if h.Hour <= cutoff {
			total += h.Sales
		}
	}
	return total
}

// Compare builds the cumulative and recent-hours comparison at the cutoff hour
func Compare(today, yesterday []HourlySales, cutoff int) Comparison {
	todayTotal := SalesUntil(today, cutoff)
	yesterdayTotal := SalesUntil(yesterday, cutoff)

	cmp := Comparison{
		Hour:           cutoff,
		TodayTotal:     todayTotal,
		YesterdayTotal: yesterdayTotal,
		Diff:           todayTotal - yesterdayTotal,
		Change:         PercentChange(todayTotal, yesterdayTotal),
	}

	todayByHour := salesByHour(today)
	yesterdayByHour := salesByHour(yesterday)
	for hour := max(0, cutoff-(recentWindow-1)); hour <= cutoff; hour++ {
		t, y := todayByHour[hour], yesterdayByHour[hour]
		cmp.Recent = append(cmp.Recent, HourDelta{
			Hour:      hour,
			Today:     t,
			Yesterday: y,
			Change:    PercentChange(t, y),
		})
	}
	return cmp
}

func salesByHour(series []HourlySales) map[int]int64 {
	m := make(map[int]int64, len(series))
	for _, h := range series {
		m[h.Hour] = h.Sales
	}
	return m
}
