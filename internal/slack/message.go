package slack

import (
	"fmt"
	"strings"
	"time"

	"salesadmin/internal/sales"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message is an incoming-webhook payload made of Block Kit blocks
type Message struct {
	Text   string  `json:"text,omitempty"`
	Blocks []Block `json:"blocks"`
}

type Block struct {
	Type     string  `json:"type"`
	Text     *Text   `json:"text,omitempty"`
	Elements []*Text `json:"elements,omitempty"`
}

type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

var printer = message.NewPrinter(language.Korean)

// Won formats an amount with Korean digit grouping and the 원 suffix
func Won(amount int64) string {
	return printer.Sprintf("%d", amount) + "원"
}

func trendEmoji(d sales.Direction) string {
	switch d {
	case sales.DirectionUp:
		return ":chart_with_upwards_trend:"
	case sales.DirectionDown:
		return ":chart_with_downwards_trend:"
	}
	return ":heavy_minus_sign:"
}

func hourEmoji(d sales.Direction) string {
	switch d {
	case sales.DirectionUp:
		return ":arrow_up:"
	case sales.DirectionDown:
		return ":arrow_down:"
	}
	return ":heavy_minus_sign:"
}

// BuildHourlyReport renders the cumulative and recent-hours comparison. now is
// the send time already shifted to KST.
func BuildHourlyReport(brand string, cmp sales.Comparison, now time.Time) Message {
	diffText := "0원"
	switch cmp.Change.Direction {
	case sales.DirectionUp:
		diffText = "+" + Won(cmp.Diff)
	case sales.DirectionDown:
		diffText = Won(cmp.Diff)
	}

	var recent strings.Builder
	for _, h := range cmp.Recent {
		fmt.Fprintf(&recent, "• %02d시: *%s* (어제 %s) %s %s\n",
			h.Hour, Won(h.Today), Won(h.Yesterday), hourEmoji(h.Change.Direction), h.Change.Text)
	}

	title := fmt.Sprintf(":bar_chart: %s 실시간 매출 현황 (%d시 기준)", brand, cmp.Hour)
	summary := fmt.Sprintf("*:moneybag: 현재까지 매출*\n\n오늘: *%s*\n어제 같은시간: %s\n\n%s 차이: *%s* (%s)",
		Won(cmp.TodayTotal), Won(cmp.YesterdayTotal), trendEmoji(cmp.Change.Direction), diffText, cmp.Change.Text)

	return Message{
		Text: title,
		Blocks: []Block{
			{Type: "header", Text: &Text{Type: "plain_text", Text: title, Emoji: true}},
			{Type: "divider"},
			{Type: "section", Text: &Text{Type: "mrkdwn", Text: summary}},
			{Type: "divider"},
			{Type: "section", Text: &Text{Type: "mrkdwn", Text: "*:alarm_clock: 최근 시간대 매출*\n\n" + recent.String()}},
			{Type: "context", Elements: []*Text{
				{Type: "mrkdwn", Text: fmt.Sprintf(":clock1: %s KST (수동 발송)", now.Format("2006-01-02 15:04:05"))},
			}},
		},
	}
}
