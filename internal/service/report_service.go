package service

import (
	"context"
	"fmt"
	"time"

	"salesadmin/internal/auth"
	"salesadmin/internal/model"
	"salesadmin/internal/sales"
	"salesadmin/internal/slack"

	"go.uber.org/zap"
)

// MessageSender delivers a Slack message
type MessageSender interface {
	Send(ctx context.Context, msg slack.Message) error
}

type HourlyReportResult struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	Comparison sales.Comparison `json:"comparison"`
}

type ReportService interface {
	SendHourly(ctx context.Context, actor *auth.Claims) (*HourlyReportResult, error)
}

type reportService struct {
	sales     SalesService
	sender    MessageSender
	audit     AuditService
	publisher EventPublisher
	brand     string
	now       func() time.Time
}

func NewReportService(salesSvc SalesService, sender MessageSender, audit AuditService, publisher EventPublisher, brand string) ReportService {
	return &reportService{
		sales:     salesSvc,
		sender:    sender,
		audit:     audit,
		publisher: publisherOrNoop(publisher),
		brand:     brand,
		now:       time.Now,
	}
}

// SendHourly compares today's sales against yesterday up to the current KST hour
// and posts the result to the hourly channel.
func (s *reportService) SendHourly(ctx context.Context, actor *auth.Claims) (*HourlyReportResult, error) {
	now := s.now().In(sales.KST)
	today := now.Format(sales.DateLayout)

	report, err := s.sales.Report(ctx, SalesQuery{StartDate: today, EndDate: today})
	if err != nil {
		return nil, err
	}

	cmp := sales.Compare(report.HourlySales, report.YesterdayHourlySales, now.Hour())
	msg := slack.BuildHourlyReport(s.brand, cmp, now)

	if err := s.sender.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("send hourly report: %w", err)
	}

	if err := s.audit.Record(ctx, actor, model.ActionSendSlackReport, today, s.brand, map[string]interface{}{
		"hour":       cmp.Hour,
		"todayTotal": cmp.TodayTotal,
	}); err != nil {
		zap.L().Warn("hourly report not audited", zap.Error(err))
	}

	zap.L().Info("hourly report sent",
		zap.Int("hour", cmp.Hour),
		zap.Int64("today_total", cmp.TodayTotal),
		zap.Int64("yesterday_total", cmp.YesterdayTotal),
	)
	s.publisher.Publish(EventSlackSent, cmp)

	return &HourlyReportResult{Success: true, Message: "Slack 메시지가 발송되었습니다.", Comparison: cmp}, nil
}
