package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"salesadmin/internal/model"
	"salesadmin/internal/slack"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportFixture(sender *fakeSender) (ReportService, *salesFixture, *fakeAudit, *fakePublisher) {
	sf := newSalesFixture(map[string][]model.Order{
		"2024-05-10..2024-05-10": {
			saleOrder("T-1", "N10", "22000", "2024-05-10T11:30:00+09:00", false),
		},
		"2024-05-09..2024-05-09": {
			saleOrder("Y-1", "N40", "11000", "2024-05-09T11:10:00+09:00", false),
			saleOrder("Y-2", "N40", "11000", "2024-05-09T15:10:00+09:00", false),
		},
	})
	audit := &fakeAudit{}
	pub := &fakePublisher{}
	svc := NewReportService(sf.svc, sender, audit, pub, "바르너")
	svc.(*reportService).now = func() time.Time { return fixedNow }
	return svc, sf, audit, pub
}

func TestSendHourly(t *testing.T) {
	sender := &fakeSender{}
	svc, _, audit, pub := newReportFixture(sender)

	res, err := svc.SendHourly(context.Background(), actorClaims("admin", model.RoleAdmin))
	require.NoError(t, err)

	assert.Equal(t, 12, res.Comparison.Hour)
	assert.Equal(t, int64(20000), res.Comparison.TodayTotal)
	assert.Equal(t, int64(10000), res.Comparison.YesterdayTotal)
	assert.Equal(t, "+100%", res.Comparison.Change.Text)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "바르너")
	assert.Contains(t, sender.sent[0].Text, "12시 기준")

	assert.Equal(t, []string{model.ActionSendSlackReport}, audit.actions())
	require.NotEmpty(t, pub.events)
	assert.Equal(t, EventSlackSent, pub.events[len(pub.events)-1].Name)
}

func TestSendHourly_SenderFailure(t *testing.T) {
	sender := &fakeSender{err: slack.ErrNotConfigured}
	svc, _, audit, _ := newReportFixture(sender)

	_, err := svc.SendHourly(context.Background(), actorClaims("admin", model.RoleAdmin))
	require.Error(t, err)
	assert.True(t, errors.Is(err, slack.ErrNotConfigured))
	assert.True(t, IsNotConfigured(err))
	assert.Empty(t, audit.entries)
}
