package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"salesadmin/internal/sales"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWon(t *testing.T) {
	assert.Equal(t, "1,234,567원", Won(1234567))
	assert.Equal(t, "0원", Won(0))
	assert.Equal(t, "-5,000원", Won(-5000))
}

func series(values map[int]int64) []sales.HourlySales {
	out := make([]sales.HourlySales, 24)
	for h := range out {
		out[h] = sales.HourlySales{Hour: h, Sales: values[h]}
	}
	return out
}

func TestBuildHourlyReport(t *testing.T) {
	cmp := sales.Compare(
		series(map[int]int64{9: 10000, 10: 20000}),
		series(map[int]int64{9: 10000}),
		10,
	)
	now := time.Date(2024, 1, 2, 10, 5, 0, 0, time.UTC)

	msg := BuildHourlyReport("바르너", cmp, now)
	require.Len(t, msg.Blocks, 6)

	assert.Equal(t, "header", msg.Blocks[0].Type)
	assert.Equal(t, ":bar_chart: 바르너 실시간 매출 현황 (10시 기준)", msg.Blocks[0].Text.Text)

	summary := msg.Blocks[2].Text.Text
	assert.Contains(t, summary, "오늘: *30,000원*")
	assert.Contains(t, summary, "어제 같은시간: 10,000원")
	assert.Contains(t, summary, ":chart_with_upwards_trend: 차이: *+20,000원* (+200%)")

	recent := msg.Blocks[4].Text.Text
	assert.Contains(t, recent, "• 08시: *0원* (어제 0원) :heavy_minus_sign: -")
	assert.Contains(t, recent, "• 09시: *10,000원* (어제 10,000원) :heavy_minus_sign: 0%")
	assert.Contains(t, recent, "• 10시: *20,000원* (어제 0원) :arrow_up: NEW")

	assert.Equal(t, ":clock1: 2024-01-02 10:05:00 KST (수동 발송)", msg.Blocks[5].Elements[0].Text)
}

func TestBuildHourlyReport_Down(t *testing.T) {
	cmp := sales.Compare(series(map[int]int64{0: 500}), series(map[int]int64{0: 1000}), 0)
	msg := BuildHourlyReport("바르너", cmp, time.Now())

	assert.Contains(t, msg.Blocks[2].Text.Text, ":chart_with_downwards_trend: 차이: *-500원* (-50%)")
	assert.Contains(t, msg.Blocks[4].Text.Text, ":arrow_down: -50%")
}

func TestClient_Send(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	msg := Message{Text: "hi", Blocks: []Block{{Type: "divider"}}}
	require.NoError(t, NewClient(srv.URL, nil).Send(context.Background(), msg))
	assert.Equal(t, msg, got)
}

func TestClient_SendErrors(t *testing.T) {
	err := NewClient("", nil).Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	err = NewClient(srv.URL, nil).Send(context.Background(), Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
