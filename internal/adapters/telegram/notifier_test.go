package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/risklattice/pkg/models"
	"github.com/selivandex/risklattice/pkg/templates"
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, msg)
	}
	return tgbotapi.Message{}, r.err
}

func TestNotifier_SendForecastAlert(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender, 4242, templates.MustDefault())

	pattern := models.PatternRiskSpike
	err := n.SendForecastAlert(context.Background(), &models.RiskForecast{
		Symbol:          "BTC-USD",
		DaysAhead:       7,
		CurrentScore:    64,
		PredictedScore:  78.2,
		ProjectedChange: 14.2,
		Confidence:      0.7,
		TrendDirection:  models.TrendIncreasing,
		PatternMatch:    &pattern,
		Reasons:         []string{"Risk trending upward"},
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, int64(4242), msg.ChatID)
	assert.Equal(t, "Markdown", msg.ParseMode)
	assert.Contains(t, msg.Text, "BTC-USD")
	assert.Contains(t, msg.Text, "78.2")
	assert.Contains(t, msg.Text, "Risk Spike")
	assert.Contains(t, msg.Text, "• Risk trending upward")
}

func TestNotifier_SendError(t *testing.T) {
	sender := &recordingSender{err: errors.New("chat not found")}
	n := NewNotifierWithSender(sender, 1, templates.MustDefault())

	err := n.SendForecastAlert(context.Background(), &models.RiskForecast{Symbol: "AAPL", DaysAhead: 7})
	assert.Error(t, err)
}
