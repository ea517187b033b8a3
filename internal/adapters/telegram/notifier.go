package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/risklattice/internal/adapters/config"
	"github.com/selivandex/risklattice/internal/forecast"
	"github.com/selivandex/risklattice/pkg/logger"
	"github.com/selivandex/risklattice/pkg/models"
	"github.com/selivandex/risklattice/pkg/templates"
)

// Sender is the part of the Bot API the notifier needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends forecast alerts to a Telegram chat
type Notifier struct {
	api       Sender
	chatID    int64
	templates templates.Renderer
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig, tmpl templates.Renderer) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
		zap.Int64("chat_id", cfg.ChatID),
	)

	return NewNotifierWithSender(bot, cfg.ChatID, tmpl), nil
}

// NewNotifierWithSender wires an existing sender
func NewNotifierWithSender(api Sender, chatID int64, tmpl templates.Renderer) *Notifier {
	return &Notifier{
		api:       api,
		chatID:    chatID,
		templates: tmpl,
	}
}

type forecastAlertData struct {
	Symbol          string
	CurrentScore    float64
	PredictedScore  float64
	ProjectedChange float64
	DaysAhead       int
	Confidence      float64
	TrendDirection  string
	Pattern         string
	Reasons         []string
}

// SendForecastAlert notifies the chat that a forecast crossed the alert threshold
func (n *Notifier) SendForecastAlert(ctx context.Context, f *models.RiskForecast) error {
	data := forecastAlertData{
		Symbol:          f.Symbol,
		CurrentScore:    f.CurrentScore,
		PredictedScore:  f.PredictedScore,
		ProjectedChange: f.ProjectedChange,
		DaysAhead:       f.DaysAhead,
		Confidence:      f.Confidence,
		TrendDirection:  string(f.TrendDirection),
		Reasons:         f.Reasons,
	}
	if f.PatternMatch != nil {
		data.Pattern = forecast.HumanPattern(*f.PatternMatch)
	}

	msg, err := n.templates.ExecuteTemplate("forecast_alert", data)
	if err != nil {
		return err
	}

	return n.sendMessageMarkdown(n.chatID, msg)
}

func (n *Notifier) sendMessageMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"

	_, err := n.api.Send(msg)
	if err != nil {
		logger.Error("failed to send telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return err
	}

	return nil
}
