package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/selivandex/risklattice/internal/adapters/config"
	"github.com/selivandex/risklattice/pkg/logger"
)

// ErrDisabled is returned when no API key is configured
var ErrDisabled = errors.New("openai provider disabled")

// Completer sends one system/user prompt pair and returns the raw reply text
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	GetName() string
}

// OpenAIProvider calls the OpenAI chat completions API behind a
// rate limiter and a circuit breaker
type OpenAIProvider struct {
	client      *openai.Client
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	model       string
	timeout     time.Duration
	temperature float32
	enabled     bool
}

// NewOpenAIProvider creates new OpenAI provider
func NewOpenAIProvider(cfg *config.AIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 20
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		breaker:     breaker,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		model:       cfg.OpenAI.Model,
		timeout:     timeout,
		temperature: 0.3,
		enabled:     cfg.OpenAI.APIKey != "",
	}
}

func (o *OpenAIProvider) GetName() string {
	return "openai"
}

func (o *OpenAIProvider) IsEnabled() bool {
	return o.enabled
}

// Complete returns the first choice of a chat completion
func (o *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	if !o.enabled {
		return "", ErrDisabled
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	out, err := o.breaker.Execute(func() (interface{}, error) {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			Temperature: o.temperature,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no choices in response")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	content := strings.TrimSpace(out.(string))

	logger.Debug("OpenAI response",
		zap.Duration("latency", time.Since(start)),
		zap.Int("length", len(content)),
	)

	return content, nil
}
