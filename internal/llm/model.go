// Package llm implements the Model Router (§4.1): a static task→tier
// mapping over two OpenAI-compatible chat-completions endpoints (§6),
// following Tangerg/lynx's CallHandler[Request,Response] shape generalized
// to this core's concrete prompt/text contract.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/arborix/tot/internal/coreerrors"
	"github.com/arborix/tot/internal/metrics"
	"github.com/arborix/tot/internal/retry"
)

// Model exposes the uniform invocation contract every tier implements:
// invoke(prompt, {timeout}) -> {text}.
type Model interface {
	// Invoke sends prompt to the endpoint and returns its raw textual
	// response. Fails with coreerrors.KindModelUnavailable on transport/5xx
	// errors after retries, or coreerrors.KindTimeout when timeout elapses.
	Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error)
}

// ModelFunc adapts a plain function to Model, mirroring the teacher's
// CallHandlerFunc adapter pattern.
type ModelFunc func(ctx context.Context, prompt string, timeout time.Duration) (string, error)

func (f ModelFunc) Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	return f(ctx, prompt, timeout)
}

// openaiModel is the concrete Model backed by an OpenAI-compatible
// chat-completions endpoint.
type openaiModel struct {
	client      openai.Client
	modelName   string
	temperature float64
	tier        string
	log         *zap.Logger
	metrics     *metrics.Collector
	retryPolicy retry.Policy
}

// NewOpenAIModel constructs a Model pointed at an OpenAI-compatible base URL.
func NewOpenAIModel(baseURL, apiKey, modelName string, temperature float64, tier string, log *zap.Logger, m *metrics.Collector) Model {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiModel{
		client:      openai.NewClient(opts...),
		modelName:   modelName,
		temperature: temperature,
		tier:        tier,
		log:         log,
		metrics:     m,
		retryPolicy: retry.DefaultPolicy(),
	}
}

func (m *openaiModel) Invoke(ctx context.Context, prompt string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var text string
	err := retry.Do(cctx, m.retryPolicy, func(ctx context.Context) error {
		resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:       m.modelName,
			Temperature: openai.Float(m.temperature),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty choices from model %s", m.modelName)
		}
		text = resp.Choices[0].Message.Content
		return nil
	})

	if cctx.Err() != nil {
		if m.metrics != nil {
			m.metrics.ModelFailures.WithLabelValues(m.tier, string(coreerrors.KindTimeout)).Inc()
		}
		return "", coreerrors.Wrap(coreerrors.KindTimeout, "model invoke deadline exceeded", cctx.Err())
	}
	if err != nil {
		if m.log != nil {
			m.log.Warn("model unavailable", zap.String("tier", m.tier), zap.String("model", m.modelName), zap.Error(err))
		}
		if m.metrics != nil {
			m.metrics.ModelFailures.WithLabelValues(m.tier, string(coreerrors.KindModelUnavailable)).Inc()
		}
		return "", coreerrors.Wrap(coreerrors.KindModelUnavailable, "model endpoint unavailable", err)
	}
	return text, nil
}
