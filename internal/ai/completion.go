package ai

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"media-search-platform/internal/config"
)

// CompletionClient wraps the Gemini chat-completion API behind a circuit
// breaker and a client-side rate limiter. Retrieval answers flow through
// here; the core never retries a failed call itself.
type CompletionClient struct {
	client      *genai.Client
	model       string
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewCompletionClient(cfg *config.Config) (*CompletionClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiCompletion",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// Free-tier RPM with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(10*0.9/60.0), 2)

	return &CompletionClient{
		client:      client,
		model:       cfg.CompletionModel,
		breaker:     breaker,
		rateLimiter: rateLimiter,
	}, nil
}

func (c *CompletionClient) Close() error {
	return c.client.Close()
}

// Answer generates a grounded answer for the question from the given
// context. The context is the best-ranked segment's text plus whatever chat
// history the caller assembled.
func (c *CompletionClient) Answer(ctx context.Context, question, contextText string) (string, error) {
	tracer := otel.Tracer("completion-client")
	ctx, span := tracer.Start(ctx, "gemini.answer")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", c.model),
		attribute.Int("gemini.context_chars", len(contextText)),
	)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.GenerativeModel(c.model)
		model.SetTemperature(0)

		prompt := fmt.Sprintf(
			"You are an assistant that answers questions based on provided text.\nAnswer the question based only on the context.\n\nContext:\n%s\n\nQuestion: %s",
			contextText, question)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, err
		}
		return resp, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
			return "I'm experiencing high demand right now. Please try again in a moment.", nil
		}
		return "", err
	}

	resp := result.(*genai.GenerateContentResponse)
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				span.SetAttributes(attribute.Bool("gemini.success", true))
				return string(text), nil
			}
		}
	}

	return "", fmt.Errorf("no answer returned")
}
