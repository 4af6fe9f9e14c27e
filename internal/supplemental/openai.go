// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package supplemental

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/resilience"
)

// DefaultModel is used when the configuration names none.
const DefaultModel = "gpt-4o-mini"

// ClientConfig configures an OpenAIClient. BaseURL may point at any
// OpenAI-compatible endpoint (Gemini's compatibility layer, a local Ollama
// "/v1" root, a test server).
type ClientConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	MaxTokens         int
	RequestsPerSecond float64
	Burst             int
	Retry             resilience.RetryPolicy
	Breaker           *resilience.Breaker
}

// OpenAIClient is a Detector and Validator backed by a chat completion
// endpoint. Calls are rate limited, retried on transient failures and
// guarded by a circuit breaker shared by both roles.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	maxTok  int
	limiter *rate.Limiter
	retry   resilience.RetryPolicy
	breaker *resilience.Breaker
}

// NewOpenAIClient creates a client from cfg.
func NewOpenAIClient(cfg ClientConfig) *OpenAIClient {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return newOpenAIClientWithClient(openai.NewClientWithConfig(config), cfg)
}

func newOpenAIClientWithClient(client *openai.Client, cfg ClientConfig) *OpenAIClient {
	c := &OpenAIClient{
		client:  client,
		model:   cfg.Model,
		maxTok:  cfg.MaxTokens,
		retry:   cfg.Retry,
		breaker: cfg.Breaker,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTok <= 0 {
		c.maxTok = 1024
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if c.breaker == nil {
		c.breaker = resilience.NewBreaker(resilience.DefaultBreakerConfig("supplemental"))
	}
	return c
}

// Detect asks the model for PII in text and parses its reply.
func (c *OpenAIClient) Detect(ctx context.Context, text string) ([]Candidate, error) {
	reply, err := c.complete(ctx, detectPrompt(text))
	if err != nil {
		return nil, err
	}
	return ParseCandidates(reply)
}

// Validate asks the model whether value is a genuine instance of category.
func (c *OpenAIClient) Validate(ctx context.Context, value string, category detector.Category) (Verdict, error) {
	reply, err := c.complete(ctx, validatePrompt(value, category))
	if err != nil {
		return Verdict{}, err
	}
	return ParseVerdict(reply)
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %v", ErrCollaboratorUnavailable, err)
		}
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
		MaxTokens:   c.maxTok,
	}

	reply, err := resilience.RetryValue(ctx, c.retry, func(ctx context.Context) (string, error) {
		var content string
		err := c.breaker.Execute(ctx, func(ctx context.Context) error {
			resp, err := c.client.CreateChatCompletion(ctx, req)
			if err != nil {
				return classify(err)
			}
			if len(resp.Choices) == 0 {
				return errors.New("no choices returned")
			}
			content = resp.Choices[0].Message.Content
			return nil
		})
		return content, err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, err)
	}
	return reply, nil
}

// classify attaches the HTTP status of API failures so the retry loop and
// the breaker can tell throttling from bad credentials.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return resilience.FromStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return resilience.FromStatus(reqErr.HTTPStatusCode, err)
	}
	return resilience.Classify(err)
}

func detectPrompt(text string) string {
	names := make([]string, 0, len(detector.Categories()))
	for _, c := range detector.Categories() {
		names = append(names, string(c))
	}
	return fmt.Sprintf(`Analyze this text for PII:

%s

Return ONLY a JSON array of {"type": "%s", "value": string}, where value is the exact text as it appears. Return [] if there is none.`,
		text, strings.Join(names, "|"))
}

func validatePrompt(value string, category detector.Category) string {
	return fmt.Sprintf(`You are an expert in identifying PII (Personally Identifiable Information).
Given this text: %q
Is it a valid %q? Consider format, context, and common patterns.
Reply with ONLY a JSON object: {"isValid": boolean, "confidence": number between 0 and 1}`,
		value, string(category))
}
