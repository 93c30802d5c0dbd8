// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/lexgraph/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs.
type ChatModel struct {
	client      llms.Model
	limiter     *rate.Limiter
	temperature float64
	maxTokens   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatModel(config *ai.Config) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &ChatModel{
		client:      client,
		limiter:     limiter,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		maxAttempts: config.MaxAttempts,
		baseDelay:   config.RetryBaseDelay,
		logger:      slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatModel creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config)
}

// Complete generates a chat completion, retrying transient failures with
// bounded exponential backoff.
func (m *ChatModel) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	content := buildContent(req)
	opts := []llms.CallOption{llms.WithTemperature(temperatureFor(req, m.temperature))}
	if n := maxTokensFor(req, m.maxTokens); n > 0 {
		opts = append(opts, llms.WithMaxTokens(n))
	}

	var out string
	err := ai.RetryWithBackoff(ctx, func() error {
		response, err := m.client.GenerateContent(ctx, content, opts...)
		if err != nil {
			m.logger.Error("failed to generate completion", "err", err)
			return err
		}
		if len(response.Choices) < 1 {
			return ai.ErrEmptyCompletion
		}
		out = response.Choices[0].Content
		return nil
	}, m.maxAttempts, m.baseDelay)
	if err != nil {
		return "", err
	}
	return out, nil
}

func buildContent(req ai.CompletionRequest) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(req.Messages)+1)
	if req.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, msg := range req.Messages {
		content = append(content, llms.TextParts(roleType(msg.Role), msg.Content))
	}
	return content
}

func roleType(role ai.Role) llms.ChatMessageType {
	switch role {
	case ai.RoleSystem:
		return llms.ChatMessageTypeSystem
	case ai.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func temperatureFor(req ai.CompletionRequest, fallback float64) float64 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return fallback
}

func maxTokensFor(req ai.CompletionRequest, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}
