// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package assistant streams dataset-aware pipeline suggestions from a
// Groq-hosted chat model through the OpenAI-compatible API.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/AleutianAI/AleutianAutoML/services/automl/datatypes"
)

const (
	groqBaseURL  = "https://api.groq.com/openai/v1"
	defaultModel = "llama3-8b-8192"
	temperature  = 0.6
)

// Client wraps the Groq chat endpoint.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient builds a Groq client from GROQ_API_KEY, falling back to the
// /run/secrets/groq_api_key file when the variable is unset. Returns
// ErrAssistantUnavailable when no key can be found so callers can map it
// to a 503 instead of failing startup.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	model := os.Getenv("GROQ_MODEL")
	if apiKey == "" {
		secretPath := "/run/secrets/groq_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err == nil {
			apiKey = strings.TrimSpace(string(apiKeyBytes))
			slog.Info("Read the Groq API key from Podman secrets")
		} else {
			slog.Warn("GROQ_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("%w: GROQ_API_KEY not set", datatypes.ErrAssistantUnavailable)
		}
	}
	if model == "" {
		model = defaultModel
		slog.Warn("GROQ_MODEL not set, defaulting", "model", defaultModel)
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = groqBaseURL
	slog.Info("Initializing Groq client", "model", model)
	return &Client{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Suggest streams one completion, invoking onToken per content delta, and
// returns the assembled answer after the stream drains. The answer is
// only returned (and safe to persist) when the stream completed without
// error.
func (c *Client) Suggest(ctx context.Context, system, user string, onToken func(string) error) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		slog.Error("Groq API call failed", "error", err)
		return "", fmt.Errorf("%w: %v", datatypes.ErrAssistantUnavailable, err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Error("Groq stream interrupted", "error", err)
			return "", fmt.Errorf("%w: %v", datatypes.ErrAssistantUnavailable, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onToken != nil {
			if err := onToken(delta); err != nil {
				return "", err
			}
		}
	}
	return full.String(), nil
}
