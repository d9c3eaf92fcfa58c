package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIConfig configures the OpenAI responses endpoint and HTTP behavior.
type OpenAIConfig struct {
	ResponsesURL string
	APIKey       string
	HTTPClient   *http.Client
}

type openAIAdapter struct {
	cfg OpenAIConfig
}

// NewOpenAIAdapter builds an OpenAI invocation adapter over the Responses API.
func NewOpenAIAdapter(cfg OpenAIConfig) Adapter {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.ResponsesURL) == "" {
		cfg.ResponsesURL = "https://api.openai.com/v1/responses"
	}
	return &openAIAdapter{cfg: cfg}
}

func (a *openAIAdapter) Invoke(ctx context.Context, input Input) (Result, error) {
	apiKey := strings.TrimSpace(a.cfg.APIKey)
	model := strings.TrimSpace(input.Agent.Model)
	prompt := strings.TrimSpace(input.Prompt)
	if apiKey == "" {
		return Result{}, fmt.Errorf("api key is required")
	}
	if model == "" {
		return Result{}, fmt.Errorf("model is required")
	}
	if prompt == "" {
		return Result{}, fmt.Errorf("prompt is required")
	}
	if len(input.Agent.OutputSchema) == 0 {
		return Result{}, fmt.Errorf("output schema is required")
	}

	requestBody, err := json.Marshal(map[string]any{
		"model":        model,
		"instructions": input.Agent.SystemPrompt,
		"input":        prompt,
		"text": map[string]any{
			"format": map[string]any{
				"type":   "json_schema",
				"name":   string(input.Agent.Name),
				"strict": true,
				"schema": input.Agent.OutputSchema,
			},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal invoke request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.ResponsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return Result{}, fmt.Errorf("build invoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material is sent only as an Authorization header and is never
	// echoed in errors or response payloads.
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return Result{}, &ProviderError{Cause: fmt.Errorf("invoke request failed: %w", err), Retryable: true}
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(res.Body, 4096))
		if readErr != nil {
			return Result{}, fmt.Errorf("read invoke error body: %w", readErr)
		}
		failure := fmt.Errorf("invoke request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
		retryable := res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500
		return Result{}, &ProviderError{Cause: failure, Retryable: retryable}
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("decode invoke response: %w", err)
	}
	outputText := strings.TrimSpace(payload.OutputText)
	if outputText == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if strings.TrimSpace(content.Text) != "" {
					outputText = strings.TrimSpace(content.Text)
					break
				}
			}
			if outputText != "" {
				break
			}
		}
	}
	if outputText == "" {
		return Result{}, fmt.Errorf("invoke response missing output text")
	}
	if !json.Valid([]byte(outputText)) {
		return Result{}, fmt.Errorf("invoke response is not valid JSON")
	}
	return Result{Output: json.RawMessage(outputText)}, nil
}
