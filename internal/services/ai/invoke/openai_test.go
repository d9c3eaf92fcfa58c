package invoke

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/inkhorn/inkhorn/internal/services/ai/agent"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func outlineAgent(t *testing.T) agent.Definition {
	t.Helper()
	def, err := agent.Lookup(agent.Outline)
	if err != nil {
		t.Fatalf("lookup outline agent: %v", err)
	}
	return def
}

func TestNewOpenAIAdapterDefaults(t *testing.T) {
	adapter := NewOpenAIAdapter(OpenAIConfig{APIKey: "sk-1"})
	typed, ok := adapter.(*openAIAdapter)
	if !ok {
		t.Fatalf("adapter type = %T, want *openAIAdapter", adapter)
	}
	if typed.cfg.HTTPClient == nil {
		t.Fatal("expected non-nil HTTP client")
	}
	if typed.cfg.ResponsesURL != "https://api.openai.com/v1/responses" {
		t.Fatalf("responses_url = %q", typed.cfg.ResponsesURL)
	}
}

func TestOpenAIInvokeValidation(t *testing.T) {
	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			t.Fatalf("round trip should not execute for validation failure: %v", req.URL)
			return nil, nil
		}),
	}

	tests := []struct {
		name  string
		cfg   OpenAIConfig
		input Input
	}{
		{
			name:  "missing api key",
			cfg:   OpenAIConfig{HTTPClient: client},
			input: Input{Agent: outlineAgent(t), Prompt: "hello"},
		},
		{
			name:  "missing prompt",
			cfg:   OpenAIConfig{APIKey: "sk-1", HTTPClient: client},
			input: Input{Agent: outlineAgent(t), Prompt: "  "},
		},
		{
			name:  "missing model",
			cfg:   OpenAIConfig{APIKey: "sk-1", HTTPClient: client},
			input: Input{Agent: agent.Definition{Name: "x", OutputSchema: json.RawMessage(`{}`)}, Prompt: "hi"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewOpenAIAdapter(tt.cfg)
			if _, err := adapter.Invoke(context.Background(), tt.input); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestOpenAIInvokeParsesOutputText(t *testing.T) {
	var seenAuth string
	var seenBody map[string]any
	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			seenAuth = req.Header.Get("Authorization")
			if err := json.NewDecoder(req.Body).Decode(&seenBody); err != nil {
				t.Fatalf("decode request body: %v", err)
			}
			return response(http.StatusOK, `{"output_text": "{\"sections\":[{\"title\":\"Basics\"}]}"}`), nil
		}),
	}
	adapter := NewOpenAIAdapter(OpenAIConfig{APIKey: "sk-1", HTTPClient: client})

	result, err := adapter.Invoke(context.Background(), Input{Agent: outlineAgent(t), Prompt: "outline please"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if seenAuth != "Bearer sk-1" {
		t.Fatalf("authorization = %q", seenAuth)
	}
	if seenBody["model"] != agent.DefaultModel {
		t.Fatalf("model = %v, want %v", seenBody["model"], agent.DefaultModel)
	}

	type outline struct {
		Sections []struct {
			Title string `json:"title"`
		} `json:"sections"`
	}
	decoded, err := Decode[outline](result)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(decoded.Sections) != 1 || decoded.Sections[0].Title != "Basics" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestOpenAIInvokeFallsBackToOutputItems(t *testing.T) {
	client := &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, `{"output":[{"content":[{"type":"output_text","text":"{\"sections\":[]}"}]}]}`), nil
		}),
	}
	adapter := NewOpenAIAdapter(OpenAIConfig{APIKey: "sk-1", HTTPClient: client})

	result, err := adapter.Invoke(context.Background(), Input{Agent: outlineAgent(t), Prompt: "outline"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if string(result.Output) != `{"sections":[]}` {
		t.Fatalf("output = %s", result.Output)
	}
}

func TestOpenAIInvokeRetryableClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, retryable: true},
		{name: "server error", status: http.StatusBadGateway, retryable: true},
		{name: "bad request", status: http.StatusBadRequest, retryable: false},
		{name: "unauthorized", status: http.StatusUnauthorized, retryable: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &http.Client{
				Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
					return response(tt.status, `{"error":"nope"}`), nil
				}),
			}
			adapter := NewOpenAIAdapter(OpenAIConfig{APIKey: "sk-1", HTTPClient: client})
			_, err := adapter.Invoke(context.Background(), Input{Agent: outlineAgent(t), Prompt: "outline"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Retryable(err); got != tt.retryable {
				t.Fatalf("retryable = %t, want %t", got, tt.retryable)
			}
		})
	}
}

func TestOpenAIInvokeRejectsNonJSONOutput(t *testing.T) {
	client := &http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return response(http.StatusOK, `{"output_text": "not json"}`), nil
		}),
	}
	adapter := NewOpenAIAdapter(OpenAIConfig{APIKey: "sk-1", HTTPClient: client})
	if _, err := adapter.Invoke(context.Background(), Input{Agent: outlineAgent(t), Prompt: "outline"}); err == nil {
		t.Fatal("expected error for non-JSON output")
	}
}
