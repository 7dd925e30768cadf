package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edumint-ai/platform/pkg/common/logger"
)

// ResponseFormat selects how the completion endpoint is asked to answer.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json_object"
)

type Usage struct {
	InputTokens  int `json:"prompt_tokens"`
	OutputTokens int `json:"completion_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Client talks to an OpenAI-compatible /chat/completions endpoint. It is the
// single collaborator behind both the safety judges and the content generator.
type Client interface {
	ChatComplete(ctx context.Context, systemPrompt, userPrompt string, format ResponseFormat) (string, Usage, error)
	Model() string
}

type httpClient struct {
	apiKey     string
	baseURL    string
	modelName  string
	httpClient *http.Client
}

type Options struct {
	APIKey    string
	BaseURL   string
	ModelName string
	Timeout   time.Duration
}

func NewClient(opts Options) Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &httpClient{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		modelName:  opts.ModelName,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) Model() string {
	return c.modelName
}

func (c *httpClient) ChatComplete(ctx context.Context, systemPrompt, userPrompt string, format ResponseFormat) (string, Usage, error) {
	payload := map[string]interface{}{
		"model": c.modelName,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": 0.3,
	}
	if format == FormatJSON {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", Usage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", Usage{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", Usage{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Usage{}, err
	}

	if resp.StatusCode != http.StatusOK {
		logger.Log.WithFields(map[string]interface{}{
			"status": resp.StatusCode,
			"model":  c.modelName,
		}).Error("LLM request failed")
		return "", Usage{}, fmt.Errorf("llm returned status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage Usage `json:"usage"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", Usage{}, fmt.Errorf("failed to decode llm response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", result.Usage, fmt.Errorf("no response from LLM")
	}

	return result.Choices[0].Message.Content, result.Usage, nil
}
