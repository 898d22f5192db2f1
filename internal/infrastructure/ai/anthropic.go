package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
)

// anthropicCompleter adaptador sobre la API Messages de Anthropic (Claude).
// Claude no tiene modo JSON: el prompt lo pide y extractJSON limpia la respuesta.
type anthropicCompleter struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

func newAnthropic(client *http.Client, apiKey, model string) *anthropicCompleter {
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	return &anthropicCompleter{url: anthropicMessagesURL, apiKey: apiKey, model: model, httpClient: client}
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *anthropicCompleter) name() string { return "anthropic" }

func (a *anthropicCompleter) complete(ctx context.Context, system, user string) (string, error) {
	payload := anthropicRequest{
		Model:     a.model,
		MaxTokens: 2048,
		System:    system + " Return ONLY the JSON object, without markdown.",
		Messages:  []chatMessage{{Role: "user", Content: user}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("serializar request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("leer respuesta: %w", err)
	}

	var out anthropicResponse
	jsonErr := json.Unmarshal(rawBody, &out)
	if resp.StatusCode != http.StatusOK {
		if jsonErr == nil && out.Error != nil {
			return "", fmt.Errorf("error %s: %s", out.Error.Type, out.Error.Message)
		}
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if jsonErr != nil {
		return "", fmt.Errorf("deserializar respuesta: %w", jsonErr)
	}
	var text strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", fmt.Errorf("respuesta vacía")
	}
	return text.String(), nil
}
