package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAI-compatible chat-completions wire format. Endpoint is configurable,
// so this covers any vendor speaking the same dialect.

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string for system, []openAIContentPart for user
}

type openAIChatReq struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// buildOpenAIBody shapes the triple into a chat-completions request. The
// image travels as the full data URI, byte-for-byte; a bare base64 payload
// gets re-wrapped into a data URI first since the API requires one.
func buildOpenAIBody(systemPrompt, userText, image, modelID string) (openAIChatReq, error) {
	content := []openAIContentPart{{Type: "text", Text: userText}}
	if image != "" {
		imageURL := image
		if !strings.HasPrefix(image, "data:") {
			img, err := ParseImageDataURI(image)
			if err != nil {
				return openAIChatReq{}, err
			}
			imageURL = img.DataURI()
		}
		content = append(content, openAIContentPart{
			Type:     "image_url",
			ImageURL: &openAIImageURL{URL: imageURL},
		})
	}
	return openAIChatReq{
		Model: modelID,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: content},
		},
		MaxTokens:   maxOutputTokens,
		Temperature: temperature,
	}, nil
}

// NormalizeEndpoint makes a bare base URL, a base URL with trailing slash,
// and a fully qualified endpoint all resolve to the same URL. Idempotent.
func NormalizeEndpoint(endpoint string) string {
	e := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if !strings.HasSuffix(e, "/chat/completions") {
		e += "/chat/completions"
	}
	return e
}

func (c *Client) callOpenAI(ctx context.Context, cfg Config, systemPrompt, userText, image string) (string, error) {
	payload, err := buildOpenAIBody(systemPrompt, userText, image, cfg.ModelID)
	if err != nil {
		return "", err
	}
	body, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, NormalizeEndpoint(cfg.Endpoint), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai response read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Body: truncateBody(string(data))}
	}

	var r openAIChatResp
	if err := json.Unmarshal(data, &r); err != nil {
		return "", &ResponseError{Provider: ProviderOpenAI, Body: string(data)}
	}
	if len(r.Choices) == 0 {
		return "", &ResponseError{Provider: ProviderOpenAI, Body: string(data)}
	}
	return r.Choices[0].Message.Content, nil
}
