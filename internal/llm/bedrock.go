package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Bedrock Converse API wire format. The Converse endpoint spans all Bedrock
// foundation models with one request/response shape.

type bedrockSystemBlock struct {
	Text string `json:"text"`
}

type bedrockImageSource struct {
	Bytes string `json:"bytes"`
}

type bedrockImageBlock struct {
	Format string             `json:"format"`
	Source bedrockImageSource `json:"source"`
}

type bedrockContentBlock struct {
	Text  string             `json:"text,omitempty"`
	Image *bedrockImageBlock `json:"image,omitempty"`
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockInferenceConfig struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type bedrockConverseReq struct {
	System          []bedrockSystemBlock   `json:"system"`
	Messages        []bedrockMessage       `json:"messages"`
	InferenceConfig bedrockInferenceConfig `json:"inferenceConfig"`
}

type bedrockConverseResp struct {
	Output *struct {
		Message *struct {
			Content []struct {
				Text *string `json:"text"`
			} `json:"content"`
		} `json:"message"`
	} `json:"output"`
}

// buildBedrockBody shapes the provider-agnostic triple into a Converse
// request. Pure function: no I/O, no settings access. The image arrives as a
// data URI; Converse wants raw base64 plus the format, so the prefix is
// stripped here.
func buildBedrockBody(systemPrompt, userText, image string) (bedrockConverseReq, error) {
	content := []bedrockContentBlock{{Text: userText}}
	if image != "" {
		img, err := ParseImageDataURI(image)
		if err != nil {
			return bedrockConverseReq{}, err
		}
		content = append(content, bedrockContentBlock{
			Image: &bedrockImageBlock{Format: img.Format, Source: bedrockImageSource{Bytes: img.Base64}},
		})
	}
	return bedrockConverseReq{
		System:          []bedrockSystemBlock{{Text: systemPrompt}},
		Messages:        []bedrockMessage{{Role: "user", Content: content}},
		InferenceConfig: bedrockInferenceConfig{MaxTokens: maxOutputTokens, Temperature: temperature},
	}, nil
}

func bedrockURL(region, modelID string) string {
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com/model/%s/converse", region, url.PathEscape(modelID))
}

func (c *Client) callBedrock(ctx context.Context, cfg Config, systemPrompt, userText, image string) (string, error) {
	payload, err := buildBedrockBody(systemPrompt, userText, image)
	if err != nil {
		return "", err
	}
	body, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, bedrockURL(cfg.Region, cfg.ModelID), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("bedrock request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("bedrock response read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPError{Provider: ProviderBedrock, StatusCode: resp.StatusCode, Body: truncateBody(string(data))}
	}

	var r bedrockConverseResp
	if err := json.Unmarshal(data, &r); err != nil {
		return "", &ResponseError{Provider: ProviderBedrock, Body: string(data)}
	}
	if r.Output == nil || r.Output.Message == nil {
		return "", &ResponseError{Provider: ProviderBedrock, Body: string(data)}
	}

	var parts []string
	for _, blk := range r.Output.Message.Content {
		if blk.Text != nil {
			parts = append(parts, *blk.Text)
		}
	}
	if len(parts) == 0 {
		return "", &ResponseError{Provider: ProviderBedrock, Body: string(data)}
	}
	return strings.Join(parts, "\n"), nil
}
