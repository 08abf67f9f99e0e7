// Package gemini is a minimal REST client for the Google Generative
// Language API, covering the one call this application makes:
// models/{model}:generateContent.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-1.5-flash-latest"

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrRateLimited marks a rate-limit-class failure (HTTP 429). The rate
// limiter retries these with backoff; everything else propagates.
var ErrRateLimited = errors.New("rate limited by generative API")

// Content is one conversation turn in the API format.
type Content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []Part `json:"parts"`
}

// Part is a single piece of a turn: text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries a base64-encoded attachment, typically a photo.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GenerationConfig tunes response sampling.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// SafetySetting is one content-filter threshold.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
	SafetySettings   []SafetySetting  `json:"safetySettings,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// DefaultGenerationConfig returns the sampling parameters tuned for
// natural, diary-style replies.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.85,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 1024,
	}
}

// DefaultSafetySettings blocks harmful content at medium-and-above across
// all four filter categories.
func DefaultSafetySettings() []SafetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, SafetySetting{Category: c, Threshold: "BLOCK_MEDIUM_AND_ABOVE"})
	}
	return settings
}

// Config holds client construction options. APIKey is the only required
// field.
type Config struct {
	APIKey           string
	BaseURL          string
	Model            string
	GenerationConfig *GenerationConfig
	SafetySettings   []SafetySetting
	HTTPClient       *http.Client
}

// Client talks to the Generative Language API.
type Client struct {
	apiKey    string
	baseURL   string
	model     string
	genConfig GenerationConfig
	safety    []SafetySetting
	client    *http.Client
}

// NewClient creates a Gemini API client.
func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		genConfig: DefaultGenerationConfig(),
		safety:    cfg.SafetySettings,
		client:    cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if cfg.GenerationConfig != nil {
		c.genConfig = *cfg.GenerationConfig
	}
	if c.safety == nil {
		c.safety = DefaultSafetySettings()
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 60 * time.Second}
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// UserText builds a single-part user turn.
func UserText(text string) Content {
	return Content{Role: "user", Parts: []Part{{Text: text}}}
}

// ModelText builds a single-part model turn.
func ModelText(text string) Content {
	return Content{Role: "model", Parts: []Part{{Text: text}}}
}

// GenerateContent sends the given turns to the model and returns the text
// of the first candidate. An empty candidate list or blank text is an
// error: callers rely on success implying non-empty output.
func (c *Client) GenerateContent(ctx context.Context, contents []Content) (string, error) {
	request := generateRequest{
		Contents:         contents,
		GenerationConfig: c.genConfig,
		SafetySettings:   c.safety,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.apiError(resp.StatusCode, body)
	}

	var response generateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	text := candidateText(response)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty or invalid response from model")
	}
	return text, nil
}

func (c *Client) apiError(status int, body []byte) error {
	var envelope apiErrorEnvelope
	message := string(body)
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	if status == http.StatusTooManyRequests || envelope.Error.Status == "RESOURCE_EXHAUSTED" {
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	}
	return fmt.Errorf("API error (status %d): %s", status, message)
}

func candidateText(response generateResponse) string {
	if len(response.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}
