package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/user/kisanmitra/pkg/llm"
)

// Client implements the llm.Provider interface for OpenAI-compatible APIs.
type Client struct {
	config     *llm.Config
	httpClient *http.Client
}

// New creates a new OpenAI-compatible client with the given configuration.
func New(config *llm.Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// chatRequest is the OpenAI chat completions request body.
type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []requestMessage `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float32         `json:"temperature,omitempty"`
}

// requestMessage is the OpenAI message format for requests. Content is a
// plain string for text-only messages and a part array otherwise.
type requestMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// contentPart is one entry in a multimodal content array.
type contentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	ImageURL   *imageURL   `json:"image_url,omitempty"`
	InputAudio *inputAudio `json:"input_audio,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type inputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// chatResponse is the OpenAI chat completions response body.
type chatResponse struct {
	Choices []choice      `json:"choices"`
	Usage   responseUsage `json:"usage"`
}

type choice struct {
	Message responseMessage `json:"message"`
}

type responseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// audioFormat maps a mime type to the wire format name the API expects.
// The API only accepts wav and mp3; transcoding is out of scope.
func audioFormat(mimeType string) string {
	if strings.Contains(mimeType, "mpeg") || strings.Contains(mimeType, "mp3") {
		return "mp3"
	}
	return "wav"
}

func toRequestMessage(msg llm.Message) requestMessage {
	// Text-only messages use the plain string form.
	if len(msg.Parts) == 1 && msg.Parts[0].Type == llm.PartText {
		return requestMessage{Role: msg.Role, Content: msg.Parts[0].Text}
	}

	parts := make([]contentPart, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch p.Type {
		case llm.PartText:
			parts = append(parts, contentPart{Type: "text", Text: p.Text})
		case llm.PartImage:
			url := fmt.Sprintf("data:%s;base64,%s", p.MimeType, base64.StdEncoding.EncodeToString(p.Data))
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: url}})
		case llm.PartAudio:
			parts = append(parts, contentPart{Type: "input_audio", InputAudio: &inputAudio{
				Data:   base64.StdEncoding.EncodeToString(p.Data),
				Format: audioFormat(p.MimeType),
			}})
		}
	}
	return requestMessage{Role: msg.Role, Content: parts}
}

// Complete sends a chat completion request and returns the full response.
func (c *Client) Complete(ctx context.Context, req llm.ChatRequest) (*llm.Response, error) {
	reqMessages := make([]requestMessage, len(req.Messages))
	for i, msg := range req.Messages {
		reqMessages[i] = toRequestMessage(msg)
	}

	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	reqBody := chatRequest{
		Model:    model,
		Messages: reqMessages,
	}

	if c.config.MaxTokens > 0 {
		reqBody.MaxTokens = c.config.MaxTokens
	}

	if c.config.Temperature != 0 {
		temp := c.config.Temperature
		reqBody.Temperature = &temp
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &llm.Response{
		Content: chatResp.Choices[0].Message.Content,
		Usage: llm.Usage{
			InputTokens:  chatResp.Usage.PromptTokens,
			OutputTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:  chatResp.Usage.TotalTokens,
		},
	}, nil
}
