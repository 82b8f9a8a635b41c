package llm

import "context"

// Provider defines the interface for interacting with inference backends.
// Implementations handle protocol-specific details such as request
// formatting, authentication, and response parsing.
type Provider interface {
	// Complete sends a chat completion request and returns the full response.
	Complete(ctx context.Context, req ChatRequest) (*Response, error)
}

// Config holds common configuration for inference providers.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	VisionModel string
	MaxTokens   int
	Temperature float32
}
