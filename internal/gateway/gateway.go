// Package gateway wraps the inference provider behind deadline enforcement,
// failure classification, and a global concurrency cap. All specialist
// handlers and the classifier reach the model through it.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/kisanmitra/internal/types"
	"github.com/user/kisanmitra/pkg/llm"
)

// Gateway mediates all calls to the inference provider.
type Gateway struct {
	provider    llm.Provider
	visionModel string
	timeout     time.Duration
	sem         *semaphore.Weighted
	retry       *RetryPolicy
	calls       atomic.Int64
}

// Option configures optional gateway behavior.
type Option func(*Gateway)

// WithRetryPolicy overrides the default single-retry policy.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(g *Gateway) { g.retry = p }
}

// WithVisionModel sets the model used for image analysis calls.
func WithVisionModel(model string) Option {
	return func(g *Gateway) { g.visionModel = model }
}

// New creates a Gateway around the provider. timeout bounds each inference
// call; maxConcurrent caps simultaneous in-flight calls across requests.
func New(provider llm.Provider, timeout time.Duration, maxConcurrent int64, opts ...Option) *Gateway {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	g := &Gateway{
		provider: provider,
		timeout:  timeout,
		sem:      semaphore.NewWeighted(maxConcurrent),
		retry:    DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Calls returns the number of provider calls issued so far, counting
// retries. Used by tests to assert that validation failures never reach
// the provider.
func (g *Gateway) Calls() int64 {
	return g.calls.Load()
}

// complete runs one provider call under the semaphore and the deadline,
// mapping errors onto the orchestration failure kinds.
func (g *Gateway) complete(ctx context.Context, req llm.ChatRequest) (*llm.Response, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrGatewayFailure, err)
	}
	defer g.sem.Release(1)

	callCtx := ctx
	var cancel context.CancelFunc
	if g.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.calls.Add(1)
	resp, err := g.provider.Complete(callCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", types.ErrGatewayTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrGatewayFailure, err)
	}
	return resp, nil
}

// completeWithRetry retries a failed call at most once, and only for
// transient failures. Repeated inference calls are costly.
func (g *Gateway) completeWithRetry(ctx context.Context, req llm.ChatRequest) (*llm.Response, error) {
	resp, err := g.complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if !g.retry.ShouldRetry(err, 1) {
		return nil, err
	}
	slog.Warn("inference call failed, retrying once", "error", err)
	return g.complete(ctx, req)
}

// GenerateText runs a plain text completion.
func (g *Gateway) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.completeWithRetry(ctx, llm.ChatRequest{
		Messages: []llm.Message{llm.UserText(prompt)},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// AnalyzeImage runs a vision completion over the prompt and image bytes.
func (g *Gateway) AnalyzeImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	resp, err := g.completeWithRetry(ctx, llm.ChatRequest{
		Model: g.visionModel,
		Messages: []llm.Message{{
			Role: "user",
			Parts: []llm.Part{
				llm.TextPart(prompt),
				llm.ImagePart(mimeType, image),
			},
		}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// TranscribeAudio runs a completion over the prompt and audio bytes.
func (g *Gateway) TranscribeAudio(ctx context.Context, prompt, mimeType string, audio []byte) (string, error) {
	resp, err := g.completeWithRetry(ctx, llm.ChatRequest{
		Messages: []llm.Message{{
			Role: "user",
			Parts: []llm.Part{
				llm.TextPart(prompt),
				llm.AudioPart(mimeType, audio),
			},
		}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// GenerateJSON runs a text completion and unmarshals the cleaned response
// into out. Models wrap JSON in markdown fences often enough that the
// cleanup is unconditional.
func (g *Gateway) GenerateJSON(ctx context.Context, prompt string, out any) error {
	content, err := g.GenerateText(ctx, prompt)
	if err != nil {
		return err
	}
	return UnmarshalModelJSON(content, out)
}
