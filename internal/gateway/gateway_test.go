package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/user/kisanmitra/internal/types"
	"github.com/user/kisanmitra/pkg/llm"
)

// fakeProvider returns canned responses or errors, counting calls.
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
	delay     time.Duration
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.ChatRequest) (*llm.Response, error) {
	i := f.calls
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return &llm.Response{Content: f.responses[i]}, nil
	}
	return &llm.Response{Content: ""}, nil
}

func TestGenerateText(t *testing.T) {
	fake := &fakeProvider{responses: []string{"answer"}}
	gw := New(fake, time.Second, 2)

	got, err := gw.GenerateText(context.Background(), "question")
	if err != nil {
		t.Fatal(err)
	}
	if got != "answer" {
		t.Errorf("expected answer, got %q", got)
	}
	if gw.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", gw.Calls())
	}
}

func TestTimeoutClassified(t *testing.T) {
	fake := &fakeProvider{delay: 200 * time.Millisecond, responses: []string{"late"}}
	gw := New(fake, 20*time.Millisecond, 2)

	_, err := gw.GenerateText(context.Background(), "slow")
	if !errors.Is(err, types.ErrGatewayTimeout) {
		t.Errorf("expected ErrGatewayTimeout, got %v", err)
	}
	// Timeouts are never retried.
	if fake.calls != 1 {
		t.Errorf("expected 1 call, got %d", fake.calls)
	}
}

func TestTransientFailureRetriedOnce(t *testing.T) {
	fake := &fakeProvider{
		errs:      []error{fmt.Errorf("API error (status 503): overloaded"), nil},
		responses: []string{"", "recovered"},
	}
	gw := New(fake, time.Second, 2)

	got, err := gw.GenerateText(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if got != "recovered" {
		t.Errorf("expected recovered, got %q", got)
	}
	if fake.calls != 2 {
		t.Errorf("expected 2 calls, got %d", fake.calls)
	}
}

func TestPermanentFailureNotRetried(t *testing.T) {
	fake := &fakeProvider{errs: []error{fmt.Errorf("API error (status 401): unauthorized")}}
	gw := New(fake, time.Second, 2)

	_, err := gw.GenerateText(context.Background(), "q")
	if !errors.Is(err, types.ErrGatewayFailure) {
		t.Errorf("expected ErrGatewayFailure, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("expected 1 call, got %d", fake.calls)
	}
}

func TestGenerateJSONCleansFences(t *testing.T) {
	fake := &fakeProvider{responses: []string{"```json\n{\"intent\": \"transcription\"}\n```"}}
	gw := New(fake, time.Second, 2)

	var out struct {
		Intent string `json:"intent"`
	}
	if err := gw.GenerateJSON(context.Background(), "classify", &out); err != nil {
		t.Fatal(err)
	}
	if out.Intent != "transcription" {
		t.Errorf("expected transcription, got %q", out.Intent)
	}
}

func TestCleanModelJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"Here is the result:\n{\"a\":1}", `{"a":1}`},
		{"{\"a\":1}\nHope that helps!", `{"a":1}`},
	}
	for _, c := range cases {
		if got := CleanModelJSON(c.in); got != c.want {
			t.Errorf("CleanModelJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAnalyzeImageUsesVisionModel(t *testing.T) {
	var seenModel string
	fake := &providerFunc{fn: func(ctx context.Context, req llm.ChatRequest) (*llm.Response, error) {
		seenModel = req.Model
		return &llm.Response{Content: "ok"}, nil
	}}
	gw := New(fake, time.Second, 2, WithVisionModel("vision-x"))

	if _, err := gw.AnalyzeImage(context.Background(), "p", "image/jpeg", []byte{1}); err != nil {
		t.Fatal(err)
	}
	if seenModel != "vision-x" {
		t.Errorf("expected vision-x, got %q", seenModel)
	}
}

type providerFunc struct {
	fn func(ctx context.Context, req llm.ChatRequest) (*llm.Response, error)
}

func (p *providerFunc) Complete(ctx context.Context, req llm.ChatRequest) (*llm.Response, error) {
	return p.fn(ctx, req)
}
