package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModelsResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu      sync.Mutex
	queue   []fakeModelsResponse
	models  []string
	prompts []string
	configs []*genai.GenerateContentConfig
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeModelsResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]

	f.models = append(f.models, model)
	f.configs = append(f.configs, config)
	for _, content := range contents {
		for _, part := range content.Parts {
			f.prompts = append(f.prompts, part.Text)
		}
	}
	return res.resp, res.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
	}
}

func stubWait(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	original := waitFor
	waitFor = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { waitFor = original })
	return &waits
}

func TestGeneratorReturnsJoinedText(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse(" first ", "", "second"), nil)

	g := &Generator{models: models, model: "gemini-test", maxRetries: 1, logger: zap.NewNop()}

	output, err := g.GenerateContent(context.Background(), "  pick one  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "first\nsecond" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(models.prompts) != 1 || models.prompts[0] != "pick one" {
		t.Fatalf("unexpected prompts: %+v", models.prompts)
	}
	if models.models[0] != "gemini-test" {
		t.Fatalf("unexpected model: %q", models.models[0])
	}
	if models.configs[0] == nil || models.configs[0].ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response mime type")
	}
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	waits := stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	models.enqueue(textResponse("retry ok"), nil)

	g := &Generator{models: models, model: "gemini-test", maxRetries: 2, logger: zap.NewNop()}

	output, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}
	if len(models.models) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.models))
	}
	if len(*waits) != 1 || (*waits)[0] != baseRetryDelay {
		t.Fatalf("unexpected waits: %v", *waits)
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g := &Generator{models: models, model: "gemini-test", maxRetries: 2, logger: zap.NewNop()}

	_, err := g.GenerateContent(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
	if len(models.models) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.models))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	})

	g := &Generator{models: models, model: "gemini-test", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error when quota delay too long")
	}
	if len(models.models) != 1 {
		t.Fatalf("expected single call, got %d", len(models.models))
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Generator{models: models, model: "gemini-test", maxRetries: 3, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if len(models.models) != 1 {
		t.Fatalf("expected single call, got %d", len(models.models))
	}
}

func TestGeneratorRejectsEmptyAnswers(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(textResponse("   "), nil)

	g := &Generator{models: models, model: "gemini-test", maxRetries: 1, logger: zap.NewNop()}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty answer")
	}
	if _, err := g.GenerateContent(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		attempt   int
		wantDelay time.Duration
		wantRetry bool
	}{
		{name: "plain error", err: errors.New("boom"), attempt: 1},
		{name: "server error backs off", err: genai.APIError{Code: 500}, attempt: 3, wantDelay: 8 * time.Second, wantRetry: true},
		{name: "backoff is capped", err: genai.APIError{Code: 502}, attempt: 10, wantDelay: maxRetryDelay, wantRetry: true},
		{name: "quota with short hint", err: genai.APIError{Code: 429, Message: "Please retry in 1.5s."}, attempt: 1, wantDelay: 1500 * time.Millisecond, wantRetry: true},
		{name: "quota without hint", err: genai.APIError{Code: 429}, attempt: 2, wantDelay: 4 * time.Second, wantRetry: true},
		{name: "not found", err: genai.APIError{Code: 404}, attempt: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			delay, retry := retryDelay(tt.err, tt.attempt)
			if retry != tt.wantRetry || delay != tt.wantDelay {
				t.Fatalf("expected (%v, %v), got (%v, %v)", tt.wantDelay, tt.wantRetry, delay, retry)
			}
		})
	}
}
