package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatModel 按顺序返回预设结果
type fakeChatModel struct {
	results  []fakeResult
	calls    int
	messages [][]*schema.Message
}

type fakeResult struct {
	content string
	err     error
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.messages = append(f.messages, input)
	r := f.results[len(f.results)-1]
	if f.calls < len(f.results) {
		r = f.results[f.calls]
	}
	f.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &schema.Message{Role: schema.Assistant, Content: r.content}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func TestAnalyze_RateLimitedBackoff(t *testing.T) {
	cm := &fakeChatModel{results: []fakeResult{{err: errors.New("error, status code: 429, message: Too Many Requests")}}}
	rec := &sleepRecorder{}
	c := NewWithModels(cm, nil, WithSleep(rec.sleep))

	_, err := c.Analyze(context.Background(), Request{Prompt: "hi", MaxRetries: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, 3, cm.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)

	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, 3, llmErr.Attempts)
}

func TestAnalyze_TimeoutRetriedWithFlatDelay(t *testing.T) {
	cm := &fakeChatModel{results: []fakeResult{
		{err: fmt.Errorf("post: %w", context.DeadlineExceeded)},
		{err: errors.New("error, status code: 502, message: bad gateway")},
		{content: "```json\n{\"ok\": true}\n```"},
	}}
	rec := &sleepRecorder{}
	c := NewWithModels(cm, nil, WithSleep(rec.sleep))

	out, err := c.Analyze(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.delays)
}

func TestAnalyze_UnclassifiedNotRetried(t *testing.T) {
	cm := &fakeChatModel{results: []fakeResult{{err: errors.New("invalid api key")}}}
	rec := &sleepRecorder{}
	c := NewWithModels(cm, nil, WithSleep(rec.sleep))

	_, err := c.Analyze(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnclassified))
	assert.Equal(t, 1, cm.calls)
	assert.Empty(t, rec.delays)
}

func TestAnalyze_EmptyResponseIsBackendError(t *testing.T) {
	cm := &fakeChatModel{results: []fakeResult{{content: "   "}}}
	rec := &sleepRecorder{}
	c := NewWithModels(cm, nil, WithSleep(rec.sleep), WithMaxRetries(2))

	_, err := c.Analyze(context.Background(), Request{Prompt: "hi"})
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Equal(t, 2, cm.calls)
}

func TestAnalyze_MessagesAndJSONMode(t *testing.T) {
	text := &fakeChatModel{results: []fakeResult{{content: "text"}}}
	js := &fakeChatModel{results: []fakeResult{{content: "{}"}}}
	c := NewWithModels(text, js)

	_, err := c.Analyze(context.Background(), Request{Prompt: "user", SystemPrompt: "system", JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, 0, text.calls)
	require.Len(t, js.messages, 1)
	require.Len(t, js.messages[0], 2)
	assert.Equal(t, schema.System, js.messages[0][0].Role)
	assert.Equal(t, schema.User, js.messages[0][1].Role)

	_, err = c.Analyze(context.Background(), Request{Prompt: "user"})
	require.NoError(t, err)
	require.Len(t, text.messages[0], 1)
}

func TestAnalyze_SleepCancelled(t *testing.T) {
	cm := &fakeChatModel{results: []fakeResult{{err: errors.New("429")}}}
	c := NewWithModels(cm, nil, WithSleep(func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}))

	_, err := c.Analyze(context.Background(), Request{Prompt: "hi"})
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, 1, cm.calls)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{errors.New("429 Too Many Requests"), KindRateLimited},
		{errors.New("rate limit exceeded"), KindRateLimited},
		{context.DeadlineExceeded, KindTimeout},
		{errors.New("net/http: request canceled (Client.Timeout exceeded)"), KindTimeout},
		{errors.New("error, status code: 500, message: internal"), KindBackend},
		{errEmptyResponse, KindBackend},
		{context.Canceled, KindUnclassified},
		{errors.New("boom"), KindUnclassified},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.err), tt.err.Error())
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(` {"a":1} `))
}
