package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	calls int
	err   error
	reply string
}

func (p *scriptedProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

func testBreakerConfig() BreakerConfig {
	cfg := DefaultBreakerConfig("test")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 0.5
	cfg.Timeout = time.Hour
	return cfg
}

func TestBreakerProvider_PassesThrough(t *testing.T) {
	next := &scriptedProvider{reply: "hello"}
	b := NewBreakerProvider(next, testBreakerConfig())

	out, err := b.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerProvider_OpensAfterFailures(t *testing.T) {
	boom := errors.New("connection refused")
	next := &scriptedProvider{err: boom}

	var transitions []string
	cfg := testBreakerConfig()
	cfg.OnStateChange = func(name, from, to string) {
		transitions = append(transitions, from+"->"+to)
	}
	b := NewBreakerProvider(next, cfg)

	for i := 0; i < 2; i++ {
		_, err := b.Chat(context.Background(), nil)
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", b.State())
	assert.Equal(t, []string{"closed->open"}, transitions)

	_, err := b.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, next.calls, "open breaker must not reach the provider")
}

func TestBreakerProvider_IgnoresCancellation(t *testing.T) {
	next := &scriptedProvider{err: context.Canceled}
	b := NewBreakerProvider(next, testBreakerConfig())

	for i := 0; i < 5; i++ {
		_, err := b.Chat(context.Background(), nil)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", b.State())
}
