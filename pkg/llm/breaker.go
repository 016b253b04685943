package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while the breaker refuses calls.
var ErrUnavailable = errors.New("llm provider unavailable")

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
	OnStateChange    func(name string, from, to string)
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerProvider wraps a provider so a failing model backend is not hammered.
type BreakerProvider struct {
	next LLMProvider
	cb   *gobreaker.CircuitBreaker
}

var _ LLMProvider = (*BreakerProvider)(nil)

func NewBreakerProvider(next LLMProvider, config BreakerConfig) *BreakerProvider {
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		// A cancelled caller says nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	if config.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			config.OnStateChange(name, from.String(), to.String())
		}
	}

	return &BreakerProvider{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Chat(ctx, history, options...)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrUnavailable
		}
		return "", err
	}
	return out.(string), nil
}

func (b *BreakerProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return b.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

// State reports the breaker state, e.g. "closed" or "open".
func (b *BreakerProvider) State() string {
	return b.cb.State().String()
}
