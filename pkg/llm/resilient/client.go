package resilient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"agentic-rag-be/pkg/llm"

	"github.com/sony/gobreaker/v2"
)

// Config controls retry, timeout escalation and circuit breaking.
type Config struct {
	// MaxRetries is the total number of attempts against the remote model.
	MaxRetries int

	// BaseTimeout is the per-attempt timeout for the first attempt.
	// Each subsequent attempt escalates it by TimeoutFactor.
	BaseTimeout time.Duration

	// TimeoutFactor is the geometric escalation factor between attempts.
	TimeoutFactor float64

	// BackoffUnit scales the 2^attempt sleep between retries.
	// Production keeps this at one second; tests shrink it.
	BackoffUnit time.Duration

	// BreakerEnabled guards the whole retry loop with a circuit breaker.
	// When the breaker is open, calls short-circuit straight to fallback.
	BreakerEnabled bool
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		BaseTimeout:    30 * time.Second,
		TimeoutFactor:  1.5,
		BackoffUnit:    time.Second,
		BreakerEnabled: true,
	}
}

func (c Config) normalize() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseTimeout <= 0 {
		c.BaseTimeout = 30 * time.Second
	}
	if c.TimeoutFactor < 1 {
		c.TimeoutFactor = 1.5
	}
	if c.BackoffUnit < 0 {
		c.BackoffUnit = time.Second
	}
	return c
}

// Client wraps an LLMProvider with timeout escalation, retry with
// exponential backoff, circuit breaking and degraded fallback output.
// Generation parameters are pinned to low-temperature, low-nucleus
// settings: the pipeline needs context-faithful answers, not diverse ones.
type Client struct {
	provider llm.LLMProvider
	cfg      Config
	breaker  *gobreaker.CircuitBreaker[string]
	logger   *log.Logger
}

var _ llm.LLMProvider = &Client{}

const (
	pinnedTemperature = 0.0
	pinnedTopP        = 0.1
)

func NewClient(provider llm.LLMProvider, cfg Config, logger *log.Logger) *Client {
	cfg = cfg.normalize()
	c := &Client{
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}

	if cfg.BreakerEnabled {
		c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:    "llm-generate",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Printf("[WARN] Circuit breaker %s: %s -> %s", name, from, to)
			},
		})
	}

	return c
}

// Generate calls the remote model with retries. Transient failures degrade
// to a deterministic fallback string; only non-retryable errors propagate.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	out, err := c.execute(ctx, func(attemptCtx context.Context) (string, error) {
		return c.provider.Generate(attemptCtx, prompt, c.pinned(opts)...)
	})
	if err == nil {
		return out, nil
	}
	if !isRetryable(err) && !IsCircuitOpen(err) {
		return "", err
	}

	c.logger.Printf("[WARN] Generation degraded to fallback: %v", err)
	return FallbackFor(prompt), nil
}

// Chat behaves like Generate for a full conversation history.
func (c *Client) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	out, err := c.execute(ctx, func(attemptCtx context.Context) (string, error) {
		return c.provider.Chat(attemptCtx, history, c.pinned(opts)...)
	})
	if err == nil {
		return out, nil
	}
	if !isRetryable(err) && !IsCircuitOpen(err) {
		return "", err
	}

	c.logger.Printf("[WARN] Chat degraded to fallback: %v", err)
	prompt := ""
	if len(history) > 0 {
		prompt = history[len(history)-1].Content
	}
	return FallbackFor(prompt), nil
}

// GenerateStream streams model output with the same retry policy. If the
// stream dies before emitting anything and retries are exhausted, the
// fallback text is emitted as word-sized segments so consumers always see
// a terminated stream. A stream that dies after emitting keeps what was
// emitted; re-running it would duplicate segments.
func (c *Client) GenerateStream(ctx context.Context, prompt string, onDelta llm.StreamHandler, opts ...llm.Option) error {
	emitted := false
	wrapped := func(delta string) error {
		emitted = true
		return onDelta(delta)
	}

	_, err := c.execute(ctx, func(attemptCtx context.Context) (string, error) {
		if emitted {
			// A previous attempt already produced output; don't restart.
			return "", errPartialStream
		}
		return "", c.provider.GenerateStream(attemptCtx, prompt, wrapped, c.pinned(opts)...)
	})
	if err == nil || errors.Is(err, errPartialStream) {
		return nil
	}
	if !isRetryable(err) && !IsCircuitOpen(err) {
		return err
	}
	if emitted {
		c.logger.Printf("[WARN] Stream truncated after partial output: %v", err)
		return nil
	}

	c.logger.Printf("[WARN] Stream degraded to fallback: %v", err)
	for _, word := range strings.Fields(FallbackFor(prompt)) {
		if err := onDelta(word + " "); err != nil {
			return nil
		}
	}
	return nil
}

var errPartialStream = errors.New("stream already produced output")

func (c *Client) execute(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if c.breaker != nil {
		return c.breaker.Execute(func() (string, error) {
			return c.executeWithRetry(ctx, fn)
		})
	}
	return c.executeWithRetry(ctx, fn)
}

func (c *Client) executeWithRetry(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	timeout := c.cfg.BaseTimeout
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		out, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return out, nil
		}
		if errors.Is(err, errPartialStream) {
			return "", err
		}

		lastErr = err
		if !isRetryable(err) {
			return "", err
		}

		c.logger.Printf("[WARN] LLM attempt %d/%d failed: %v", attempt+1, c.cfg.MaxRetries, err)

		if attempt < c.cfg.MaxRetries-1 {
			// Exponential backoff: 2^attempt sleep units between attempts.
			wait := c.cfg.BackoffUnit * (1 << attempt)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
			timeout = time.Duration(float64(timeout) * c.cfg.TimeoutFactor)
		}
	}

	return "", fmt.Errorf("llm call failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

func (c *Client) pinned(opts []llm.Option) []llm.Option {
	return append([]llm.Option{
		llm.WithTemperature(pinnedTemperature),
		llm.WithTopP(pinnedTopP),
	}, opts...)
}

// IsCircuitOpen reports whether err came from an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// isRetryable classifies timeout/connection failures as transient.
// Anything else (malformed request, HTTP 4xx) fails immediately.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host")
}
