package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// StreamHandler receives incremental generation output. Returning an error
// stops the stream; providers must not call the handler again after that.
type StreamHandler func(delta string) error

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	Model       string // Override default model
	System      string // System instruction prepended to the conversation
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithTopP(topP float64) Option {
	return func(o *Options) {
		o.TopP = topP
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithSystem(system string) Option {
	return func(o *Options) {
		o.System = system
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)

	// GenerateStream sends a single prompt and emits the response
	// incrementally through onDelta as segments arrive
	GenerateStream(ctx context.Context, prompt string, onDelta StreamHandler, options ...Option) error
}
