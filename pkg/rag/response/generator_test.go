package response

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"agentic-rag-be/internal/constant"
	"agentic-rag-be/pkg/llm"
)

type fakeLLM struct {
	response string
	segments []string
	err      error
	calls    int
	lastOpts llm.Options
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	for _, opt := range options {
		opt(&f.lastOpts)
	}
	return f.response, f.err
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) GenerateStream(ctx context.Context, prompt string, onDelta llm.StreamHandler, options ...llm.Option) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, seg := range f.segments {
		if err := onDelta(seg); err != nil {
			return err
		}
	}
	return nil
}

func TestGenerateNoContextNoHistory(t *testing.T) {
	provider := &fakeLLM{response: "should not be used"}
	g := NewGenerator(provider, log.New(io.Discard, "", 0))

	answer, err := g.Generate(context.Background(), "anything", nil, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if answer != constant.MsgNoRelevantInfo {
		t.Errorf("answer = %q, want the no-information message", answer)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0 without context or history", provider.calls)
	}
}

func TestGenerateWithContext(t *testing.T) {
	provider := &fakeLLM{response: "  The capital is Paris. [Excerpt 1]  "}
	g := NewGenerator(provider, log.New(io.Discard, "", 0))

	answer, err := g.Generate(context.Background(), "capital of France?", []string{"Paris is the capital of France."}, nil)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if answer != "The capital is Paris. [Excerpt 1]" {
		t.Errorf("answer = %q, want trimmed model output", answer)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
	if provider.lastOpts.System == "" {
		t.Error("grounding system instruction not set on the generation call")
	}
}

func TestGenerateHistoryAloneTriggersModel(t *testing.T) {
	provider := &fakeLLM{response: "Based on our conversation, yes."}
	g := NewGenerator(provider, log.New(io.Discard, "", 0))

	history := []llm.Message{
		{Role: constant.ChatMessageRoleUser, Content: "Is Go statically typed?"},
		{Role: constant.ChatMessageRoleModel, Content: "Yes, Go is statically typed."},
	}
	answer, err := g.Generate(context.Background(), "are you sure?", nil, history)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1 when history exists", provider.calls)
	}
	if answer == constant.MsgNoRelevantInfo {
		t.Error("history-backed query fell through to the no-information message")
	}
}

func TestGeneratePropagatesError(t *testing.T) {
	provider := &fakeLLM{err: errors.New("model down")}
	g := NewGenerator(provider, log.New(io.Discard, "", 0))

	_, err := g.Generate(context.Background(), "q", []string{"ctx"}, nil)
	if err == nil {
		t.Fatal("expected error from failing provider")
	}
}

func TestGenerateStreamAccumulates(t *testing.T) {
	provider := &fakeLLM{segments: []string{"The ", "capital ", "is ", "Paris."}}
	g := NewGenerator(provider, log.New(io.Discard, "", 0))

	var received []string
	answer, err := g.GenerateStream(context.Background(), "q", []string{"ctx"}, nil, func(delta string) error {
		received = append(received, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream returned error: %v", err)
	}
	if answer != "The capital is Paris." {
		t.Errorf("accumulated answer = %q, want full trimmed text", answer)
	}
	if strings.Join(received, "") != "The capital is Paris." {
		t.Errorf("streamed deltas = %v, want same text as the answer", received)
	}
}

func TestGenerateStreamNoContextEmitsMessage(t *testing.T) {
	provider := &fakeLLM{segments: []string{"unused"}}
	g := NewGenerator(provider, log.New(io.Discard, "", 0))

	var received []string
	answer, err := g.GenerateStream(context.Background(), "q", nil, nil, func(delta string) error {
		received = append(received, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream returned error: %v", err)
	}
	if answer != constant.MsgNoRelevantInfo {
		t.Errorf("answer = %q, want the no-information message", answer)
	}
	if len(received) != 1 || received[0] != constant.MsgNoRelevantInfo {
		t.Errorf("deltas = %v, want the message emitted once", received)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls)
	}
}
