package validate

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"agentic-rag-be/internal/constant"
	"agentic-rag-be/pkg/llm"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, _ ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) GenerateStream(ctx context.Context, prompt string, onDelta llm.StreamHandler, _ ...llm.Option) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return onDelta(f.response)
}

func TestValidateDecliningAnswerSkipsModel(t *testing.T) {
	provider := &fakeLLM{response: `{"is_correct": false, "reason": "should not matter"}`}
	v := NewValidator(provider, log.New(io.Discard, "", 0))

	verdict := v.Validate(context.Background(), "q", constant.MsgCannotFind, []string{"ctx"})

	if !verdict.IsCorrect {
		t.Error("declining answer judged incorrect")
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0 for a declining answer", provider.calls)
	}
}

func TestValidateParsesVerdict(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantCorrect bool
		wantReason  string
	}{
		{
			name:        "plain json correct",
			response:    `{"is_correct": true, "reason": "grounded"}`,
			wantCorrect: true,
			wantReason:  "grounded",
		},
		{
			name:        "plain json incorrect",
			response:    `{"is_correct": false, "reason": "claims not in context"}`,
			wantCorrect: false,
			wantReason:  "claims not in context",
		},
		{
			name:        "fenced json",
			response:    "```json\n{\"is_correct\": false, \"reason\": \"hallucinated\"}\n```",
			wantCorrect: false,
			wantReason:  "hallucinated",
		},
		{
			name:        "bare fence",
			response:    "```\n{\"is_correct\": true, \"reason\": \"ok\"}\n```",
			wantCorrect: true,
			wantReason:  "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(&fakeLLM{response: tt.response}, log.New(io.Discard, "", 0))

			verdict := v.Validate(context.Background(), "q", "some answer", []string{"ctx"})
			if verdict.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", verdict.IsCorrect, tt.wantCorrect)
			}
			if verdict.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", verdict.Reason, tt.wantReason)
			}
		})
	}
}

func TestValidateBiasCorrectOnModelFailure(t *testing.T) {
	v := NewValidator(&fakeLLM{err: errors.New("model down")}, log.New(io.Discard, "", 0))

	verdict := v.Validate(context.Background(), "q", "some answer", []string{"ctx"})
	if !verdict.IsCorrect {
		t.Error("model failure must bias toward correct, got incorrect")
	}
}

func TestValidateBiasCorrectOnGarbageOutput(t *testing.T) {
	v := NewValidator(&fakeLLM{response: "I think the answer looks fine to me!"}, log.New(io.Discard, "", 0))

	verdict := v.Validate(context.Background(), "q", "some answer", []string{"ctx"})
	if !verdict.IsCorrect {
		t.Error("unparseable verdict must bias toward correct, got incorrect")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		if got := stripCodeFence(tt.input); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
