package executor

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"agentic-rag-be/internal/constant"
	"agentic-rag-be/pkg/cache"
	"agentic-rag-be/pkg/embedding"
	"agentic-rag-be/pkg/keyword"
	"agentic-rag-be/pkg/llm"
	"agentic-rag-be/pkg/rag/rerank"
	"agentic-rag-be/pkg/rag/response"
	"agentic-rag-be/pkg/rag/retrieve"
	"agentic-rag-be/pkg/rag/rewrite"
	"agentic-rag-be/pkg/rag/validate"
	"agentic-rag-be/pkg/store"
)

// scriptedLLM routes calls by prompt shape so one fake can stand in for
// the rewrite, generation and validation models at once.
type scriptedLLM struct {
	rewriteOut  string
	generateOut string
	segments    []string
	generateErr error

	// verdicts are consumed in order; the last one repeats.
	verdicts []string

	genCalls int
	valCalls int
}

func (s *scriptedLLM) isValidation(prompt string) bool {
	return strings.Contains(prompt, `"is_correct"`)
}

func (s *scriptedLLM) isRewrite(prompt string) bool {
	return strings.Contains(prompt, "alternative phrasings")
}

func (s *scriptedLLM) nextVerdict() string {
	if len(s.verdicts) == 0 {
		return `{"is_correct": true, "reason": "ok"}`
	}
	v := s.verdicts[0]
	if len(s.verdicts) > 1 {
		s.verdicts = s.verdicts[1:]
	}
	return v
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, _ ...llm.Option) (string, error) {
	switch {
	case s.isRewrite(prompt):
		return s.rewriteOut, nil
	case s.isValidation(prompt):
		s.valCalls++
		return s.nextVerdict(), nil
	default:
		s.genCalls++
		return s.generateOut, s.generateErr
	}
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	return s.generateOut, s.generateErr
}

func (s *scriptedLLM) GenerateStream(ctx context.Context, prompt string, onDelta llm.StreamHandler, _ ...llm.Option) error {
	s.genCalls++
	if s.generateErr != nil {
		return s.generateErr
	}
	segments := s.segments
	if segments == nil {
		segments = []string{s.generateOut}
	}
	for _, seg := range segments {
		if err := onDelta(seg); err != nil {
			return err
		}
	}
	return nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}},
	}, nil
}

func (e fixedEmbedder) GenerateBatch(texts []string, taskType string) ([]*embedding.EmbeddingResponse, error) {
	out := make([]*embedding.EmbeddingResponse, len(texts))
	for i := range texts {
		out[i], _ = e.Generate(texts[i], taskType)
	}
	return out, nil
}

type cannedVectorStore struct {
	docs []store.Document
}

func (c *cannedVectorStore) Add(ctx context.Context, docs []store.Document, vectors [][]float32) error {
	return nil
}

func (c *cannedVectorStore) Search(ctx context.Context, vector []float32, k int) ([]store.Document, error) {
	if len(c.docs) > k {
		return c.docs[:k], nil
	}
	return c.docs, nil
}

func (c *cannedVectorStore) Count(ctx context.Context) (int64, error) {
	return int64(len(c.docs)), nil
}

func parisCorpus() []store.Document {
	return []store.Document{
		{ID: "1", Title: "France", Content: "Paris is the capital of France."},
		{ID: "2", Title: "Germany", Content: "Berlin is the capital of Germany."},
	}
}

func newTestPipeline(provider llm.LLMProvider, corpus []store.Document, opts Options) *Pipeline {
	logger := log.New(io.Discard, "", 0)

	bm25 := keyword.NewBM25Index()
	bm25.Index(corpus)

	retriever := retrieve.NewHybridRetriever(
		fixedEmbedder{},
		&cannedVectorStore{docs: corpus},
		bm25,
		cache.NewRequestCacheFromClient(nil, time.Minute, logger),
		0.5,
		logger,
	)

	return NewPipeline(
		rewrite.NewRewriter(provider, logger),
		retriever,
		rerank.NewReranker(rerank.NewOverlapScorer(), 0.3, logger),
		response.NewGenerator(provider, logger),
		validate.NewValidator(provider, logger),
		opts,
		logger,
	)
}

func TestRunAnswersFromCorpus(t *testing.T) {
	provider := &scriptedLLM{
		generateOut: "Paris is the capital of France.",
		verdicts:    []string{`{"is_correct": true, "reason": "grounded"}`},
	}
	p := newTestPipeline(provider, parisCorpus(), DefaultOptions())

	result, err := p.Run(context.Background(), "What is the capital of France?", DefaultRunOptions())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Answer != "Paris is the capital of France." {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Sources) == 0 {
		t.Error("Sources is empty, want the ranked context")
	}
	if result.WasCorrected || result.CorrectionAttempts != 0 {
		t.Errorf("unexpected correction: attempts=%d", result.CorrectionAttempts)
	}
	if result.RetrievalScore <= 0 {
		t.Errorf("RetrievalScore = %v, want > 0", result.RetrievalScore)
	}
	if provider.genCalls != 1 {
		t.Errorf("generation calls = %d, want 1", provider.genCalls)
	}
}

func TestRunEmptyCorpusDeclines(t *testing.T) {
	provider := &scriptedLLM{generateOut: "should not be used"}
	p := newTestPipeline(provider, nil, DefaultOptions())

	result, err := p.Run(context.Background(), "What is the capital of France?", DefaultRunOptions())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.Answer != constant.MsgCannotFind {
		t.Errorf("Answer = %q, want the explicit refusal", result.Answer)
	}
	if result.Sources == nil || len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want empty non-nil slice", result.Sources)
	}
	if result.RetrievalScore != 0.0 {
		t.Errorf("RetrievalScore = %v, want 0.0", result.RetrievalScore)
	}
	if result.WasCorrected {
		t.Error("refusal must not count as a correction")
	}
	if provider.valCalls != 0 {
		t.Errorf("validation calls = %d, want 0 with nothing retrieved", provider.valCalls)
	}
}

func TestRunSinglePassSkipsValidation(t *testing.T) {
	provider := &scriptedLLM{
		generateOut: "An unverified answer.",
		verdicts:    []string{`{"is_correct": false, "reason": "would trigger correction"}`},
	}
	p := newTestPipeline(provider, parisCorpus(), DefaultOptions())

	runOpts := DefaultRunOptions()
	runOpts.MaxCorrections = 0

	result, err := p.Run(context.Background(), "What is the capital of France?", runOpts)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if provider.valCalls != 0 {
		t.Errorf("validation calls = %d, want 0 in single-pass mode", provider.valCalls)
	}
	if result.Answer != "An unverified answer." {
		t.Errorf("Answer = %q, want the generator output untouched", result.Answer)
	}
	if result.WasCorrected || result.CorrectionAttempts != 0 {
		t.Errorf("unexpected correction in single-pass mode: attempts=%d", result.CorrectionAttempts)
	}
}

func TestRunCorrectionBounded(t *testing.T) {
	provider := &scriptedLLM{
		generateOut: "A stubbornly wrong answer.",
		verdicts:    []string{`{"is_correct": false, "reason": "unsupported"}`},
	}
	opts := DefaultOptions()
	opts.MaxCorrections = 2
	p := newTestPipeline(provider, parisCorpus(), opts)

	result, err := p.Run(context.Background(), "What is the capital of France?", DefaultRunOptions())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.CorrectionAttempts != 2 {
		t.Errorf("CorrectionAttempts = %d, want exactly the ceiling of 2", result.CorrectionAttempts)
	}
	if !result.WasCorrected {
		t.Error("WasCorrected = false after correction attempts")
	}
	// Initial pass plus one regeneration per correction attempt.
	if provider.genCalls != 3 {
		t.Errorf("generation calls = %d, want 3", provider.genCalls)
	}
	if provider.valCalls != 3 {
		t.Errorf("validation calls = %d, want 3", provider.valCalls)
	}
	if result.Answer != "A stubbornly wrong answer." {
		t.Errorf("Answer = %q, want the best-effort answer returned anyway", result.Answer)
	}
}

func TestRunCorrectionRecovers(t *testing.T) {
	provider := &scriptedLLM{
		generateOut: "The corrected answer.",
		verdicts: []string{
			`{"is_correct": false, "reason": "first answer unsupported"}`,
			`{"is_correct": true, "reason": "grounded now"}`,
		},
	}
	p := newTestPipeline(provider, parisCorpus(), DefaultOptions())

	result, err := p.Run(context.Background(), "What is the capital of France?", DefaultRunOptions())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if result.CorrectionAttempts != 1 {
		t.Errorf("CorrectionAttempts = %d, want 1", result.CorrectionAttempts)
	}
	if !result.WasCorrected {
		t.Error("WasCorrected = false, want true after a recovery")
	}
}

func TestRunStreamEventOrder(t *testing.T) {
	provider := &scriptedLLM{
		segments: []string{"Par", "is"},
		verdicts: []string{`{"is_correct": true, "reason": "ok"}`},
	}
	p := newTestPipeline(provider, parisCorpus(), DefaultOptions())

	var events []Event
	result, err := p.RunStream(context.Background(), "What is the capital of France?", DefaultRunOptions(), func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("RunStream returned error: %v", err)
	}
	if result.Answer != "Paris" {
		t.Errorf("Answer = %q, want %q", result.Answer, "Paris")
	}

	if len(events) < 4 {
		t.Fatalf("got %d events, want at least status + chunks + answer + metadata", len(events))
	}

	var chunks []string
	for _, ev := range events {
		switch ev.Type {
		case EventAnswerChunk:
			chunks = append(chunks, ev.Content)
		case EventError:
			t.Fatalf("unexpected error event: %s", ev.Content)
		}
	}
	if strings.Join(chunks, "") != "Paris" {
		t.Errorf("chunks = %v, want them to assemble the answer", chunks)
	}

	last, prev := events[len(events)-1], events[len(events)-2]
	if prev.Type != EventAnswer || !prev.Done || prev.Content != "Paris" {
		t.Errorf("second-to-last event = %+v, want terminal answer", prev)
	}
	if last.Type != EventMetadata || !last.Done {
		t.Errorf("last event = %+v, want terminal metadata", last)
	}
	if _, ok := last.Data["sources"]; !ok {
		t.Error("metadata event missing sources")
	}
	if last.Data["cache_hit"] != false {
		t.Errorf("metadata cache_hit = %v, want false", last.Data["cache_hit"])
	}
}

func TestRunStreamEmitsSingleErrorEvent(t *testing.T) {
	provider := &scriptedLLM{generateErr: errors.New("model permanently down")}
	p := newTestPipeline(provider, parisCorpus(), DefaultOptions())

	var events []Event
	_, err := p.RunStream(context.Background(), "q", DefaultRunOptions(), func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	if err == nil {
		t.Fatal("expected error from failing generation")
	}

	var errorEvents, terminalAnswers int
	for _, ev := range events {
		switch ev.Type {
		case EventError:
			errorEvents++
		case EventAnswer, EventMetadata:
			terminalAnswers++
		}
	}
	if errorEvents != 1 {
		t.Errorf("error events = %d, want exactly 1", errorEvents)
	}
	if terminalAnswers != 0 {
		t.Errorf("terminal answer/metadata events = %d, want 0 after a failure", terminalAnswers)
	}
	if last := events[len(events)-1]; last.Type != EventError || !last.Done {
		t.Errorf("last event = %+v, want the error event", last)
	}
}

func TestRunCancelledContext(t *testing.T) {
	provider := &scriptedLLM{generateOut: "unused"}
	p := newTestPipeline(provider, parisCorpus(), DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Run(ctx, "q", DefaultRunOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
