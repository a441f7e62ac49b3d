package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"agentic-rag-be/internal/constant"
	"agentic-rag-be/pkg/llm"
	"agentic-rag-be/pkg/rag/rerank"
	"agentic-rag-be/pkg/rag/response"
	"agentic-rag-be/pkg/rag/retrieve"
	"agentic-rag-be/pkg/rag/rewrite"
	"agentic-rag-be/pkg/rag/state"
	"agentic-rag-be/pkg/rag/validate"
	"agentic-rag-be/pkg/store"
)

// Options are the pipeline-wide defaults. Per-run overrides come in
// through RunOptions.
type Options struct {
	// TopKRetrieval is the fused document count requested from retrieval.
	TopKRetrieval int

	// TopKRerank is the context size kept after reranking.
	TopKRerank int

	// MaxCorrections bounds the validation loop. 0 disables validation
	// entirely (single-pass mode).
	MaxCorrections int

	// NumVariations is the query expansion width, original included.
	NumVariations int
}

func DefaultOptions() Options {
	return Options{
		TopKRetrieval:  20,
		TopKRerank:     5,
		MaxCorrections: 2,
		NumVariations:  3,
	}
}

// RunOptions carries per-request overrides. Negative MaxCorrections and
// non-positive NumVariations fall back to the pipeline defaults; a zero
// MaxCorrections is an explicit request for single-pass mode.
type RunOptions struct {
	History        []llm.Message
	MaxCorrections int
	NumVariations  int
}

func DefaultRunOptions() RunOptions {
	return RunOptions{MaxCorrections: -1}
}

// Result is the terminal pipeline output.
type Result struct {
	Answer             string                 `json:"answer"`
	Sources            []store.ScoredDocument `json:"sources"`
	CorrectionAttempts int                    `json:"correction_attempts"`
	WasCorrected       bool                   `json:"was_corrected"`
	RetrievalScore     float64                `json:"retrieval_score"`
	ElapsedMs          int64                  `json:"elapsed_ms"`
	CacheHit           bool                   `json:"cache_hit"`
	Metadata           map[string]any         `json:"metadata"`
}

// Pipeline orchestrates rewrite, retrieval, reranking, generation and
// validation as an explicit state machine with a bounded correction
// loop. All stage components are injected; the pipeline owns only the
// transition logic.
type Pipeline struct {
	rewriter  *rewrite.Rewriter
	retriever *retrieve.HybridRetriever
	reranker  *rerank.Reranker
	generator *response.Generator
	validator *validate.Validator
	opts      Options
	logger    *log.Logger
}

func NewPipeline(
	rewriter *rewrite.Rewriter,
	retriever *retrieve.HybridRetriever,
	reranker *rerank.Reranker,
	generator *response.Generator,
	validator *validate.Validator,
	opts Options,
	logger *log.Logger,
) *Pipeline {
	if opts.TopKRetrieval <= 0 {
		opts.TopKRetrieval = 20
	}
	if opts.TopKRerank <= 0 {
		opts.TopKRerank = 5
	}
	if opts.NumVariations <= 0 {
		opts.NumVariations = 1
	}
	return &Pipeline{
		rewriter:  rewriter,
		retriever: retriever,
		reranker:  reranker,
		generator: generator,
		validator: validator,
		opts:      opts,
		logger:    logger,
	}
}

// Run executes the full pipeline and returns the terminal result. Only
// a last-resort failure (non-retryable generation error, cancelled
// context) surfaces as an error; every degraded path still produces a
// valid result.
func (p *Pipeline) Run(ctx context.Context, query string, runOpts RunOptions) (*Result, error) {
	return p.execute(ctx, query, runOpts, nil, nil)
}

// RunStream executes the pipeline while emitting the event protocol to
// sink. The returned error mirrors the error event for callers that
// want both.
func (p *Pipeline) RunStream(ctx context.Context, query string, runOpts RunOptions, sink EventSink) (*Result, error) {
	emit := func(ev Event) error { return sink(ev) }
	onDelta := func(delta string) error {
		return sink(Event{Type: EventAnswerChunk, Content: delta})
	}

	result, err := p.execute(ctx, query, runOpts, emit, onDelta)
	if err != nil {
		_ = sink(Event{Type: EventError, Content: err.Error(), Done: true})
		return nil, err
	}

	_ = sink(Event{Type: EventAnswer, Content: result.Answer, Done: true})
	_ = sink(Event{Type: EventMetadata, Done: true, Data: map[string]any{
		"sources":             result.Sources,
		"correction_attempts": result.CorrectionAttempts,
		"was_corrected":       result.WasCorrected,
		"retrieval_score":     result.RetrievalScore,
		"elapsed_ms":          result.ElapsedMs,
		"cache_hit":           result.CacheHit,
	}})
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, query string, runOpts RunOptions, emit EventSink, onDelta llm.StreamHandler) (*Result, error) {
	started := time.Now()

	maxCorrections := runOpts.MaxCorrections
	if maxCorrections < 0 {
		maxCorrections = p.opts.MaxCorrections
	}
	numVariations := runOpts.NumVariations
	if numVariations <= 0 {
		numVariations = p.opts.NumVariations
	}

	st := state.New(query, runOpts.History)
	stage := StageRewrite

	for stage != StageDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch stage {
		case StageRewrite:
			p.status(emit, "Understanding your question...")
			st.Variants = p.rewriter.Expand(ctx, st.Query, numVariations)
			stage = StageRetrieve

		case StageRetrieve:
			p.status(emit, "Searching documents...")
			docs, cacheHit, err := p.retriever.Retrieve(ctx, st.Query, st.Variants, p.opts.TopKRetrieval)
			if err != nil {
				p.logger.Printf("[WARN] Retrieval failed, continuing with no documents: %v", err)
				docs = nil
			}
			st.Documents = docs
			st.CacheHit = st.CacheHit || cacheHit
			stage = StageRerank

		case StageRerank:
			p.status(emit, "Ranking relevance...")
			st.Ranked, st.RetrievalScore = p.reranker.Rerank(ctx, st.Query, st.Documents, p.opts.TopKRerank)
			stage = StageGenerate

		case StageGenerate:
			p.status(emit, "Generating answer...")
			var answer string
			var err error
			if onDelta != nil {
				answer, err = p.generator.GenerateStream(ctx, st.Query, st.ContextTexts(), st.History, onDelta)
			} else {
				answer, err = p.generator.Generate(ctx, st.Query, st.ContextTexts(), st.History)
			}
			if err != nil {
				return nil, fmt.Errorf("answer generation: %w", err)
			}
			st.Answer = answer

			if maxCorrections == 0 {
				// Single-pass mode: no validation, answer stands as-is.
				st.IsCorrect = true
				stage = StageDone
			} else {
				stage = StageValidate
			}

		case StageValidate:
			if len(st.Ranked) == 0 {
				// Nothing was retrieved; the honest terminal answer is an
				// explicit refusal, and that refusal is correct behavior.
				st.Answer = constant.MsgCannotFind
				st.IsCorrect = true
				stage = StageDone
				break
			}

			p.status(emit, "Verifying answer...")
			verdict := p.validator.Validate(ctx, st.Query, st.Answer, st.ContextTexts())
			st.IsCorrect = verdict.IsCorrect
			st.CorrectionReason = verdict.Reason

			if verdict.IsCorrect {
				stage = StageDone
				break
			}
			if st.CorrectionAttempts >= maxCorrections {
				p.logger.Printf("[WARN] Correction ceiling reached (%d), returning best-effort answer", maxCorrections)
				stage = StageDone
				break
			}

			st.CorrectionAttempts++
			p.logger.Printf("[DEBUG] Answer unsupported (%s), correction attempt %d/%d", verdict.Reason, st.CorrectionAttempts, maxCorrections)
			if emit != nil {
				_ = emit(Event{
					Type:    EventCorrection,
					Content: verdict.Reason,
					Data:    map[string]any{"attempt": st.CorrectionAttempts},
				})
			}

			// Re-enter from rewriting with the same state object; the
			// derived fields are rebuilt from scratch.
			st.Variants = nil
			st.Documents = nil
			st.Ranked = nil
			st.Answer = ""
			st.RetrievalScore = 0
			stage = StageRewrite
		}
	}

	result := &Result{
		Answer:             st.Answer,
		Sources:            st.Ranked,
		CorrectionAttempts: st.CorrectionAttempts,
		WasCorrected:       st.CorrectionAttempts > 0,
		RetrievalScore:     st.RetrievalScore,
		ElapsedMs:          time.Since(started).Milliseconds(),
		CacheHit:           st.CacheHit,
		Metadata: map[string]any{
			"query_variants":    len(st.Variants),
			"documents_fused":   len(st.Documents),
			"validation_reason": st.CorrectionReason,
		},
	}
	if result.Sources == nil {
		result.Sources = []store.ScoredDocument{}
	}
	return result, nil
}

func (p *Pipeline) status(emit EventSink, message string) {
	if emit == nil {
		return
	}
	_ = emit(Event{Type: EventStatus, Content: message})
}
