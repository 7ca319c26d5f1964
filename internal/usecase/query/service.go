// Package query is the RAG engine: it retrieves the transcript chunks
// most relevant to a question and generates an answer grounded in them.
// Ask and Batch report failures inside the result, never as an error,
// so one bad question can not take down a batch or a session.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

// Config carries the engine's retrieval and generation settings.
type Config struct {
	K              int    // chunks retrieved per question
	MaxK           int    // upper bound accepted by UpdateK
	OutputLanguage string // answers are always produced in this language
	FallbackAnswer string // verbatim phrase for unanswerable questions
}

// Engine answers questions about one video's transcript. K can be
// tuned at runtime; everything else is fixed at construction.
type Engine struct {
	retriever Retriever
	embed     Embedder
	generate  domain.Generator
	logger    *zap.Logger

	maxK           int
	outputLanguage string
	fallbackAnswer string

	mu sync.RWMutex
	k  int
}

// New creates a query engine over a built index.
func New(retriever Retriever, embed Embedder, generate domain.Generator, cfg Config, logger *zap.Logger) *Engine {
	return &Engine{
		retriever:      retriever,
		embed:          embed,
		generate:       generate,
		logger:         logger,
		maxK:           cfg.MaxK,
		outputLanguage: cfg.OutputLanguage,
		fallbackAnswer: cfg.FallbackAnswer,
		k:              cfg.K,
	}
}

// Ask answers one question. Failures come back inside the result with
// Success=false; Ask itself never fails.
func (e *Engine) Ask(ctx context.Context, question string) domain.QueryResult {
	if strings.TrimSpace(question) == "" {
		return failure(question, "question must not be empty")
	}

	embRes, err := e.embed.Embed(ctx, question)
	if err != nil {
		e.logger.Warn("question embedding failed", zap.Error(err))
		return failure(question, fmt.Sprintf("Error processing query: %v", err))
	}

	hits := e.retriever.Search(embRes.Embedding, e.K())
	if len(hits) == 0 {
		return failure(question, "Error processing query: no relevant transcript chunks found")
	}

	sources := make([]string, len(hits))
	for i, h := range hits {
		sources[i] = h.Chunk.Text
	}
	contextText := strings.Join(sources, "\n\n")

	answer, err := e.generate.Generate(
		ctx,
		systemPrompt(e.outputLanguage, e.fallbackAnswer),
		userPrompt(contextText, question, e.outputLanguage),
	)
	if err != nil {
		e.logger.Warn("answer generation failed", zap.Error(err))
		return failure(question, fmt.Sprintf("Error processing query: %v", err))
	}

	e.logger.Debug("answered question",
		zap.Int("sources", len(sources)),
		zap.Int("prompt_tokens", answer.PromptTokens),
		zap.Int("completion_tokens", answer.CompletionTokens),
	)

	return domain.QueryResult{
		Success:    true,
		Question:   question,
		Answer:     answer.Text,
		Sources:    sources,
		NumSources: len(sources),
	}
}

// Batch answers questions sequentially, one result per question in the
// same order. A failed question yields a failed result and the batch
// moves on.
func (e *Engine) Batch(ctx context.Context, questions []string) []domain.QueryResult {
	results := make([]domain.QueryResult, 0, len(questions))
	for _, q := range questions {
		results = append(results, e.Ask(ctx, q))
	}
	return results
}

// UpdateK changes the retrieval depth for subsequent questions.
func (e *Engine) UpdateK(k int) error {
	if k < 1 || k > e.maxK {
		return fmt.Errorf("k=%d must be in [1, %d]: %w", k, e.maxK, domain.ErrInvalidK)
	}
	e.mu.Lock()
	e.k = k
	e.mu.Unlock()
	return nil
}

// K returns the current retrieval depth.
func (e *Engine) K() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.k
}

func failure(question, msg string) domain.QueryResult {
	return domain.QueryResult{
		Question: question,
		Sources:  []string{},
		Error:    msg,
	}
}
