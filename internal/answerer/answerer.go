// Package answerer assembles retrieved chunks and a question into a
// prompt and generates a grounded answer with a chat model.
package answerer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bull/diabetes-rag/internal/storage"
)

// ErrGeneration indicates the language model errored or returned empty
// output. Callers report it per question; it never ends the session.
var ErrGeneration = errors.New("answer generation failed")

// TextGenerator produces text from a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever returns the k chunks most similar to a question.
type Retriever interface {
	Query(ctx context.Context, question string, k int) ([]*storage.ScoredChunk, error)
}

// Answer is a generated answer together with the chunks it was
// conditioned on, in retrieval order, for citation.
type Answer struct {
	Text      string
	Citations []*storage.ScoredChunk
}

// promptTemplate instructs the model to answer only from the supplied
// context. Context precedes the question, highest similarity first.
const promptTemplate = `You are a helpful assistant answering questions about diabetes.
Answer the question using only the context below. If the context does not
contain the answer, say that you don't know.

Context:
%s

Question: %s

Answer:`

// Answerer retrieves relevant chunks and generates answers from them.
type Answerer struct {
	retriever Retriever
	generator TextGenerator
	topK      int
}

// New creates an Answerer that retrieves topK chunks per question.
func New(retriever Retriever, generator TextGenerator, topK int) *Answerer {
	return &Answerer{
		retriever: retriever,
		generator: generator,
		topK:      topK,
	}
}

// Ask retrieves the chunks most relevant to question and generates an
// answer from them. No retry: a failed question is reported once and
// the caller decides what to do next.
func (a *Answerer) Ask(ctx context.Context, question string) (*Answer, error) {
	retrieved, err := a.retriever.Query(ctx, question, a.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	return a.Answer(ctx, question, retrieved)
}

// Answer generates an answer to question from the already retrieved
// chunks. The returned Answer pairs the verbatim model output with the
// chunks used, and is never mutated afterwards.
func (a *Answerer) Answer(ctx context.Context, question string, retrieved []*storage.ScoredChunk) (*Answer, error) {
	prompt := buildPrompt(question, retrieved)

	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: model returned empty output", ErrGeneration)
	}

	return &Answer{
		Text:      text,
		Citations: retrieved,
	}, nil
}

// buildPrompt concatenates the retrieved chunk texts in retrieval order
// into the fixed template.
func buildPrompt(question string, retrieved []*storage.ScoredChunk) string {
	var b strings.Builder
	for i, sc := range retrieved {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(sc.Chunk.Text)
	}
	return fmt.Sprintf(promptTemplate, b.String(), question)
}
