// Package chat runs the interactive question loop on the console.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bull/diabetes-rag/internal/answerer"
)

// sentinel terminates the session, matched case-insensitively.
const sentinel = "exit"

// Answerer answers a single question. The concrete implementation is
// answerer.Answerer; tests substitute a fake.
type Answerer interface {
	Ask(ctx context.Context, question string) (*answerer.Answer, error)
}

type state int

const (
	stateAwaitingInput state = iota
	stateTerminated
)

// Loop is the two-state interactive session: it awaits input until the
// sentinel terminates it. Per-question failures are printed and the
// loop keeps going.
type Loop struct {
	answerer     Answerer
	in           *bufio.Scanner
	out          io.Writer
	previewChars int
}

// New creates a Loop reading questions from in and writing answers to
// out. previewChars bounds how much of each cited chunk is printed.
func New(a Answerer, in io.Reader, out io.Writer, previewChars int) *Loop {
	return &Loop{
		answerer:     a,
		in:           bufio.NewScanner(in),
		out:          out,
		previewChars: previewChars,
	}
}

// Run processes questions until the sentinel or end of input. Blank
// lines are ignored. Only the sentinel (or input exhaustion) reaches
// the terminated state; errors never do.
func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprintf(l.out, "Ask a question (type %q to quit):\n", sentinel)

	for st := stateAwaitingInput; st != stateTerminated; {
		fmt.Fprint(l.out, "\n> ")
		if !l.in.Scan() {
			st = stateTerminated
			continue
		}

		line := strings.TrimSpace(l.in.Text())
		switch {
		case line == "":
			// Stay in awaiting input, no service calls.
		case strings.EqualFold(line, sentinel):
			st = stateTerminated
		default:
			l.handleQuestion(ctx, line)
		}
	}

	fmt.Fprintln(l.out, "Bye.")
	return l.in.Err()
}

// handleQuestion asks one question and prints the answer with its
// citations. Failures are reported inline; the session persists.
func (l *Loop) handleQuestion(ctx context.Context, question string) {
	answer, err := l.answerer.Ask(ctx, question)
	if err != nil {
		fmt.Fprintf(l.out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(l.out, "\n%s\n", answer.Text)

	if len(answer.Citations) > 0 {
		fmt.Fprintln(l.out, "\nSources:")
		for _, sc := range answer.Citations {
			fmt.Fprintf(l.out, "  [%s p.%d score=%.2f] %s\n",
				sc.Chunk.Source, sc.Chunk.Page, sc.Score, preview(sc.Chunk.Text, l.previewChars))
		}
	}
}

// preview truncates s to at most n characters on a rune boundary.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
