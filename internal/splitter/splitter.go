// Package splitter windows page text into overlapping chunks for
// embedding and retrieval.
package splitter

import (
	"fmt"
	"strings"

	"github.com/bull/diabetes-rag/internal/pdf"
)

// Chunk is one bounded segment of a page's text. Source and Page trace
// every chunk back to exactly one originating page so answers can cite
// the document it came from.
type Chunk struct {
	Text   string
	Source string
	Page   int
	Index  int // ordinal among all chunks emitted for the same source file
}

// DefaultSeparators is the ordered separator list the splitter descends
// through: paragraph break, line break, word break, then a hard
// character cut as the last resort.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter produces overlapping fixed-size chunks, preferring to break
// at coarse separators before descending to finer ones. Splitting is
// deterministic and has no side effects.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// New creates a Splitter. chunkSize must be positive and overlap must
// satisfy 0 <= overlap < chunkSize.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, chunk size), got %d", overlap)
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: DefaultSeparators,
	}, nil
}

// Split chunks every page in order. Chunk indexes are per source file
// and increase monotonically across that file's pages.
func (s *Splitter) Split(pages []pdf.Page) []Chunk {
	var chunks []Chunk
	perSource := make(map[string]int)

	for _, page := range pages {
		for _, text := range s.splitText(page.Text, s.separators) {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			chunks = append(chunks, Chunk{
				Text:   text,
				Source: page.Source,
				Page:   page.Number,
				Index:  perSource[page.Source],
			})
			perSource[page.Source]++
		}
	}
	return chunks
}

// splitText splits text on the coarsest separator present, merges the
// resulting pieces into chunks of at most chunkSize, and recurses with
// finer separators into any piece that is itself oversized. A single
// atomic token longer than chunkSize is kept whole; that is the one
// case where the size bound is exceeded.
func (s *Splitter) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	} else {
		for _, piece := range strings.Split(text, separator) {
			if piece != "" {
				pieces = append(pieces, piece)
			}
		}
	}

	var result []string
	var fitting []string
	for _, piece := range pieces {
		if len(piece) <= s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			result = append(result, s.merge(fitting, separator)...)
			fitting = nil
		}
		if len(finer) == 0 {
			result = append(result, piece)
		} else {
			result = append(result, s.splitText(piece, finer)...)
		}
	}
	if len(fitting) > 0 {
		result = append(result, s.merge(fitting, separator)...)
	}
	return result
}

// merge packs consecutive pieces into chunks not exceeding chunkSize,
// joined by the separator they were split on. When a chunk is emitted,
// leading pieces are dropped until at most overlap characters remain,
// so consecutive chunks share roughly overlap characters of context.
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := len(separator)

	var chunks []string
	var window []string
	total := 0

	join := func() {
		if chunk := strings.Join(window, separator); strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		added := len(piece)
		if len(window) > 0 {
			added += sepLen
		}

		if total+added > s.chunkSize && len(window) > 0 {
			join()
			// Slide the window forward, keeping overlap context.
			for len(window) > 0 {
				need := len(piece) + sepLen
				if total <= s.overlap && (total+need <= s.chunkSize || total == 0) {
					break
				}
				total -= len(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
			added = len(piece)
			if len(window) > 0 {
				added += sepLen
			}
		}

		window = append(window, piece)
		total += added
	}

	if len(window) > 0 {
		join()
	}
	return chunks
}
