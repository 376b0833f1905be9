package splitter

import (
	"strings"
	"testing"

	"github.com/bull/diabetes-rag/internal/pdf"
)

func page(text string) pdf.Page {
	return pdf.Page{Text: text, Source: "docs/diabetes.pdf", Number: 1}
}

func TestNew_ParameterValidation(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		wantErr   bool
	}{
		{"valid defaults", 1000, 200, false},
		{"zero overlap", 100, 0, false},
		{"zero chunk size", 0, 0, true},
		{"negative chunk size", -1, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals chunk size", 100, 100, true},
		{"overlap exceeds chunk size", 100, 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.chunkSize, tt.overlap)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%d, %d) error = %v, wantErr %v", tt.chunkSize, tt.overlap, err, tt.wantErr)
			}
		})
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s, _ := New(1000, 200)
	text := "Diabetes is a disease that occurs when blood glucose is too high."

	chunks := s.Split([]pdf.Page{page(text)})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text = %q, want %q", chunks[0].Text, text)
	}
	if chunks[0].Source != "docs/diabetes.pdf" || chunks[0].Page != 1 {
		t.Errorf("chunk origin = %s page %d, want docs/diabetes.pdf page 1", chunks[0].Source, chunks[0].Page)
	}
}

func TestSplit_SizeBound(t *testing.T) {
	s, _ := New(50, 10)
	text := strings.Repeat("insulin resistance develops gradually over time. ", 20)

	chunks := s.Split([]pdf.Page{page(text)})

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 50 {
			t.Errorf("chunk %d length %d exceeds chunk size 50: %q", i, len(c.Text), c.Text)
		}
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s, _ := New(40, 0)
	text := "First paragraph about glucose.\n\nSecond paragraph about insulin."

	chunks := s.Split([]pdf.Page{page(text)})

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0].Text != "First paragraph about glucose." {
		t.Errorf("chunk 0 = %q", chunks[0].Text)
	}
	if chunks[1].Text != "Second paragraph about insulin." {
		t.Errorf("chunk 1 = %q", chunks[1].Text)
	}
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	s, _ := New(30, 12)
	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa"

	chunks := s.Split([]pdf.Page{page(text)})

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if wordOverlap(chunks[i-1].Text, chunks[i].Text) == 0 {
			t.Errorf("chunks %d and %d share no overlap: %q / %q",
				i-1, i, chunks[i-1].Text, chunks[i].Text)
		}
	}
}

// TestSplit_RoundTrip verifies that merging chunks back together with
// their overlaps removed reconstructs the original word sequence.
func TestSplit_RoundTrip(t *testing.T) {
	s, _ := New(40, 15)
	text := "Type 2 diabetes is the most common form of diabetes.\n" +
		"It develops when the body becomes resistant to insulin.\n\n" +
		"Blood glucose levels rise because cells stop responding.\n" +
		"Over time the pancreas cannot keep up with demand."

	chunks := s.Split([]pdf.Page{page(text)})

	var rebuilt []string
	for _, c := range chunks {
		words := strings.Fields(c.Text)
		k := maxOverlap(rebuilt, words)
		rebuilt = append(rebuilt, words[k:]...)
	}

	original := strings.Fields(text)
	if strings.Join(rebuilt, " ") != strings.Join(original, " ") {
		t.Errorf("round trip mismatch:\n got: %v\nwant: %v", rebuilt, original)
	}
}

func TestSplit_LongTokenHardCut(t *testing.T) {
	s, _ := New(10, 3)
	token := "abcdefghijklmnopqrstuvwxy"

	chunks := s.Split([]pdf.Page{page(token)})

	if len(chunks) < 2 {
		t.Fatalf("expected long token to be cut, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Text) > 10 {
			t.Errorf("chunk %d length %d exceeds chunk size", i, len(c.Text))
		}
	}
	// Every character of the token survives the cut.
	joined := ""
	for _, c := range chunks {
		k := maxCharOverlap(joined, c.Text)
		joined += c.Text[k:]
	}
	if joined != token {
		t.Errorf("hard cut lost characters: got %q", joined)
	}
}

func TestSplit_AtomicTokenKeptWholeWithoutCharFallback(t *testing.T) {
	s, _ := New(10, 0)
	s.separators = []string{"\n\n", "\n", " "} // no hard-cut fallback
	token := strings.Repeat("x", 25)

	chunks := s.Split([]pdf.Page{page("short " + token)})

	found := false
	for _, c := range chunks {
		if c.Text == token {
			found = true
		}
	}
	if !found {
		t.Errorf("oversized atomic token should be kept whole, got %v", chunks)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, _ := New(35, 10)
	text := strings.Repeat("glucose monitoring matters. ", 10)

	a := s.Split([]pdf.Page{page(text)})
	b := s.Split([]pdf.Page{page(text)})

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_EmptyAndWhitespacePages(t *testing.T) {
	s, _ := New(100, 20)

	chunks := s.Split([]pdf.Page{page(""), page("   \n  \n ")})

	if len(chunks) != 0 {
		t.Errorf("expected no chunks from empty pages, got %d", len(chunks))
	}
}

func TestSplit_IndexesPerSource(t *testing.T) {
	s, _ := New(1000, 0)
	pages := []pdf.Page{
		{Text: "first page text", Source: "a.pdf", Number: 1},
		{Text: "second page text", Source: "a.pdf", Number: 2},
		{Text: "other document", Source: "b.pdf", Number: 1},
	}

	chunks := s.Split(pages)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Errorf("a.pdf chunk indexes = %d, %d, want 0, 1", chunks[0].Index, chunks[1].Index)
	}
	if chunks[2].Index != 0 {
		t.Errorf("b.pdf chunk index = %d, want 0", chunks[2].Index)
	}
}

// wordOverlap returns the number of words shared between the end of a
// and the start of b.
func wordOverlap(a, b string) int {
	return maxOverlap(strings.Fields(a), strings.Fields(b))
}

// maxOverlap returns the largest k such that the last k elements of a
// equal the first k elements of b.
func maxOverlap(a, b []string) int {
	limit := min(len(a), len(b))
	for k := limit; k > 0; k-- {
		match := true
		for i := 0; i < k; i++ {
			if a[len(a)-k+i] != b[i] {
				match = false
				break
			}
		}
		if match {
			return k
		}
	}
	return 0
}

// maxCharOverlap returns the largest k such that the last k bytes of a
// equal the first k bytes of b.
func maxCharOverlap(a, b string) int {
	limit := min(len(a), len(b))
	for k := limit; k > 0; k-- {
		if a[len(a)-k:] == b[:k] {
			return k
		}
	}
	return 0
}
