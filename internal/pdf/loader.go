// Package pdf loads raw page text out of PDF documents.
package pdf

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rsc.io/pdf"
)

// Page is one page of extracted text together with its origin. Pages are
// immutable once produced and are the unit the splitter consumes.
type Page struct {
	Text   string
	Source string // file path of the originating PDF
	Number int    // 1-based page ordinal within Source
}

// Loader extracts text pages from local PDF files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadPath loads every page from the PDF at path, or from all .pdf files
// directly inside path if it is a directory (non-recursive, sorted by
// name). An invalid path or a directory without PDFs is a reported
// condition, not an error: it logs and returns an empty slice.
func (l *Loader) LoadPath(path string) ([]Page, error) {
	files, err := listPDFs(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		l.logger.Warn("No PDF files found", "path", path)
		return nil, nil
	}

	var pages []Page
	for _, file := range files {
		filePages, err := l.loadFile(file)
		if err != nil {
			// A single unreadable file does not abort the whole load.
			l.logger.Warn("Skipping unreadable PDF", "file", file, "error", err)
			continue
		}
		pages = append(pages, filePages...)
	}
	return pages, nil
}

// loadFile extracts one Page per PDF page. Pages that yield no text
// (scanned images, empty pages) are dropped. rsc.io/pdf panics on some
// malformed content streams; the recover turns that into an error.
func (l *Loader) loadFile(path string) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text := pageText(page)
		if text == "" {
			continue
		}
		pages = append(pages, Page{
			Text:   text,
			Source: path,
			Number: i,
		})
	}

	l.logger.Debug("Loaded PDF", "file", path, "pages", len(pages))
	return pages, nil
}

// pageText assembles a page's text runs into a single string. Text runs
// on the same line are joined directly; a drop in Y coordinate starts a
// new line.
func pageText(page pdf.Page) string {
	texts := page.Content().Text
	if len(texts) == 0 {
		return ""
	}

	var b strings.Builder
	prevY := texts[0].Y
	for i, t := range texts {
		if i > 0 && t.Y != prevY {
			b.WriteString("\n")
			prevY = t.Y
		}
		b.WriteString(t.S)
	}
	return sanitize(b.String())
}

// sanitize collapses runs of spaces and tabs within lines and squeezes
// consecutive blank lines down to one, keeping the line and paragraph
// boundaries the splitter prefers to break at.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// listPDFs resolves path to the list of PDF files to load. A missing
// path resolves to an empty list.
func listPDFs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		if !isPDF(path) {
			return nil, nil
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isPDF(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
