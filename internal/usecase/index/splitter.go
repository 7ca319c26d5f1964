package index

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

// separators, tried in order: paragraph breaks, line breaks, word
// breaks, then hard cuts as a last resort.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts transcript text into overlapping chunks. Splits happen
// on the most natural boundary available; chunk sizes and the overlap
// are measured in runes so multi-byte scripts chunk the same as ASCII.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSplitter creates a splitter. The overlap must be strictly smaller
// than the chunk size or every merge step would stall.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size=%d: %w", chunkSize, domain.ErrInvalidChunking)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf(
			"chunk_overlap=%d must be in [0, chunk_size=%d): %w",
			chunkOverlap, chunkSize, domain.ErrInvalidChunking,
		)
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split cuts text into ordered chunks. No text is dropped: every rune
// of the input appears in at least one chunk, and consecutive chunks
// share up to chunkOverlap runes of trailing/leading context.
func (s *Splitter) Split(text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	atoms := s.atomize(text, separators)
	return s.merge(atoms)
}

type atom struct {
	text  string
	start int // rune offset in the original text
	runes int
}

// atomize recursively splits text into fragments no longer than
// chunkSize, keeping separators attached so concatenating the atoms
// reproduces the input exactly.
func (s *Splitter) atomize(text string, seps []string) []atom {
	atoms := s.fragment(text, seps)

	offset := 0
	for i := range atoms {
		atoms[i].start = offset
		atoms[i].runes = utf8.RuneCountInString(atoms[i].text)
		offset += atoms[i].runes
	}
	return atoms
}

func (s *Splitter) fragment(text string, seps []string) []atom {
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []atom{{text: text}}
	}

	sep := seps[0]
	if sep == "" {
		return hardCut(text, s.chunkSize)
	}

	var out []atom
	for _, part := range strings.SplitAfter(text, sep) {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= s.chunkSize {
			out = append(out, atom{text: part})
			continue
		}
		out = append(out, s.fragment(part, seps[1:])...)
	}
	return out
}

func hardCut(text string, size int) []atom {
	var out []atom
	runes := []rune(text)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, atom{text: string(runes[i:end])})
	}
	return out
}

// merge packs atoms into chunks up to chunkSize, sliding forward so
// each chunk starts with up to chunkOverlap runes of the previous one.
func (s *Splitter) merge(atoms []atom) []domain.Chunk {
	var chunks []domain.Chunk
	var window []atom
	total := 0

	emit := func() {
		if len(window) == 0 {
			return
		}
		var sb strings.Builder
		for _, a := range window {
			sb.WriteString(a.text)
		}
		chunks = append(chunks, domain.Chunk{
			Ordinal: len(chunks),
			Offset:  window[0].start,
			Text:    sb.String(),
		})
	}

	for _, a := range atoms {
		if total+a.runes > s.chunkSize && len(window) > 0 {
			emit()
			for len(window) > 0 &&
				(total > s.chunkOverlap || (total+a.runes > s.chunkSize && total > 0)) {
				total -= window[0].runes
				window = window[1:]
			}
		}
		window = append(window, a)
		total += a.runes
	}
	emit()

	return chunks
}
