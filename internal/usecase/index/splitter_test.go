package index

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/vidqa-cloud/vidqa/internal/domain"
)

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := NewSplitter(size, overlap)
	if err != nil {
		t.Fatalf("NewSplitter(%d, %d) failed: %v", size, overlap, err)
	}
	return s
}

// assertLossless verifies that the chunks tile the input: contiguous
// coverage from rune 0 to the end, each chunk's text matching the
// input at its offset.
func assertLossless(t *testing.T, text string, chunks []domain.Chunk) {
	t.Helper()
	runes := []rune(text)
	covered := 0
	for _, c := range chunks {
		if c.Offset > covered {
			t.Fatalf("chunk %d starts at %d, leaving a gap after %d", c.Ordinal, c.Offset, covered)
		}
		chunkRunes := []rune(c.Text)
		end := c.Offset + len(chunkRunes)
		if end > len(runes) {
			t.Fatalf("chunk %d overruns the text: end=%d len=%d", c.Ordinal, end, len(runes))
		}
		if string(runes[c.Offset:end]) != c.Text {
			t.Fatalf("chunk %d text does not match input at offset %d", c.Ordinal, c.Offset)
		}
		if end > covered {
			covered = end
		}
	}
	if covered != len(runes) {
		t.Fatalf("chunks cover %d of %d runes", covered, len(runes))
	}
}

func TestNewSplitter_Validation(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSplitter(tt.size, tt.overlap); !errors.Is(err, domain.ErrInvalidChunking) {
				t.Errorf("expected ErrInvalidChunking, got %v", err)
			}
		})
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := mustSplitter(t, 1000, 200)

	chunks := s.Split("a short transcript")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "a short transcript" || chunks[0].Offset != 0 {
		t.Errorf("unexpected chunk: %+v", chunks[0])
	}
}

func TestSplit_Empty(t *testing.T) {
	if chunks := mustSplitter(t, 1000, 200).Split(""); chunks != nil {
		t.Errorf("expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_SizeBoundAndOrdinals(t *testing.T) {
	s := mustSplitter(t, 50, 10)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 20)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if got := utf8.RuneCountInString(c.Text); got > 50 {
			t.Errorf("chunk %d has %d runes, limit 50", i, got)
		}
		if c.Ordinal != i {
			t.Errorf("chunk %d has ordinal %d", i, c.Ordinal)
		}
	}
	assertLossless(t, text, chunks)
}

func TestSplit_OverlapBetweenChunks(t *testing.T) {
	s := mustSplitter(t, 40, 15)
	text := strings.Repeat("alpha beta gamma delta ", 10)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].Offset + utf8.RuneCountInString(chunks[i-1].Text)
		shared := prevEnd - chunks[i].Offset
		if shared < 0 {
			t.Errorf("chunks %d and %d do not touch (gap of %d)", i-1, i, -shared)
		}
		if shared > 15 {
			t.Errorf("chunks %d and %d share %d runes, overlap limit 15", i-1, i, shared)
		}
	}
	assertLossless(t, text, chunks)
}

func TestSplit_PrefersParagraphBreaks(t *testing.T) {
	s := mustSplitter(t, 30, 0)
	text := "first paragraph here\n\nsecond paragraph here"

	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Text != "first paragraph here\n\n" {
		t.Errorf("first chunk = %q", chunks[0].Text)
	}
	if chunks[1].Text != "second paragraph here" {
		t.Errorf("second chunk = %q", chunks[1].Text)
	}
	assertLossless(t, text, chunks)
}

func TestSplit_UnbreakableRunHardCuts(t *testing.T) {
	s := mustSplitter(t, 10, 0)
	text := strings.Repeat("x", 25)

	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c.Text) > 10 {
			t.Errorf("chunk %d exceeds size: %q", i, c.Text)
		}
	}
	assertLossless(t, text, chunks)
}

func TestSplit_MultibyteRunes(t *testing.T) {
	s := mustSplitter(t, 20, 5)
	text := strings.Repeat("नमस्ते दुनिया ", 10)

	chunks := s.Split(text)
	for i, c := range chunks {
		if got := utf8.RuneCountInString(c.Text); got > 20 {
			t.Errorf("chunk %d has %d runes", i, got)
		}
	}
	assertLossless(t, text, chunks)
}

func TestSplit_Deterministic(t *testing.T) {
	s := mustSplitter(t, 60, 20)
	text := strings.Repeat("some words repeated over and over again ", 15)

	first := s.Split(text)
	second := s.Split(text)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
