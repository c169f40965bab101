package services

import (
	"strings"
	"unicode/utf8"
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// chunkBuilder accumulates pieces and carries an overlap tail into the next chunk.
type chunkBuilder struct {
	maxSize int
	overlap int
	current strings.Builder
	chunks  []string
	// carried is true while current holds only the previous chunk's tail.
	carried bool
}

// add appends piece, flushing first when it would not fit. A carried tail
// counts toward the limit and is shortened rather than flushed on its own.
func (b *chunkBuilder) add(piece, sep string) {
	pieceSize := utf8.RuneCountInString(piece)

	if !b.carried && b.overflows(pieceSize, sep) {
		b.flush()
	}
	if b.carried && b.overflows(pieceSize, sep) {
		b.trimTail(b.maxSize - len(sep) - pieceSize)
	}

	if b.current.Len() > 0 {
		b.current.WriteString(sep)
	}
	b.current.WriteString(piece)
	b.carried = false
}

func (b *chunkBuilder) overflows(pieceSize int, sep string) bool {
	size := utf8.RuneCountInString(b.current.String())
	return size > 0 && size+len(sep)+pieceSize > b.maxSize
}

func (b *chunkBuilder) trimTail(keep int) {
	tail := lastRunes(b.current.String(), keep)
	b.current.Reset()
	b.current.WriteString(tail)
	b.carried = tail != ""
}

func (b *chunkBuilder) flush() {
	chunk := b.current.String()
	b.chunks = append(b.chunks, chunk)
	b.current.Reset()

	if tail := lastRunes(chunk, b.overlap); tail != "" {
		b.current.WriteString(tail)
		b.carried = true
	}
}

// ChunkText implements TextChunker. Paragraphs are kept whole when they fit;
// longer ones are split into sentences. maxChunkSize includes the overlap, so
// only a single sentence longer than the limit yields an oversized chunk.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	b := &chunkBuilder{maxSize: maxChunkSize, overlap: overlap}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			b.add(para, "\n\n")
			continue
		}

		for _, sentence := range splitIntoSentences(para) {
			b.add(sentence, " ")
		}
	}

	if b.current.Len() > 0 {
		b.chunks = append(b.chunks, b.current.String())
	}

	return b.chunks
}

func splitIntoSentences(text string) []string {
	var sentences []string
	start := 0

	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
