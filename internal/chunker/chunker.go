package chunker

import (
	"strings"

	"github.com/dgallion1/docvoice/internal/doctree"
)

// DefaultChunkWords is the word target used when none is configured.
const DefaultChunkWords = 50

// Config controls chunking behavior.
type Config struct {
	TargetWords int // Approximate words per chunk before looking for a sentence end.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{TargetWords: DefaultChunkWords}
}

// ChunkText splits normalized text into indexed chunks.
func ChunkText(text string, cfg Config) []doctree.Chunk {
	var chunks []doctree.Chunk
	split(text, cfg.TargetWords, func(words []string, consumed int) {
		chunks = append(chunks, doctree.Chunk{
			Text:  strings.Join(words, " "),
			Index: len(chunks),
			Words: consumed,
		})
	})
	return chunks
}

// Split breaks text into chunks of roughly targetWords words, closing each
// chunk at the first word ending in a period once the target is reached.
// The last chunk is flushed even when it stops mid-sentence, so chunks may be
// longer than the target but every word lands in exactly one chunk.
func Split(text string, targetWords int) []string {
	var out []string
	split(text, targetWords, func(words []string, _ int) {
		out = append(out, strings.Join(words, " "))
	})
	return out
}

func split(text string, targetWords int, emit func(words []string, consumed int)) {
	if targetWords <= 0 {
		targetWords = DefaultChunkWords
	}

	words := strings.Fields(text)
	var current []string
	start := 0
	reachedTarget := false

	for i, word := range words {
		word = SpellOut(word)
		current = append(current, word)

		// The index runs over the whole text, not the current chunk.
		if i != 0 && i%targetWords == 0 {
			reachedTarget = true
		}

		if (reachedTarget && strings.HasSuffix(word, ".")) || i == len(words)-1 {
			emit(current, i+1-start)
			current = nil
			start = i + 1
			reachedTarget = false
		}
	}
}
