// Package speech holds the clients for the external models the pipeline
// drives: a text-to-speech engine and a tone-color conversion service.
package speech

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Embedding is a speaker tone-color vector.
type Embedding []float32

// Synthesizer renders text to a WAV file.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, speaker, dst string, speed float64) error
}

// ToneExtractor derives tone embeddings.
type ToneExtractor interface {
	// ExtractTone computes the embedding of a reference voice sample.
	ExtractTone(ctx context.Context, samplePath string) (Embedding, error)
	// BaseTone returns the embedding of a built-in TTS base speaker.
	BaseTone(ctx context.Context, speaker string) (Embedding, error)
}

// ToneConverter re-voices an audio file from one tone to another.
type ToneConverter interface {
	Convert(ctx context.Context, src string, srcTone, tgtTone Embedding, dst string) error
}

// writeAudio copies r to dst, removing dst if the copy fails.
func writeAudio(dst string, r io.Reader) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}
