package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dgallion1/docvoice/internal/apperr"
	"github.com/dgallion1/docvoice/internal/audio"
	"github.com/dgallion1/docvoice/internal/chunker"
	"github.com/dgallion1/docvoice/internal/metrics"
	"github.com/dgallion1/docvoice/internal/normalize"
	"github.com/dgallion1/docvoice/internal/parser"
	"github.com/dgallion1/docvoice/internal/speech"
)

// Request describes one narration.
type Request struct {
	Input            string  // .pdf or .txt document
	Pages            string  // page expression, PDF only
	ChunkSize        int     // target words per chunk
	Output           string  // directory, or final .wav path
	KeepIntermediate bool    // keep per-chunk audio after assembly
	VoiceSample      string  // reference recording of the target voice
	Speaker          string  // TTS speaker
	Speed            float64 // TTS speed multiplier, 0 means 1

	// Job, when set, receives status and progress updates.
	Job *Job
	// Progress, when set, is called after each chunk.
	Progress func(done, total int)
}

// Segment is the audio of one chunk.
type Segment struct {
	Index         int
	Text          string
	RawPath       string
	ConvertedPath string
}

// Result summarizes a finished narration.
type Result struct {
	Layout   Layout
	Pages    []int
	Chunks   int
	Segments []Segment
	Audio    *audio.Assembly
	// CleanupErrors lists intermediates that could not be removed.
	CleanupErrors []error
}

// Options hold the settings shared by every run of a Runner.
type Options struct {
	BaseSpeaker       string
	FoldUnicode       bool
	FallbackPdftotext bool
}

// Runner drives a document through extraction, chunking, synthesis, tone
// conversion and assembly.
type Runner struct {
	synth   speech.Synthesizer
	tones   speech.ToneExtractor
	conv    speech.ToneConverter
	log     *slog.Logger
	metrics *metrics.Metrics
	opts    Options
}

func NewRunner(synth speech.Synthesizer, tones speech.ToneExtractor, conv speech.ToneConverter, log *slog.Logger, m *metrics.Metrics, opts Options) *Runner {
	return &Runner{
		synth:   synth,
		tones:   tones,
		conv:    conv,
		log:     log,
		metrics: m,
		opts:    opts,
	}
}

// Run narrates req.Input. Chunks are synthesized and converted one at a time,
// in reading order. Any failure stops the run and leaves the intermediates
// written so far on disk.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	res, err := r.run(ctx, req)
	if err != nil {
		r.metrics.ObserveRun(metrics.OutcomeFailed)
		if req.Job != nil {
			req.Job.AddError(err.Error())
			req.Job.SetStatus(StatusFailed, req.Job.Snapshot().Phase)
		}
		return nil, err
	}
	r.metrics.ObserveRun(metrics.OutcomeCompleted)
	return res, nil
}

func (r *Runner) run(ctx context.Context, req Request) (*Result, error) {
	log := r.log.With("input", req.Input)
	if req.Job != nil {
		log = log.With("job_id", req.Job.ID)
	}

	// Phase 1: Validate inputs
	if err := parser.CheckInput(req.Input); err != nil {
		return nil, err
	}
	if _, err := os.Stat(req.VoiceSample); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.NotFound("voice sample %s", req.VoiceSample)
		}
		return nil, fmt.Errorf("voice sample %s: %w", req.VoiceSample, err)
	}

	// Phase 2: Parse
	r.setStatus(req, StatusParsing, "parsing")
	pages := strings.TrimSpace(req.Pages)
	if pages == "" {
		pages = parser.AllPages
	}
	if !parser.IsPaginated(req.Input) && pages != parser.AllPages {
		log.Warn("page selection ignored for plain text input", "pages", pages)
	}
	p, err := parser.ForFile(req.Input, parser.Options{FallbackPdftotext: r.opts.FallbackPdftotext})
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(req.Input, pages)
	if err != nil {
		return nil, err
	}
	text := tree.Text()
	log.Info("parsed document", "pages", len(tree.Children), "chars", len(text))

	// Phase 3: Normalize and chunk
	r.setStatus(req, StatusChunking, "chunking")
	if r.opts.FoldUnicode {
		text = normalize.Fold(text)
	}
	text = normalize.Normalize(text)
	chunks := chunker.ChunkText(text, chunker.Config{TargetWords: req.ChunkSize})
	if len(chunks) == 0 {
		return nil, apperr.Format("input %s has no text to narrate", req.Input)
	}
	if req.Job != nil {
		req.Job.SetTotalChunks(len(chunks))
	}
	log.Info("chunked text", "chunks", len(chunks), "target_words", req.ChunkSize)

	layout := ResolveLayout(req.Output, req.Input)
	if err := layout.Prepare(); err != nil {
		return nil, err
	}

	// Phase 4: Synthesize and convert each chunk
	r.setStatus(req, StatusSynthesizing, "synthesizing")
	target, err := r.tones.ExtractTone(ctx, req.VoiceSample)
	if err != nil {
		return nil, fmt.Errorf("target tone: %w", err)
	}
	source, err := r.tones.BaseTone(ctx, r.opts.BaseSpeaker)
	if err != nil {
		return nil, fmt.Errorf("source tone: %w", err)
	}

	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}
	segments := make([]Segment, 0, len(chunks))
	for _, chunk := range chunks {
		seg := Segment{
			Index:         chunk.Index,
			Text:          chunk.Text,
			RawPath:       layout.RawPath(chunk.Index),
			ConvertedPath: layout.ConvertedPath(chunk.Index),
		}
		start := time.Now()
		if err := r.synth.Synthesize(ctx, chunk.Text, req.Speaker, seg.RawPath, speed); err != nil {
			return nil, fmt.Errorf("chunk %d: synthesize: %w", chunk.Index, err)
		}
		if err := r.conv.Convert(ctx, seg.RawPath, source, target, seg.ConvertedPath); err != nil {
			return nil, fmt.Errorf("chunk %d: convert: %w", chunk.Index, err)
		}
		segments = append(segments, seg)
		r.metrics.ObserveChunk(time.Since(start))
		log.Debug("synthesized chunk", "chunk", chunk.Index, "words", chunk.Words, "path", seg.ConvertedPath)

		if req.Job != nil {
			req.Job.IncrChunksProcessed()
		}
		if req.Progress != nil {
			req.Progress(len(segments), len(chunks))
		}
	}

	// Phase 5: Assemble
	r.setStatus(req, StatusAssembling, "assembling")
	converted := make([]string, len(segments))
	for i, seg := range segments {
		converted[i] = seg.ConvertedPath
	}
	asm, err := audio.Assemble(converted, layout.Final)
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveAudio(asm.Duration)
	log.Info("assembled audio", "path", asm.Path, "segments", asm.Segments, "duration", asm.Duration)

	res := &Result{
		Layout:   layout,
		Pages:    tree.Pages(),
		Chunks:   len(chunks),
		Segments: segments,
		Audio:    asm,
	}

	if !req.KeepIntermediate {
		paths := make([]string, 0, 2*len(segments))
		for _, seg := range segments {
			paths = append(paths, seg.RawPath, seg.ConvertedPath)
		}
		res.CleanupErrors = audio.Cleanup(paths)
		for _, cerr := range res.CleanupErrors {
			log.Warn("failed to remove intermediate", "error", cerr)
		}
		log.Info("removed intermediates", "files", len(paths)-len(res.CleanupErrors))
	}

	if req.Job != nil {
		req.Job.SetOutput(asm.Path, asm.Duration)
	}
	r.setStatus(req, StatusCompleted, "done")
	return res, nil
}

func (r *Runner) setStatus(req Request, status JobStatus, phase string) {
	if req.Job != nil {
		req.Job.SetStatus(status, phase)
	}
}
