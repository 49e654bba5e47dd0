package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/docvoice/internal/config"
	"github.com/dgallion1/docvoice/internal/metrics"
	"github.com/dgallion1/docvoice/internal/pipeline"
	"github.com/dgallion1/docvoice/internal/speech"
	"github.com/schollz/progressbar/v3"
)

// NarrateCmd runs one narration in the foreground.
type NarrateCmd struct {
	Input string `arg:"" help:"PDF or text document to narrate."`

	NoProgress bool `help:"Do not draw a progress bar."`

	config.Narration `embed:""`
	config.Pipeline  `embed:""`
	config.Synthesis `embed:""`
	config.Tone      `embed:""`
}

func (c *NarrateCmd) Validate() error {
	return errors.Join(
		c.Narration.Validate(),
		c.Pipeline.Validate(),
		c.Synthesis.Validate(),
		c.Tone.Validate(),
	)
}

func (c *NarrateCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	synth, err := newSynthesizer(c.Synthesis)
	if err != nil {
		return err
	}
	tones := newToneClient(c.Tone)
	defer tones.Close()

	runner := pipeline.NewRunner(synth, tones, tones, g.Log, metrics.New(), pipeline.Options{
		BaseSpeaker:       c.BaseSpeaker,
		FoldUnicode:       c.FoldUnicode,
		FallbackPdftotext: c.PDFFallbackPdftotext,
	})

	req := pipeline.Request{
		Input:            c.Input,
		Pages:            c.Pages,
		ChunkSize:        c.ChunkSize,
		Output:           c.Output,
		KeepIntermediate: c.KeepIntermediate,
		VoiceSample:      c.VoiceSample(c.Voice),
		Speaker:          c.Speaker,
		Speed:            c.VoiceSpeed,
	}

	var bar *progressbar.ProgressBar
	if !c.NoProgress {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("narrating "+c.Input),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		req.Progress = func(done, total int) {
			bar.ChangeMax(total)
			if err := bar.Set(done); err != nil {
				g.Log.Debug("progress bar update failed", "error", err)
			}
		}
	}

	res, err := runner.Run(ctx, req)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	fmt.Println(res.Audio.Path)
	return nil
}

// newSynthesizer builds the TTS backend named by cfg.
func newSynthesizer(cfg config.Synthesis) (speech.Synthesizer, error) {
	switch cfg.TTSBackend {
	case config.BackendOpenAI:
		return speech.NewOpenAISynthesizer(speech.OpenAIConfig{
			APIKey:  cfg.TTSAPIKey,
			BaseURL: cfg.TTSURL,
			Model:   cfg.TTSModel,
			Timeout: cfg.TTSTimeout,
		}), nil
	case config.BackendPiper:
		return speech.NewPiperSynthesizer(speech.PiperConfig{
			BinPath:   cfg.PiperBin,
			ModelPath: cfg.PiperModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown tts backend %q", cfg.TTSBackend)
	}
}

func newToneClient(cfg config.Tone) *speech.ToneClient {
	return speech.NewToneClient(speech.ToneConfig{
		BaseURL:   cfg.ToneURL,
		APIKey:    cfg.ToneAPIKey,
		Watermark: cfg.Watermark,
		Timeout:   cfg.ToneTimeout,
	})
}
