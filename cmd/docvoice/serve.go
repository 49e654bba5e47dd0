package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docvoice/internal/api"
	"github.com/dgallion1/docvoice/internal/config"
	"github.com/dgallion1/docvoice/internal/metrics"
	"github.com/dgallion1/docvoice/internal/pipeline"
)

// ServeCmd runs the HTTP service.
type ServeCmd struct {
	config.Server    `embed:""`
	config.Pipeline  `embed:""`
	config.Synthesis `embed:""`
	config.Tone      `embed:""`
}

func (c *ServeCmd) Validate() error {
	return errors.Join(
		c.Server.Validate(),
		c.Pipeline.Validate(),
		c.Synthesis.Validate(),
		c.Tone.Validate(),
	)
}

func (c *ServeCmd) Run(g *Globals) error {
	log := g.Log

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	synth, err := newSynthesizer(c.Synthesis)
	if err != nil {
		return err
	}
	tones := newToneClient(c.Tone)
	m := metrics.New()

	// Initialize pipeline.
	runner := pipeline.NewRunner(synth, tones, tones, log, m, pipeline.Options{
		BaseSpeaker:       c.BaseSpeaker,
		FoldUnicode:       c.FoldUnicode,
		FallbackPdftotext: c.PDFFallbackPdftotext,
	})
	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		WorkerCount:  c.WorkerCount,
		MaxQueueSize: c.MaxQueueSize,
		JobTTL:       c.JobTTL,
	}, runner, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, m, log, c.Server, c.Pipeline)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      srv,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting docvoice", "port", c.Port, "tts_backend", c.TTSBackend, "workers", c.WorkerCount)
	return serveUntil(sigCtx, httpServer, log, func() {
		cancel()
		orch.Stop()
		tones.Close()
	})
}

// serveUntil runs srv until ctx is done, then shuts it down and calls
// release. It returns only after release has finished.
func serveUntil(ctx context.Context, srv *http.Server, log *slog.Logger, release func()) error {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)

		release()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}
