package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dgallion1/docvoice/internal/config"
	"github.com/dgallion1/docvoice/internal/speech"
)

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	if err != nil {
		t.Fatalf("build parser: %v", err)
	}
	ctx, err := parser.Parse(args)
	return &cli, ctx, err
}

func TestCLI_NarrateIsDefault(t *testing.T) {
	cli, ctx, err := parseCLI(t, "book.pdf", "--chunk-size", "30", "--voice", "ana", "--tts-api-key", "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(ctx.Command(), "narrate") {
		t.Errorf("expected narrate command, got %q", ctx.Command())
	}
	if cli.Narrate.Input != "book.pdf" || cli.Narrate.ChunkSize != 30 {
		t.Errorf("unexpected narrate options: %+v", cli.Narrate)
	}
}

func TestCLI_NarrateValidation(t *testing.T) {
	_, _, err := parseCLI(t, "narrate", "book.pdf", "--chunk-size", "30", "--voice", "ana",
		"--tts-api-key", "k", "--voice-speed", "0")
	if err == nil || !strings.Contains(err.Error(), "voice speed") {
		t.Errorf("expected voice speed error, got %v", err)
	}
}

func TestCLI_ServeRequiresAPIKey(t *testing.T) {
	_, _, err := parseCLI(t, "serve", "--tts-api-key", "k")
	if err == nil || !strings.Contains(err.Error(), "DOCVOICE_API_KEY") {
		t.Errorf("expected api key error, got %v", err)
	}

	cli, _, err := parseCLI(t, "serve", "--tts-api-key", "k", "--api-key", "secret", "--port", "9000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cli.Serve.Port != "9000" || cli.Serve.WorkerCount != 1 {
		t.Errorf("unexpected serve options: %+v", cli.Serve.Server)
	}
}

func TestNewSynthesizer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Synthesis
		want    string
		wantErr bool
	}{
		{"openai", config.Synthesis{TTSBackend: config.BackendOpenAI, TTSAPIKey: "k"}, "*speech.OpenAISynthesizer", false},
		{"piper", config.Synthesis{TTSBackend: config.BackendPiper, PiperModel: "en.onnx"}, "*speech.PiperSynthesizer", false},
		{"unknown", config.Synthesis{TTSBackend: "melo"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth, err := newSynthesizer(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			switch synth.(type) {
			case *speech.OpenAISynthesizer:
				if tt.want != "*speech.OpenAISynthesizer" {
					t.Errorf("got openai synthesizer, want %s", tt.want)
				}
			case *speech.PiperSynthesizer:
				if tt.want != "*speech.PiperSynthesizer" {
					t.Errorf("got piper synthesizer, want %s", tt.want)
				}
			default:
				t.Errorf("unexpected synthesizer %T", synth)
			}
		})
	}
}

func TestServeUntil_WaitsForRelease(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var released atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- serveUntil(ctx, srv, log, func() {
			time.Sleep(50 * time.Millisecond)
			released.Store(true)
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !released.Load() {
			t.Error("serveUntil returned before release finished")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serveUntil did not return after cancel")
	}
}
