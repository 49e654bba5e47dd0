package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
)

type narrateCLI struct {
	Input     string `arg:""`
	Narration `embed:""`
	Pipeline  `embed:""`
	Synthesis `embed:""`
	Tone      `embed:""`
}

func parse(t *testing.T, cli any, args []string, opts ...kong.Option) error {
	t.Helper()
	opts = append(opts, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	parser, err := kong.New(cli, opts...)
	if err != nil {
		t.Fatalf("build parser: %v", err)
	}
	_, err = parser.Parse(args)
	return err
}

func TestNarrate_Defaults(t *testing.T) {
	var cli narrateCLI
	if err := parse(t, &cli, []string{"book.pdf", "--chunk-size", "40", "--voice", "ana"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cli.Pages != "all" {
		t.Errorf("expected pages %q, got %q", "all", cli.Pages)
	}
	if cli.Output != "output" {
		t.Errorf("expected output %q, got %q", "output", cli.Output)
	}
	if cli.VoiceSpeed != 1.0 {
		t.Errorf("expected speed 1.0, got %v", cli.VoiceSpeed)
	}
	if cli.FoldUnicode {
		t.Error("expected unicode folding off by default")
	}
	if !cli.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback on by default")
	}
	if cli.TTSBackend != BackendOpenAI || cli.TTSModel != "tts-1" {
		t.Errorf("unexpected synthesis defaults: %+v", cli.Synthesis)
	}
	if cli.ToneTimeout != 2*time.Minute {
		t.Errorf("expected 2m tone timeout, got %s", cli.ToneTimeout)
	}
	if got, want := cli.VoiceSample(cli.Voice), filepath.Join(cli.VoiceDirectory, "ana.mp3"); got != want {
		t.Errorf("expected voice sample %q, got %q", want, got)
	}
}

func TestNarrate_ChunkSizeRequired(t *testing.T) {
	var cli narrateCLI
	err := parse(t, &cli, []string{"book.pdf", "--voice", "ana"})
	if err == nil || !strings.Contains(err.Error(), "chunk-size") {
		t.Errorf("expected missing chunk-size error, got %v", err)
	}
}

func TestNarrate_Env(t *testing.T) {
	t.Setenv("DOCVOICE_CHUNK_SIZE", "25")
	t.Setenv("DOCVOICE_VOICE", "env-voice")
	t.Setenv("DOCVOICE_FOLD_UNICODE", "true")
	t.Setenv("DOCVOICE_TTS_BACKEND", "piper")

	var cli narrateCLI
	if err := parse(t, &cli, []string{"book.txt"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cli.ChunkSize != 25 || cli.Voice != "env-voice" {
		t.Errorf("env not applied: %+v", cli.Narration)
	}
	if !cli.FoldUnicode {
		t.Error("expected folding enabled from env")
	}
	if cli.TTSBackend != BackendPiper {
		t.Errorf("expected piper backend, got %q", cli.TTSBackend)
	}
}

func TestNarrate_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"chunk_size": 70, "voice": "file-voice", "keep_intermediate": true, "pages": "2-4"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	var cli narrateCLI
	if err := parse(t, &cli, []string{"book.pdf", "--pages", "1"}, kong.Configuration(kong.JSON, path)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cli.ChunkSize != 70 || cli.Voice != "file-voice" || !cli.KeepIntermediate {
		t.Errorf("config file not applied: %+v", cli.Narration)
	}
	if cli.Pages != "1" {
		t.Errorf("expected flag to override config file, got pages %q", cli.Pages)
	}
}

func TestSynthesis_FlagAndConfigKeys(t *testing.T) {
	var cli narrateCLI
	err := parse(t, &cli, []string{"book.txt", "--chunk-size", "5", "--voice", "ana",
		"--tts-url", "http://localai:8080/v1", "--tts-api-key", "flag-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cli.TTSURL != "http://localai:8080/v1" || cli.TTSAPIKey != "flag-key" {
		t.Errorf("flags not applied: %+v", cli.Synthesis)
	}

	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"tts_url": "http://tts.local/v1", "tts_api_key": "file-key"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cli = narrateCLI{}
	err = parse(t, &cli, []string{"book.txt", "--chunk-size", "5", "--voice", "ana"}, kong.Configuration(kong.JSON, path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cli.TTSURL != "http://tts.local/v1" || cli.TTSAPIKey != "file-key" {
		t.Errorf("config file keys not applied: %+v", cli.Synthesis)
	}
}

func TestNarration_Validate(t *testing.T) {
	valid := Narration{Pages: "all", ChunkSize: 10, Output: "out", Voice: "v", VoiceSpeed: 1}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Narration)
	}{
		{"zero chunk size", func(n *Narration) { n.ChunkSize = 0 }},
		{"negative speed", func(n *Narration) { n.VoiceSpeed = -1 }},
		{"blank voice", func(n *Narration) { n.Voice = " " }},
		{"no output", func(n *Narration) { n.Output = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.mutate(&n)
			if err := n.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSynthesis_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Synthesis
		wantErr bool
	}{
		{"openai with key", Synthesis{TTSBackend: BackendOpenAI, TTSAPIKey: "k"}, false},
		{"openai compatible server", Synthesis{TTSBackend: BackendOpenAI, TTSURL: "http://localai:8080/v1"}, false},
		{"openai without key or url", Synthesis{TTSBackend: BackendOpenAI}, true},
		{"piper with model", Synthesis{TTSBackend: BackendPiper, PiperModel: "en.onnx"}, false},
		{"piper without model", Synthesis{TTSBackend: BackendPiper}, true},
		{"unknown backend", Synthesis{TTSBackend: "melo"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPipeline_Validate(t *testing.T) {
	if err := (Pipeline{BaseSpeaker: "en", VoiceExt: ".wav"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Pipeline{BaseSpeaker: "en", VoiceExt: "wav"}).Validate(); err == nil {
		t.Error("expected error for extension without dot")
	}
	if err := (Pipeline{VoiceExt: ".wav"}).Validate(); err == nil {
		t.Error("expected error for missing base speaker")
	}
}

func TestServer_Defaults(t *testing.T) {
	var cli struct {
		Server `embed:""`
	}
	if err := parse(t, &cli, []string{"--api-key", "secret"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cli.Port != "8090" || cli.WorkerCount != 1 || cli.MaxQueueSize != 16 {
		t.Errorf("unexpected defaults: %+v", cli.Server)
	}
	if cli.MaxUploadBytes != 52428800 {
		t.Errorf("expected 50MB upload limit, got %d", cli.MaxUploadBytes)
	}
	if cli.JobTTL != time.Hour {
		t.Errorf("expected 1h ttl, got %s", cli.JobTTL)
	}
	if err := cli.Server.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestServer_ValidateRequiresAPIKey(t *testing.T) {
	s := Server{WorkerCount: 1, MaxQueueSize: 1, MaxUploadBytes: 1, JobTTL: time.Minute, DefaultChunkSize: 1, WorkDir: "w"}
	if err := s.Validate(); err == nil || !strings.Contains(err.Error(), "DOCVOICE_API_KEY") {
		t.Errorf("expected api key error, got %v", err)
	}
}

func TestLogging_Logger(t *testing.T) {
	var buf bytes.Buffer
	log := Logging{LogLevel: "warn", LogFormat: "json"}.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown", "chunk", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"chunk":3`) {
		t.Errorf("expected json record, got %q", out)
	}

	buf.Reset()
	Logging{LogLevel: "bogus", LogFormat: "text"}.Logger(&buf).Info("fallback")
	if !strings.Contains(buf.String(), "msg=fallback") {
		t.Errorf("expected text record at info level, got %q", buf.String())
	}
}
