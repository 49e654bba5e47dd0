// Package config defines the option groups shared by the docvoice commands.
// Fields carry kong tags so the CLI can embed them directly; every flag also
// reads a DOCVOICE_* environment variable and, through the JSON resolver, a
// key of the same name in the config file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// Narration holds the options of a single narration run.
type Narration struct {
	Pages            string  `env:"DOCVOICE_PAGES" default:"all" help:"Pages to narrate: all, 3, 1-4 or 1,3,5 (PDF input only)." group:"narration"`
	ChunkSize        int     `env:"DOCVOICE_CHUNK_SIZE" required:"" help:"Target number of words per synthesized chunk." group:"narration"`
	Output           string  `short:"o" env:"DOCVOICE_OUTPUT" default:"output" help:"Output directory, or a .wav file path." group:"narration"`
	KeepIntermediate bool    `env:"DOCVOICE_KEEP_INTERMEDIATE" help:"Keep per-chunk audio files after assembly." group:"narration"`
	Voice            string  `env:"DOCVOICE_VOICE" required:"" help:"Reference voice sample name, looked up in the voice directory." group:"narration"`
	VoiceSpeed       float64 `env:"DOCVOICE_VOICE_SPEED" default:"1.0" help:"Speech speed multiplier." group:"narration"`
	Speaker          string  `env:"DOCVOICE_SPEAKER" help:"TTS speaker: a voice name for OpenAI-compatible servers, a speaker id for Piper." group:"narration"`
}

func (n Narration) Validate() error {
	if n.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", n.ChunkSize)
	}
	if n.VoiceSpeed <= 0 {
		return fmt.Errorf("voice speed must be positive, got %g", n.VoiceSpeed)
	}
	if strings.TrimSpace(n.Voice) == "" {
		return fmt.Errorf("voice is required")
	}
	if n.Output == "" {
		return fmt.Errorf("output is required")
	}
	return nil
}

// Pipeline holds options that apply to every run regardless of how it was
// started.
type Pipeline struct {
	VoiceDirectory       string `env:"DOCVOICE_VOICE_DIRECTORY" default:"voices" type:"path" help:"Directory holding reference voice samples." group:"pipeline"`
	VoiceExt             string `env:"DOCVOICE_VOICE_EXT" default:".mp3" help:"File extension of reference voice samples." group:"pipeline"`
	BaseSpeaker          string `env:"DOCVOICE_BASE_SPEAKER" default:"en-default" help:"Base speaker whose tone the TTS output carries." group:"pipeline"`
	FoldUnicode          bool   `env:"DOCVOICE_FOLD_UNICODE" negatable:"" help:"Apply NFKC compatibility folding to extracted text (ligatures, ellipsis)." group:"pipeline"`
	PDFFallbackPdftotext bool   `env:"DOCVOICE_PDF_FALLBACK_PDFTOTEXT" default:"true" negatable:"" help:"Fall back to pdftotext when a PDF cannot be read." group:"pipeline"`
}

// VoiceSample returns the path of the reference sample for voice.
func (p Pipeline) VoiceSample(voice string) string {
	return filepath.Join(p.VoiceDirectory, voice+p.VoiceExt)
}

func (p Pipeline) Validate() error {
	if p.BaseSpeaker == "" {
		return fmt.Errorf("base speaker is required")
	}
	if p.VoiceExt != "" && !strings.HasPrefix(p.VoiceExt, ".") {
		return fmt.Errorf("voice extension must start with a dot, got %q", p.VoiceExt)
	}
	return nil
}

// TTS backends.
const (
	BackendOpenAI = "openai"
	BackendPiper  = "piper"
)

// Synthesis selects and configures the text-to-speech backend.
type Synthesis struct {
	TTSBackend string        `env:"DOCVOICE_TTS_BACKEND" default:"openai" enum:"openai,piper" help:"Text-to-speech backend [${enum}]." group:"synthesis"`
	TTSURL     string        `name:"tts-url" env:"DOCVOICE_TTS_URL" help:"Base URL of an OpenAI-compatible speech API (default: OpenAI)." group:"synthesis"`
	TTSAPIKey  string        `name:"tts-api-key" env:"DOCVOICE_TTS_API_KEY,OPENAI_API_KEY" help:"API key for the speech API." group:"synthesis"`
	TTSModel   string        `env:"DOCVOICE_TTS_MODEL" default:"tts-1" help:"Speech model name." group:"synthesis"`
	TTSTimeout time.Duration `env:"DOCVOICE_TTS_TIMEOUT" default:"2m" help:"Timeout of one synthesis request." group:"synthesis"`
	PiperBin   string        `env:"DOCVOICE_PIPER_BIN" default:"piper" help:"Piper binary." group:"synthesis"`
	PiperModel string        `env:"DOCVOICE_PIPER_MODEL" help:"Piper .onnx voice model." group:"synthesis"`
}

func (s Synthesis) Validate() error {
	switch s.TTSBackend {
	case BackendOpenAI:
		if s.TTSAPIKey == "" && s.TTSURL == "" {
			return fmt.Errorf("DOCVOICE_TTS_API_KEY is required when using the hosted OpenAI API")
		}
	case BackendPiper:
		if s.PiperModel == "" {
			return fmt.Errorf("DOCVOICE_PIPER_MODEL is required for the piper backend")
		}
	default:
		return fmt.Errorf("unknown tts backend %q", s.TTSBackend)
	}
	return nil
}

// Tone configures the tone-color conversion service.
type Tone struct {
	ToneURL     string        `env:"DOCVOICE_TONE_URL" default:"http://localhost:8000" help:"Base URL of the tone conversion service." group:"tone"`
	ToneAPIKey  string        `env:"DOCVOICE_TONE_API_KEY" help:"API key for the tone conversion service." group:"tone"`
	ToneTimeout time.Duration `env:"DOCVOICE_TONE_TIMEOUT" default:"2m" help:"Timeout of one tone service request." group:"tone"`
	Watermark   string        `env:"DOCVOICE_WATERMARK" default:"@docvoice" help:"Message embedded in converted audio." group:"tone"`
}

func (t Tone) Validate() error {
	if t.ToneURL == "" {
		return fmt.Errorf("DOCVOICE_TONE_URL is required")
	}
	return nil
}

// Server holds the options of the HTTP service.
type Server struct {
	Port             string        `env:"DOCVOICE_PORT,PORT" default:"8090" help:"Port to listen on." group:"server"`
	APIKey           string        `env:"DOCVOICE_API_KEY" help:"Bearer token required on /api routes." group:"server"`
	WorkerCount      int           `env:"DOCVOICE_WORKER_COUNT" default:"1" help:"Narrations processed concurrently." group:"server"`
	MaxQueueSize     int           `env:"DOCVOICE_MAX_QUEUE_SIZE" default:"16" help:"Narrations waiting for a worker before uploads are refused." group:"server"`
	MaxUploadBytes   int64         `env:"DOCVOICE_MAX_UPLOAD_BYTES" default:"52428800" help:"Largest accepted upload." group:"server"`
	JobTTL           time.Duration `env:"DOCVOICE_JOB_TTL" default:"1h" help:"How long finished jobs are remembered." group:"server"`
	WorkDir          string        `env:"DOCVOICE_WORK_DIR" default:"narrations" type:"path" help:"Directory for uploads and narrated audio." group:"server"`
	DefaultChunkSize int           `env:"DOCVOICE_DEFAULT_CHUNK_SIZE" default:"50" help:"Chunk size used when an upload does not name one." group:"server"`
	DefaultVoice     string        `env:"DOCVOICE_DEFAULT_VOICE" help:"Voice used when an upload does not name one." group:"server"`
}

func (s Server) Validate() error {
	if s.APIKey == "" {
		return fmt.Errorf("DOCVOICE_API_KEY is required")
	}
	if s.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", s.WorkerCount)
	}
	if s.MaxQueueSize <= 0 {
		return fmt.Errorf("max queue size must be positive, got %d", s.MaxQueueSize)
	}
	if s.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", s.MaxUploadBytes)
	}
	if s.JobTTL <= 0 {
		return fmt.Errorf("job ttl must be positive, got %s", s.JobTTL)
	}
	if s.DefaultChunkSize <= 0 {
		return fmt.Errorf("default chunk size must be positive, got %d", s.DefaultChunkSize)
	}
	if s.WorkDir == "" {
		return fmt.Errorf("work dir is required")
	}
	return nil
}

// Logging selects the slog handler.
type Logging struct {
	LogLevel  string `env:"DOCVOICE_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level [${enum}]."`
	LogFormat string `env:"DOCVOICE_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format [${enum}]."`
}

// Logger builds the logger described by l, writing to w.
func (l Logging) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
