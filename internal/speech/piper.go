package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// PiperConfig holds configuration for the local Piper TTS backend.
type PiperConfig struct {
	BinPath   string // default: "piper"
	ModelPath string // required: path to the .onnx voice model
}

// PiperSynthesizer synthesizes speech with the Piper binary via subprocess.
// A numeric speaker selects a speaker of a multi-speaker model; speed maps to
// Piper's length scale.
type PiperSynthesizer struct {
	cfg PiperConfig
}

// NewPiperSynthesizer creates a PiperSynthesizer backed by a local binary.
func NewPiperSynthesizer(cfg PiperConfig) *PiperSynthesizer {
	if cfg.BinPath == "" {
		cfg.BinPath = "piper"
	}
	return &PiperSynthesizer{cfg: cfg}
}

func (p *PiperSynthesizer) Synthesize(ctx context.Context, text, speaker, dst string, speed float64) error {
	if p.cfg.ModelPath == "" {
		return fmt.Errorf("piper model path is required (set DOCVOICE_PIPER_MODEL)")
	}

	cmd := exec.CommandContext(ctx, p.cfg.BinPath, p.args(speaker, dst, speed)...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("piper failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (p *PiperSynthesizer) args(speaker, dst string, speed float64) []string {
	args := []string{"--model", p.cfg.ModelPath, "--output_file", dst}
	if _, err := strconv.Atoi(speaker); err == nil {
		args = append(args, "--speaker", speaker)
	}
	if speed > 0 && speed != 1 {
		args = append(args, "--length_scale", strconv.FormatFloat(1/speed, 'f', 3, 64))
	}
	return args
}
