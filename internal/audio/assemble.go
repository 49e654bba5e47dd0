// Package audio concatenates per-chunk WAV files into the final narration.
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dgallion1/docvoice/internal/apperr"
)

// pcmFrames is the number of samples copied per read.
const pcmFrames = 8192

// Assembly describes a merged audio file.
type Assembly struct {
	Path       string
	Segments   int
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// format is the PCM layout every input must share.
type format struct {
	sampleRate int
	channels   int
	bitDepth   int
	audioFmt   int
}

func (f format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d bit", f.sampleRate, f.channels, f.bitDepth)
}

// Assemble concatenates the WAV files at paths, in order, into output.
//
// Inputs are appended back to back with no cross-fade and no resampling; all
// of them must share the sample rate, channel count and bit depth of the
// first. The result is written to a temporary file beside output and renamed
// into place, so a failure never leaves a partial output file.
func Assemble(paths []string, output string) (*Assembly, error) {
	if len(paths) == 0 {
		return nil, apperr.IO("assemble %s: no input audio", output)
	}

	// Check every input before writing anything.
	var base format
	for i, p := range paths {
		f, err := probe(p)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			base = f
			continue
		}
		if f.sampleRate != base.sampleRate || f.channels != base.channels || f.bitDepth != base.bitDepth {
			return nil, apperr.IO("audio %s is %s, expected %s like %s", p, f, base, paths[0])
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*.tmp")
	if err != nil {
		return nil, apperr.IO("create output %s: %w", output, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	enc := wav.NewEncoder(tmp, base.sampleRate, base.bitDepth, base.channels, base.audioFmt)
	var samples int64
	for _, p := range paths {
		n, err := appendPCM(enc, p)
		if err != nil {
			return nil, err
		}
		samples += n
	}
	if samples == 0 {
		return nil, apperr.IO("assemble %s: inputs hold no samples", output)
	}
	if err := enc.Close(); err != nil {
		return nil, apperr.IO("finalize %s: %w", output, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, apperr.IO("close %s: %w", output, err)
	}
	if err := os.Rename(tmpPath, output); err != nil {
		return nil, apperr.IO("write output %s: %w", output, err)
	}
	committed = true

	frames := samples / int64(base.channels)
	return &Assembly{
		Path:       output,
		Segments:   len(paths),
		SampleRate: base.sampleRate,
		Channels:   base.channels,
		BitDepth:   base.bitDepth,
		Duration:   time.Duration(frames) * time.Second / time.Duration(base.sampleRate),
	}, nil
}

// probe opens a WAV file and reads its format.
func probe(path string) (format, error) {
	f, err := os.Open(path)
	if err != nil {
		return format{}, apperr.IO("open audio %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return format{}, apperr.IO("audio %s is not a valid wav file", path)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return format{}, apperr.IO("audio %s has no pcm format", path)
	}
	return format{
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
		audioFmt:   int(dec.WavAudioFormat),
	}, nil
}

// appendPCM streams the samples of path into enc and returns how many it
// copied.
func appendPCM(enc *wav.Encoder, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, apperr.IO("open audio %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil || dec.PCMChunk == nil {
		return 0, apperr.IO("read audio %s: no pcm data", path)
	}

	buf := &goaudio.IntBuffer{
		Format:         dec.Format(),
		Data:           make([]int, pcmFrames*int(dec.NumChans)),
		SourceBitDepth: int(dec.BitDepth),
	}
	var total int64
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return total, apperr.IO("read audio %s: %w", path, err)
		}
		if n == 0 {
			break
		}
		chunk := &goaudio.IntBuffer{Format: buf.Format, Data: buf.Data[:n], SourceBitDepth: buf.SourceBitDepth}
		if err := enc.Write(chunk); err != nil {
			return total, apperr.IO("write audio from %s: %w", path, err)
		}
		total += int64(n)
	}
	return total, nil
}

// Duration reports the playing time of a WAV file from the size of its PCM
// data.
func Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, apperr.IO("open audio %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		return 0, apperr.IO("read audio %s: %w", path, err)
	}
	frameBytes := int64(dec.NumChans) * int64((dec.BitDepth+7)/8)
	if frameBytes == 0 || dec.SampleRate == 0 || dec.PCMChunk == nil {
		return 0, apperr.IO("audio %s is not a valid wav file", path)
	}
	frames := int64(dec.PCMSize) / frameBytes
	return time.Duration(frames) * time.Second / time.Duration(dec.SampleRate), nil
}

// Cleanup removes intermediate files and returns one error per file that
// could not be removed. Files that are already gone are not errors.
func Cleanup(paths []string) []error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errs
}
