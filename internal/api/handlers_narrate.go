package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/docvoice/internal/parser"
	"github.com/dgallion1/docvoice/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleNarrate(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	pages := strings.TrimSpace(r.FormValue("pages"))
	if pages == "" {
		pages = parser.AllPages
	}
	// Bounds are checked against the document later; only the syntax here.
	if _, err := parser.SelectPages(pages, 0); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	chunkSize := s.cfg.DefaultChunkSize
	if v := r.FormValue("chunk_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "chunk_size must be a positive integer", http.StatusBadRequest)
			return
		}
		chunkSize = n
	}

	speed := 1.0
	if v := r.FormValue("speed"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			jsonError(w, "speed must be a positive number", http.StatusBadRequest)
			return
		}
		speed = f
	}

	keep := false
	if v := r.FormValue("keep_intermediate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "keep_intermediate must be true or false", http.StatusBadRequest)
			return
		}
		keep = b
	}

	voice := r.FormValue("voice")
	if voice == "" {
		voice = s.cfg.DefaultVoice
	}
	if voice == "" || voice != sanitizeFilename(voice) {
		jsonError(w, "voice is required", http.StatusBadRequest)
		return
	}
	sample := s.voices.VoiceSample(voice)
	if _, err := os.Stat(sample); err != nil {
		jsonError(w, fmt.Sprintf("unknown voice: %s", voice), http.StatusBadRequest)
		return
	}

	// Each job owns a directory holding the upload and its audio.
	if err := os.MkdirAll(s.cfg.WorkDir, 0o755); err != nil {
		jsonError(w, "failed to prepare work dir", http.StatusInternalServerError)
		return
	}
	workDir, err := os.MkdirTemp(s.cfg.WorkDir, "job-")
	if err != nil {
		jsonError(w, "failed to prepare work dir", http.StatusInternalServerError)
		return
	}
	input := filepath.Join(workDir, filename)
	if err := saveUpload(input, file, s.cfg.MaxUploadBytes); err != nil {
		os.RemoveAll(workDir)
		if errors.Is(err, errTooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	job := pipeline.NewJob(filename, workDir, pipeline.Request{
		Input:            input,
		Pages:            pages,
		ChunkSize:        chunkSize,
		Output:           filepath.Join(workDir, "audio"),
		KeepIntermediate: keep,
		VoiceSample:      sample,
		Speaker:          r.FormValue("speaker"),
		Speed:            speed,
	})

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":    job.ID,
		"status":    pipeline.StatusQueued,
		"poll_url":  fmt.Sprintf("/api/narrate/%s/status", job.ID),
		"audio_url": fmt.Sprintf("/api/narrate/%s/audio", job.ID),
	})
}

func (s *Server) handleNarrateStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleNarrateAudio(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted {
		jsonError(w, fmt.Sprintf("narration is %s", snap.Status), http.StatusConflict)
		return
	}

	f, err := os.Open(snap.OutputPath)
	if err != nil {
		jsonError(w, "audio no longer available", http.StatusGone)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		jsonError(w, "audio no longer available", http.StatusGone)
		return
	}

	name := strings.TrimSuffix(snap.Filename, filepath.Ext(snap.Filename)) + ".wav"
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

var errTooLarge = errors.New("upload too large")

// saveUpload copies at most limit bytes of src to path.
func saveUpload(path string, src io.Reader, limit int64) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > limit {
		return errTooLarge
	}
	return nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
