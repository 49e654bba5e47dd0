package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// ToneClient talks to a tone-color service (an OpenVoice converter behind a
// small HTTP API). It implements both ToneExtractor and ToneConverter.
//
//	POST /v1/tone/extract          multipart "audio"           -> {"embedding": [...]}
//	GET  /v1/tone/speakers/{name}                              -> {"embedding": [...]}
//	POST /v1/tone/convert          multipart "audio", "source",
//	                               "target", "message"         -> audio/wav
type ToneClient struct {
	baseURL    string
	apiKey     string
	watermark  string
	httpClient *http.Client
}

// ToneConfig configures a ToneClient.
type ToneConfig struct {
	BaseURL   string
	APIKey    string
	Watermark string // message embedded in converted audio
	Timeout   time.Duration
}

func NewToneClient(cfg ToneConfig) *ToneClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &ToneClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		watermark: cfg.Watermark,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type embeddingResponse struct {
	Embedding Embedding `json:"embedding"`
}

// ExtractTone uploads a voice sample and returns its tone embedding.
func (c *ToneClient) ExtractTone(ctx context.Context, samplePath string) (Embedding, error) {
	body, contentType, err := multipartBody(map[string]string{"audio": samplePath}, nil)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tone/extract", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	emb, err := c.doEmbedding(httpReq)
	if err != nil {
		return nil, fmt.Errorf("extract tone of %s: %w", samplePath, err)
	}
	return emb, nil
}

// BaseTone fetches the embedding of a TTS base speaker.
func (c *ToneClient) BaseTone(ctx context.Context, speaker string) (Embedding, error) {
	u := c.baseURL + "/v1/tone/speakers/" + url.PathEscape(speaker)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	emb, err := c.doEmbedding(httpReq)
	if err != nil {
		return nil, fmt.Errorf("base tone %s: %w", speaker, err)
	}
	return emb, nil
}

func (c *ToneClient) doEmbedding(httpReq *http.Request) (Embedding, error) {
	c.authorize(httpReq)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding")
	}
	return result.Embedding, nil
}

// Convert re-voices src from srcTone to tgtTone and writes the result to dst.
func (c *ToneClient) Convert(ctx context.Context, src string, srcTone, tgtTone Embedding, dst string) error {
	source, err := json.Marshal(srcTone)
	if err != nil {
		return fmt.Errorf("marshal source tone: %w", err)
	}
	target, err := json.Marshal(tgtTone)
	if err != nil {
		return fmt.Errorf("marshal target tone: %w", err)
	}
	fields := map[string]string{
		"source": string(source),
		"target": string(target),
	}
	if c.watermark != "" {
		fields["message"] = c.watermark
	}
	body, contentType, err := multipartBody(map[string]string{"audio": src}, fields)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tone/convert", body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("convert %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("convert %s: status %d: %s", src, resp.StatusCode, string(respBody))
	}
	return writeAudio(dst, resp.Body)
}

func (c *ToneClient) authorize(r *http.Request) {
	if c.apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// Close releases idle connections.
func (c *ToneClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// multipartBody builds a multipart form from files (field -> path) and plain
// fields.
func multipartBody(files, fields map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", path, err)
		}
		part, err := mw.CreateFormFile(field, filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", path, err)
		}
	}
	for field, value := range fields {
		if err := mw.WriteField(field, value); err != nil {
			return nil, "", fmt.Errorf("encode field %s: %w", field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
