// Package transcribe converts finished session buffers to text through a
// local whisper-server HTTP endpoint.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Sebstrdigital/dua-talk/internal/audio"
	"github.com/Sebstrdigital/dua-talk/internal/config"
	"github.com/Sebstrdigital/dua-talk/internal/session"
)

// temperatures maps the configured sensitivity profile to the decoding
// temperature sent to whisper-server.
var temperatures = map[string]string{
	"strict":  "0.0",
	"default": "0.2",
	"relaxed": "0.4",
}

// annotationOnly matches transcripts that contain nothing but whisper's
// non-speech annotations, e.g. "[BLANK_AUDIO]" or "(wind blowing)".
var annotationOnly = regexp.MustCompile(`^[\s]*([\[(][^\])]*[\])][\s]*)+$`)

// Client posts WAV-encoded session audio to whisper-server's /inference
// endpoint. It implements session.Transcriber.
type Client struct {
	baseURL     string
	model       string
	temperature string
	httpClient  *http.Client
	logger      *slog.Logger
}

// New builds a whisper client from validated configuration.
func New(cfg config.WhisperConfig, logger *slog.Logger) *Client {
	temperature, ok := temperatures[cfg.Sensitivity]
	if !ok {
		temperature = temperatures["default"]
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		model:       cfg.Model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond},
		logger:      logger,
	}
}

// Transcribe sends one finished buffer and returns the recognized text.
// sensitivity overrides the configured profile when non-empty.
func (c *Client) Transcribe(ctx context.Context, samples []float32, language string, sensitivity string) (session.Result, error) {
	temperature := c.temperature
	if override, ok := temperatures[sensitivity]; ok {
		temperature = override
	}

	body, contentType, err := c.buildRequestBody(samples, language, temperature)
	if err != nil {
		return session.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", body)
	if err != nil {
		return session.Result{}, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return session.Result{}, fmt.Errorf("%w: %v", session.ErrTranscriberUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return session.Result{}, fmt.Errorf("%w: inference returned %d: %s",
			session.ErrTranscriberUnavailable, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return session.Result{}, fmt.Errorf("decode inference response: %w", err)
	}

	text := strings.TrimSpace(payload.Text)
	result := session.Result{Text: text, NoSpeech: isNoSpeech(text)}
	c.logger.Info("inference completed",
		"samples", len(samples),
		"language", language,
		"chars", len(text),
		"no_speech", result.NoSpeech,
		"latency_ms", time.Since(started).Milliseconds())
	return result, nil
}

func (c *Client) buildRequestBody(samples []float32, language string, temperature string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "session.wav")
	if err != nil {
		return nil, "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(encodePCM16WAV(samples, audio.SessionRate)); err != nil {
		return nil, "", fmt.Errorf("write wav payload: %w", err)
	}

	fields := map[string]string{
		"temperature":     temperature,
		"response_format": "json",
	}
	if language != "" {
		fields["language"] = language
	}
	if c.model != "" {
		fields["model"] = c.model
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write multipart field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// isNoSpeech reports whether the transcript carries no usable speech: empty
// text or only bracketed annotations.
func isNoSpeech(text string) bool {
	if text == "" {
		return true
	}
	return annotationOnly.MatchString(text)
}
