package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/askmatsya/bolt/internal/logger"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL      = "https://asr.api.speechmatics.com/v2"
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 30
)

var (
	ErrNotConfigured = errors.New("speech: transcription is not configured")
	ErrJobFailed     = errors.New("speech: transcription job failed")
	ErrJobTimeout    = errors.New("speech: transcription job timed out")
	ErrNoTranscript  = errors.New("speech: no transcription results received")
)

// Transcript is the first alternative the service returned.
type Transcript struct {
	Text       string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	JobID      string  `json:"jobId"`
	Language   string  `json:"language"`
}

// Transcriber submits audio as a batch job and polls until it completes.
type Transcriber struct {
	APIKey       string
	BaseURL      string
	Client       *http.Client
	PollInterval time.Duration
	MaxAttempts  int

	logger zerolog.Logger
}

func NewTranscriber(apiKey, baseURL string) *Transcriber {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Transcriber{
		APIKey:       apiKey,
		BaseURL:      baseURL,
		Client:       &http.Client{Timeout: 30 * time.Second},
		PollInterval: DefaultPollInterval,
		MaxAttempts:  DefaultMaxAttempts,
		logger:       logger.Component("speech"),
	}
}

func (t *Transcriber) Configured() bool {
	return t != nil && t.APIKey != ""
}

type jobStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"` // created, running, done, failed
}

type transcriptResponse struct {
	Job     jobStatus `json:"job"`
	Results *struct {
		Transcripts []struct {
			Content    string  `json:"content"`
			Confidence float64 `json:"confidence"`
		} `json:"transcripts"`
	} `json:"results"`
}

// Transcribe runs a full job for audio (webm) in language.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, language string) (*Transcript, error) {
	if !t.Configured() {
		return nil, ErrNotConfigured
	}
	if language == "" {
		language = "en"
	}

	jobID, err := t.createJob(ctx, audio, language)
	if err != nil {
		return nil, err
	}
	t.logger.Debug().Str("job_id", jobID).Str("language", language).Msg("Transcription job created")

	result, err := t.poll(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if result.Results == nil || len(result.Results.Transcripts) == 0 {
		return nil, ErrNoTranscript
	}
	first := result.Results.Transcripts[0]
	return &Transcript{Text: first.Content, Confidence: first.Confidence, JobID: jobID, Language: language}, nil
}

func (t *Transcriber) createJob(ctx context.Context, audio []byte, language string) (string, error) {
	config := map[string]any{
		"type": "transcription",
		"transcription_config": map[string]any{
			"language":        language,
			"diarization":     "speaker",
			"enable_partials": true,
		},
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("config", string(configJSON)); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("data_file", "audio.webm")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var job jobStatus
	if err := t.do(ctx, http.MethodPost, "/jobs", w.FormDataContentType(), &body, &job); err != nil {
		return "", fmt.Errorf("create transcription job: %w", err)
	}
	if job.ID == "" {
		return "", errors.New("create transcription job: empty job id")
	}
	return job.ID, nil
}

func (t *Transcriber) poll(ctx context.Context, jobID string) (*transcriptResponse, error) {
	for attempt := 0; attempt < t.MaxAttempts; attempt++ {
		var status struct {
			Job jobStatus `json:"job"`
		}
		if err := t.do(ctx, http.MethodGet, "/jobs/"+jobID, "", nil, &status); err != nil {
			return nil, fmt.Errorf("get job status: %w", err)
		}

		switch status.Job.Status {
		case "done":
			var result transcriptResponse
			if err := t.do(ctx, http.MethodGet, "/jobs/"+jobID+"/transcript", "", nil, &result); err != nil {
				return nil, fmt.Errorf("get transcript: %w", err)
			}
			return &result, nil
		case "failed":
			return nil, ErrJobFailed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.PollInterval):
		}
	}
	return nil, ErrJobTimeout
}

func (t *Transcriber) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, t.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+t.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("speechmatics API error: %d - %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
