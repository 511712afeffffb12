package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_LanguageSettings(t *testing.T) {
	en := Plan("Namaste", models.LanguageEnglish, nil)
	assert.Equal(t, "en-IN", en.Lang)
	assert.Equal(t, []string{"en-IN", "en-US", "en-GB", "en-AU"}, en.LangFallbacks)
	assert.Equal(t, 0.9, en.Rate)
	assert.Equal(t, 1.1, en.Pitch)
	assert.Equal(t, 0.85, en.Volume)
	assert.Nil(t, en.Voice)

	ta := Plan("வணக்கம்", models.LanguageTamil, nil)
	assert.Equal(t, "ta-IN", ta.Lang)
	assert.Equal(t, []string{"ta-IN", "ta", "hi-IN", "en-IN"}, ta.LangFallbacks)
	assert.Equal(t, 0.85, ta.Rate)
}

func TestBestVoice_PrefersNaturalRegionalVoices(t *testing.T) {
	voices := []Voice{
		{Name: "Alex", Lang: "en-US", LocalService: true},
		{Name: "Google UK English Female", Lang: "en-GB"},
		{Name: "Microsoft Neerja Online (Natural) - English (India)", Lang: "en-IN"},
		{Name: "Google தமிழ்", Lang: "ta-IN"},
	}

	best, ok := BestVoice(voices, models.LanguageEnglish)
	require.True(t, ok)
	assert.Equal(t, "en-IN", best.Lang)

	best, ok = BestVoice(voices, models.LanguageTamil)
	require.True(t, ok)
	assert.Equal(t, "ta-IN", best.Lang)

	_, ok = BestVoice(nil, models.LanguageEnglish)
	assert.False(t, ok)
}

func TestScore(t *testing.T) {
	// natural 100 + Microsoft 60 + en prefix 50 + IN 30 + en-IN 25 + aria 10
	v := Voice{Name: "Microsoft Aria Natural", Lang: "en-IN"}
	assert.Equal(t, 275, Score(v, models.LanguageEnglish))

	// ta prefix 50 + IN 30 + tamil bonus 50 + local 40
	v = Voice{Name: "Lekha", Lang: "ta-IN", LocalService: true}
	assert.Equal(t, 170, Score(v, models.LanguageTamil))
}

type fakeASR struct {
	statuses []string
	polls    atomic.Int32
	results  string
}

func (f *fakeASR) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var cfg map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("config")), &cfg))
		assert.Equal(t, "transcription", cfg["type"])
		assert.Equal(t, "ta", cfg["transcription_config"].(map[string]any)["language"])

		file, _, err := r.FormFile("data_file")
		require.NoError(t, err)
		audio, _ := io.ReadAll(file)
		assert.Equal(t, "RIFF", string(audio))

		w.Write([]byte(`{"id":"job-42"}`))
	})
	mux.HandleFunc("GET /jobs/job-42", func(w http.ResponseWriter, r *http.Request) {
		n := int(f.polls.Add(1)) - 1
		status := f.statuses[len(f.statuses)-1]
		if n < len(f.statuses) {
			status = f.statuses[n]
		}
		json.NewEncoder(w).Encode(map[string]any{"job": map[string]string{"id": "job-42", "status": status}})
	})
	mux.HandleFunc("GET /jobs/job-42/transcript", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(f.results))
	})
	return mux
}

func newTestTranscriber(url string) *Transcriber {
	tr := NewTranscriber("secret", url)
	tr.PollInterval = time.Millisecond
	tr.MaxAttempts = 5
	return tr
}

func TestTranscribe_PollsUntilDone(t *testing.T) {
	asr := &fakeASR{
		statuses: []string{"running", "running", "done"},
		results:  `{"job":{"id":"job-42","status":"done"},"results":{"transcripts":[{"content":"புடவை வேண்டும்","confidence":0.93}]}}`,
	}
	srv := httptest.NewServer(asr.handler(t))
	defer srv.Close()

	got, err := newTestTranscriber(srv.URL).Transcribe(context.Background(), []byte("RIFF"), "ta")
	require.NoError(t, err)
	assert.Equal(t, "புடவை வேண்டும்", got.Text)
	assert.Equal(t, 0.93, got.Confidence)
	assert.Equal(t, "job-42", got.JobID)
	assert.EqualValues(t, 3, asr.polls.Load())
}

func TestTranscribe_Failures(t *testing.T) {
	cases := []struct {
		name     string
		statuses []string
		results  string
		want     error
	}{
		{"failed job", []string{"failed"}, "", ErrJobFailed},
		{"never finishes", []string{"running"}, "", ErrJobTimeout},
		{"empty results", []string{"done"}, `{"job":{"id":"job-42"},"results":{"transcripts":[]}}`, ErrNoTranscript},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer((&fakeASR{statuses: c.statuses, results: c.results}).handler(t))
			defer srv.Close()

			_, err := newTestTranscriber(srv.URL).Transcribe(context.Background(), []byte("RIFF"), "ta")
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestTranscribe_APIErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestTranscriber(srv.URL).Transcribe(context.Background(), []byte("RIFF"), "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestTranscribe_NotConfigured(t *testing.T) {
	_, err := NewTranscriber("", "").Transcribe(context.Background(), nil, "en")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
