package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/askmatsya/bolt/internal/catalog"
	"github.com/askmatsya/bolt/internal/conversation"
	"github.com/askmatsya/bolt/internal/matcher"
	"github.com/askmatsya/bolt/internal/metrics"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/orders"
	"github.com/askmatsya/bolt/internal/speech"
	"github.com/gorilla/sessions"
	"github.com/shopspring/decimal"
)

const maxAudioBody = 10 << 20

// APIHandler serves the JSON endpoints used by the browser assistant.
type APIHandler struct {
	Assistant    *conversation.Orchestrator
	Catalog      *catalog.Cache
	Orders       *orders.Service
	Transcriber  *speech.Transcriber
	SessionStore sessions.Store
	Metrics      *metrics.Metrics

	DefaultLanguage models.Language
}

type chatRequest struct {
	ConversationID string         `json:"conversation_id"`
	Message        string         `json:"message"`
	Language       string         `json:"language"`
	Transcript     string         `json:"transcript"`
	Voices         []speech.Voice `json:"voices"`
}

type chatResponse struct {
	Success        bool                `json:"success"`
	ConversationID string              `json:"conversation_id"`
	Response       string              `json:"response"`
	Products       []models.Product    `json:"products"`
	Type           models.ResponseType `json:"type"`
	Intent         matcher.Intent      `json:"intent"`
	Language       models.Language     `json:"language"`
	Speech         *speech.Utterance   `json:"speech,omitempty"`
}

func (h *APIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	reply, err := h.Assistant.Ask(r.Context(), req.ConversationID, req.Message, conversation.AskOptions{
		Language:   models.ParseLanguage(req.Language, ""),
		Voices:     req.Voices,
		Transcript: req.Transcript,
		UserAgent:  r.UserAgent(),
		IPAddress:  clientIP(r),
	})
	if errors.Is(err, conversation.ErrEmptyInput) {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if err != nil {
		logFor("api").Error().Err(err).Msg("Chat failed")
		writeError(w, http.StatusInternalServerError, "Failed to answer")
		return
	}

	products := reply.Result.Products
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Success:        true,
		ConversationID: reply.ConversationID,
		Response:       reply.Result.Response,
		Products:       products,
		Type:           reply.Result.Type,
		Intent:         reply.Result.Intent,
		Language:       reply.Result.Language,
		Speech:         reply.Speech,
	})
}

type transcribeRequest struct {
	AudioData string `json:"audioData"`
	Language  string `json:"language"`
}

func (h *APIHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req transcribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAudioBody*2)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.AudioData == "" {
		writeError(w, http.StatusBadRequest, "Audio data is required")
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Audio data must be base64")
		return
	}
	lang := string(models.ParseLanguage(req.Language, models.LanguageEnglish))

	t, err := h.Transcriber.Transcribe(r.Context(), audio, lang)
	h.Metrics.RecordTranscription(err)
	switch {
	case errors.Is(err, speech.ErrNoTranscript):
		writeError(w, http.StatusBadRequest, "No transcription results received")
		return
	case errors.Is(err, speech.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Speech recognition is not configured")
		return
	case err != nil:
		logFor("api").Error().Err(err).Msg("Transcription failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"transcript": t.Text,
		"confidence": t.Confidence,
		"jobId":      t.JobID,
		"language":   t.Language,
	})
}

func (h *APIHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	turns, err := h.Assistant.History(r.Context(), id)
	if errors.Is(err, conversation.ErrUnknownSession) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		logFor("api").Error().Err(err).Str("conversation_id", id).Msg("Failed to load conversation")
		writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"conversation_id": id,
		"turns":           turns,
	})
}

func (h *APIHandler) Products(w http.ResponseWriter, r *http.Request) {
	products := h.Catalog.Load(r.Context())
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filtered := make([]models.Product, 0, len(products))
		for _, p := range products {
			if strings.EqualFold(p.Category, category) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"source":   h.Catalog.Source(),
		"products": products,
	})
}

func (h *APIHandler) Product(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Catalog.Lookup(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "product": p})
}

func (h *APIHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefs := matcher.Preferences{
		Occasion: q.Get("occasion"),
		Category: q.Get("category"),
	}
	if raw := strings.TrimSpace(q.Get("budget")); raw != "" {
		budget, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil || budget.IsNegative() {
			writeError(w, http.StatusBadRequest, "Budget must be a number")
			return
		}
		prefs.Budget = decimal.NewNullDecimal(budget)
	}
	lang := models.ParseLanguage(q.Get("language"), h.DefaultLanguage)

	rec := matcher.Recommend(h.Catalog.Load(r.Context()), prefs, lang)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"recommendation": rec,
	})
}

func (h *APIHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req orders.PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.SessionID == "" && h.SessionStore != nil {
		session, _ := h.SessionStore.Get(r, publicSession)
		req.SessionID = visitorID(session)
		session.Save(r, w)
	}
	req.UserAgent = r.UserAgent()
	req.IPAddress = clientIP(r)

	placement, err := h.Orders.Place(r.Context(), req)
	var verr *orders.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Please check the highlighted fields",
			"fields":  verr.Fields,
		})
		return
	case errors.Is(err, orders.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
		return
	case err != nil:
		logFor("api").Error().Err(err).Msg("Failed to place order")
		writeError(w, http.StatusInternalServerError, "Failed to place order. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":            true,
		"order_id":           placement.Order.ID,
		"order_ref":          placement.Ref,
		"status":             placement.Order.Status,
		"whatsapp_link":      placement.WhatsAppLink,
		"estimated_delivery": placement.EstimatedDelivery,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logFor("api").Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
