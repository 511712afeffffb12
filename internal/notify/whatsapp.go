// Package notify sends order messages to customers and the shop owner over
// WhatsApp, falling back to a wa.me deep link the browser can open.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/askmatsya/bolt/internal/logger"
	"github.com/askmatsya/bolt/internal/metrics"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://graph.facebook.com/v18.0"

const (
	KindConfirmation = "confirmation"
	KindAdmin        = "admin"
	KindStatus       = "status"
)

const (
	ChannelAPI  = "api"
	ChannelLink = "link"
)

// Delivery describes how a message went out. Link is always set so callers
// can offer the deep link when the API was not used.
type Delivery struct {
	To        string `json:"to"`
	Channel   string `json:"channel"`
	MessageID string `json:"message_id,omitempty"`
	Link      string `json:"link"`
}

// Sent reports whether the Business API accepted the message.
func (d Delivery) Sent() bool {
	return d.Channel == ChannelAPI
}

// Sender delivers one text message.
type Sender interface {
	Send(ctx context.Context, to, body, kind string) (Delivery, error)
}

// InteractionRecorder stores the delivery log.
type InteractionRecorder interface {
	CreateInteraction(ctx context.Context, in *models.Interaction) error
}

type WhatsAppConfig struct {
	APIKey        string
	PhoneNumberID string
	BaseURL       string
}

// WhatsApp sends through the Business API when configured.
type WhatsApp struct {
	cfg      WhatsAppConfig
	client   *http.Client
	recorder InteractionRecorder
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewWhatsApp(cfg WhatsAppConfig, recorder InteractionRecorder, m *metrics.Metrics) *WhatsApp {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	w := &WhatsApp{
		cfg:      cfg,
		client:   &http.Client{Timeout: 15 * time.Second},
		recorder: recorder,
		metrics:  m,
		logger:   logger.Component("whatsapp"),
		now:      time.Now,
	}
	w.logger.Info().Bool("api_configured", w.Configured()).Msg("WhatsApp service initialized")
	return w
}

func (w *WhatsApp) Configured() bool {
	return w.cfg.APIKey != "" && w.cfg.PhoneNumberID != ""
}

type sendPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send posts body to the Business API. When the API is not configured the
// link delivery is returned with a nil error; when the API call fails the
// link delivery is returned together with the error.
func (w *WhatsApp) Send(ctx context.Context, to, body, kind string) (Delivery, error) {
	phone := FormatPhone(to)
	d := Delivery{To: phone, Channel: ChannelLink, Link: DeepLink(phone, body)}

	if !w.Configured() {
		w.logger.Debug().Str("to", phone).Str("kind", kind).Msg("No WhatsApp API configuration, using deep link")
		w.metrics.RecordNotification(kind, ChannelLink, nil)
		return d, nil
	}

	id, err := w.post(ctx, phone, body)
	if err != nil {
		w.logger.Error().Err(err).Str("to", phone).Str("kind", kind).Msg("WhatsApp API request failed, falling back to deep link")
		w.logDelivery(ctx, phone, body, "failed", "", err.Error())
		w.metrics.RecordNotification(kind, ChannelAPI, err)
		return d, err
	}

	d.Channel = ChannelAPI
	d.MessageID = id
	w.logger.Info().Str("to", phone).Str("kind", kind).Str("message_id", id).Msg("WhatsApp message sent")
	w.logDelivery(ctx, phone, body, "delivered", id, "")
	w.metrics.RecordNotification(kind, ChannelAPI, nil)
	return d, nil
}

func (w *WhatsApp) post(ctx context.Context, phone, body string) (string, error) {
	payload := sendPayload{MessagingProduct: "whatsapp", To: phone, Type: "text"}
	payload.Text.Body = body
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/messages", strings.TrimRight(w.cfg.BaseURL, "/"), w.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+w.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode WhatsApp response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || len(result.Messages) == 0 || result.Messages[0].ID == "" {
		msg := "no message id returned"
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("WhatsApp API error (status %d): %s", resp.StatusCode, msg)
	}
	return result.Messages[0].ID, nil
}

// logDelivery is best-effort; the message has already gone out or failed.
func (w *WhatsApp) logDelivery(ctx context.Context, to, body, status, messageID, errMsg string) {
	if w.recorder == nil {
		return
	}
	now := w.now()
	data := map[string]any{
		"type":          "whatsapp_delivery",
		"to":            to,
		"status":        status,
		"messageLength": len([]rune(body)),
		"timestamp":     now.UTC().Format(time.RFC3339),
	}
	if messageID != "" {
		data["messageId"] = messageID
	}
	if errMsg != "" {
		data["errorMessage"] = errMsg
	}
	err := w.recorder.CreateInteraction(ctx, &models.Interaction{
		SessionID:    fmt.Sprintf("whatsapp_%d", now.UnixMilli()),
		Type:         models.InteractionOrderIntent,
		QueryText:    fmt.Sprintf("WhatsApp %s: %s", status, to),
		ResponseData: data,
		Language:     models.LanguageEnglish,
	})
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to log WhatsApp delivery")
	}
}

var nonDigits = regexp.MustCompile(`\D`)

// FormatPhone normalises a phone number to international digits without
// "+", defaulting to the Indian country code 91.
func FormatPhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return digits
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		return "91" + digits[1:]
	case len(digits) == 10:
		return "91" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return digits
	case strings.HasPrefix(digits, "91"):
		return digits
	}
	return "91" + digits
}

// DeepLink opens a WhatsApp chat with body prefilled.
func DeepLink(phone, body string) string {
	return "https://wa.me/" + phone + "?text=" + strings.ReplaceAll(url.QueryEscape(body), "+", "%20")
}
