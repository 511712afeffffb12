package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	rows []models.Interaction
}

func (r *recorder) CreateInteraction(_ context.Context, in *models.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *in)
	return nil
}

func TestFormatPhone(t *testing.T) {
	cases := map[string]string{
		"+91 98765 43210": "919876543210",
		"09876543210":     "919876543210",
		"98765-43210":     "919876543210",
		"1 415 555 0100":  "14155550100",
		"91123":           "91123",
		"44 20 7946 0958": "91442079460958",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPhone(in), in)
	}
}

func TestDeepLink(t *testing.T) {
	link := DeepLink("919876543210", "Order #AM1 & more")
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/919876543210", u.Path)
	assert.Equal(t, "Order #AM1 & more", u.Query().Get("text"))
	assert.NotContains(t, link, "+")
}

func TestSend_Unconfigured(t *testing.T) {
	rec := &recorder{}
	w := NewWhatsApp(WhatsAppConfig{}, rec, nil)

	d, err := w.Send(context.Background(), "98765 43210", "hello", KindConfirmation)
	require.NoError(t, err)
	assert.False(t, d.Sent())
	assert.Equal(t, ChannelLink, d.Channel)
	assert.Equal(t, "https://wa.me/919876543210?text=hello", d.Link)
	assert.Empty(t, rec.rows)
}

func TestSend_API(t *testing.T) {
	var got sendPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/PNID/messages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"messages":[{"id":"wamid.123"}]}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	w := NewWhatsApp(WhatsAppConfig{APIKey: "token", PhoneNumberID: "PNID", BaseURL: srv.URL}, rec, nil)

	d, err := w.Send(context.Background(), "+91 98765 43210", "Namaste", KindConfirmation)
	require.NoError(t, err)
	assert.True(t, d.Sent())
	assert.Equal(t, "wamid.123", d.MessageID)

	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "919876543210", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "Namaste", got.Text.Body)

	require.Len(t, rec.rows, 1)
	assert.Equal(t, models.InteractionOrderIntent, rec.rows[0].Type)
	assert.Equal(t, "WhatsApp delivered: 919876543210", rec.rows[0].QueryText)
	assert.Equal(t, "delivered", rec.rows[0].ResponseData["status"])
}

func TestSend_APIFailureFallsBackToLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	rec := &recorder{}
	w := NewWhatsApp(WhatsAppConfig{APIKey: "bad", PhoneNumberID: "PNID", BaseURL: srv.URL}, rec, nil)

	d, err := w.Send(context.Background(), "9876543210", "hi", KindAdmin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
	assert.Equal(t, ChannelLink, d.Channel)
	assert.NotEmpty(t, d.Link)

	require.Len(t, rec.rows, 1)
	assert.Equal(t, "failed", rec.rows[0].ResponseData["status"])
}

func details() OrderDetails {
	return OrderDetails{
		Ref:               "AMC3D4E5F6",
		CustomerName:      "Meera",
		CustomerPhone:     "+91 76543 21098",
		ProductName:       "Banarasi Silk Saree",
		Price:             "₹15,000",
		Artisan:           "Master Weaver Raghunath Das",
		EstimatedDelivery: "25 March 2025",
		OrderedAt:         time.Date(2025, 1, 10, 6, 30, 0, 0, time.UTC),
	}
}

func TestConfirmationMessage(t *testing.T) {
	en := ConfirmationMessage(details(), models.LanguageEnglish)
	assert.Contains(t, en, "Namaste Meera!")
	assert.Contains(t, en, "🆔 Order ID: #AMC3D4E5F6")
	assert.Contains(t, en, "👨‍🎨 Artisan: Master Weaver Raghunath Das")
	assert.Contains(t, en, "📅 Expected Delivery: 25 March 2025")

	d := details()
	d.Artisan = ""
	ta := ConfirmationMessage(d, models.LanguageTamil)
	assert.Contains(t, ta, "வணக்கம் Meera!")
	assert.Contains(t, ta, "#AMC3D4E5F6")
	assert.NotContains(t, ta, "கைவினைஞர்:")
}

func TestAdminAlert(t *testing.T) {
	msg := AdminAlert(details(), "https://askmatsya.example/")
	assert.Contains(t, msg, "📦 Order #AMC3D4E5F6")
	assert.Contains(t, msg, "📱 Phone: +91 76543 21098")
	assert.Contains(t, msg, "⏰ Ordered: 10/1/2025, 12:00:00 pm")
	assert.Contains(t, msg, "🔗 Admin Panel: https://askmatsya.example/admin")
}

func TestStatusUpdate(t *testing.T) {
	assert.Contains(t, StatusUpdate("AM1", models.OrderStatusShipped, models.LanguageEnglish), "#AM1 has been shipped")
	assert.Contains(t, StatusUpdate("AM1", models.OrderStatusDelivered, models.LanguageTamil), "டெலிவர்")
	assert.Equal(t, "📦 Your order #AM1 status has been updated to: cancelled",
		StatusUpdate("AM1", models.OrderStatusCancelled, models.LanguageEnglish))
}
