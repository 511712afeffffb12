package models

import "time"

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTamil   Language = "ta"
)

// ParseLanguage falls back to def for anything other than "en" or "ta".
func ParseLanguage(s string, def Language) Language {
	switch Language(s) {
	case LanguageEnglish, LanguageTamil:
		return Language(s)
	}
	return def
}

type ResponseType string

const (
	ResponseText     ResponseType = "text"
	ResponseProducts ResponseType = "products"
	ResponseCultural ResponseType = "cultural"
	ResponseOrder    ResponseType = "order"
)

// Turn is one message in a conversation.
type Turn struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id,omitempty"`
	Message        string       `json:"message"`
	IsUser         bool         `json:"is_user"`
	Timestamp      time.Time    `json:"timestamp"`
	Products       []Product    `json:"products,omitempty"`
	Type           ResponseType `json:"type"`
}

type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type InteractionType string

const (
	InteractionVoiceQuery       InteractionType = "voice_query"
	InteractionProductView      InteractionType = "product_view"
	InteractionProductLike      InteractionType = "product_like"
	InteractionOrderIntent      InteractionType = "order_intent"
	InteractionCulturalInterest InteractionType = "cultural_interest"
)

// Interaction is an analytics row. ResponseData is stored as JSON.
type Interaction struct {
	ID              string          `json:"id"`
	SessionID       string          `json:"session_id"`
	Type            InteractionType `json:"interaction_type"`
	QueryText       string          `json:"query_text,omitempty"`
	VoiceTranscript string          `json:"voice_transcript,omitempty"`
	ProductID       string          `json:"product_id,omitempty"`
	ResponseData    map[string]any  `json:"response_data,omitempty"`
	Language        Language        `json:"language"`
	UserAgent       string          `json:"user_agent,omitempty"`
	IPAddress       string          `json:"ip_address,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
