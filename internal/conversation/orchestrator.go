// Package conversation runs a shopper's chat: it records turns, asks the
// matcher for a reply and prepares the reply for speech.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/askmatsya/bolt/internal/logger"
	"github.com/askmatsya/bolt/internal/matcher"
	"github.com/askmatsya/bolt/internal/metrics"
	"github.com/askmatsya/bolt/internal/models"
	"github.com/askmatsya/bolt/internal/speech"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyInput     = errors.New("conversation: message is required")
	ErrUnknownSession = errors.New("conversation: unknown conversation")
)

const (
	titleMaxRunes  = 60
	persistTimeout = 5 * time.Second
)

// CatalogLoader supplies the current catalog snapshot.
type CatalogLoader interface {
	Load(ctx context.Context) []models.Product
}

// TurnStore persists turns beyond the life of the process.
type TurnStore interface {
	EnsureConversation(ctx context.Context, c *models.Conversation) error
	AppendTurn(ctx context.Context, t *models.Turn) error
	ListTurns(ctx context.Context, conversationID string) ([]models.Turn, error)
}

// InteractionRecorder stores analytics rows.
type InteractionRecorder interface {
	CreateInteraction(ctx context.Context, in *models.Interaction) error
}

// Speaker turns reply text into client speech settings.
type Speaker interface {
	Plan(text string, lang models.Language, voices []speech.Voice) speech.Utterance
}

// Config wires the orchestrator. Only Catalog and Matcher are required.
type Config struct {
	Catalog         CatalogLoader
	Matcher         *matcher.Matcher
	Registry        *Registry
	Turns           TurnStore
	Interactions    InteractionRecorder
	Speaker         Speaker
	Metrics         *metrics.Metrics
	DefaultLanguage models.Language
}

type Orchestrator struct {
	catalog      CatalogLoader
	matcher      *matcher.Matcher
	registry     *Registry
	turns        TurnStore
	interactions InteractionRecorder
	speaker      Speaker
	metrics      *metrics.Metrics
	defaultLang  models.Language
	logger       zerolog.Logger
	now          func() time.Time
}

func New(cfg Config) *Orchestrator {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Matcher == nil {
		cfg.Matcher = matcher.New(nil)
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = models.LanguageEnglish
	}
	return &Orchestrator{
		catalog:      cfg.Catalog,
		matcher:      cfg.Matcher,
		registry:     cfg.Registry,
		turns:        cfg.Turns,
		interactions: cfg.Interactions,
		speaker:      cfg.Speaker,
		metrics:      cfg.Metrics,
		defaultLang:  cfg.DefaultLanguage,
		logger:       logger.Component("conversation"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source for new turns.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// AskOptions carries per-request context.
type AskOptions struct {
	Language   models.Language // explicit choice; empty keeps the session's language
	Voices     []speech.Voice
	Transcript string // set when the input came from speech
	UserAgent  string
	IPAddress  string
}

// Reply is the outcome of one Ask.
type Reply struct {
	ConversationID string            `json:"conversation_id"`
	UserTurn       models.Turn       `json:"user_turn"`
	Turn           models.Turn       `json:"turn"`
	Result         matcher.Result    `json:"result"`
	Speech         *speech.Utterance `json:"speech,omitempty"`
}

// Ask records the user's input, answers it against the catalog and records
// the answer. Storage and analytics failures are logged, never returned.
func (o *Orchestrator) Ask(ctx context.Context, sessionID, input string, opts AskOptions) (*Reply, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyInput
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lang := opts.Language
	if lang == "" {
		lang = o.registry.Language(sessionID, o.defaultLang)
	}

	userTurn := models.Turn{
		ID:             uuid.NewString(),
		ConversationID: sessionID,
		Message:        input,
		IsUser:         true,
		Timestamp:      o.now(),
		Type:           models.ResponseText,
	}
	o.registry.Append(sessionID, lang, userTurn.Timestamp, userTurn)

	res := o.matcher.Match(input, o.catalog.Load(ctx), lang)
	o.metrics.RecordIntent(string(res.Intent), string(res.Language))

	turn := models.Turn{
		ID:             uuid.NewString(),
		ConversationID: sessionID,
		Message:        res.Response,
		Timestamp:      o.now(),
		Products:       res.Products,
		Type:           res.Type,
	}
	o.registry.Append(sessionID, res.Language, turn.Timestamp, turn)

	reply := &Reply{ConversationID: sessionID, UserTurn: userTurn, Turn: turn, Result: res}
	if o.speaker != nil {
		u := o.speaker.Plan(res.Response, res.Language, opts.Voices)
		reply.Speech = &u
	}

	o.persist(ctx, res.Language, userTurn, turn)
	o.track(ctx, sessionID, input, opts, res)

	o.logger.Info().
		Str("conversation_id", sessionID).
		Str("intent", string(res.Intent)).
		Str("language", string(res.Language)).
		Int("products", len(res.Products)).
		Msg("Answered query")
	return reply, nil
}

// History returns a conversation's turns, preferring the durable copy.
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	if o.turns != nil {
		turns, err := o.turns.ListTurns(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if len(turns) > 0 {
			return turns, nil
		}
	}
	s, ok := o.registry.Get(sessionID)
	if !ok {
		return nil, ErrUnknownSession
	}
	return s.Turns, nil
}

// Language reports the language the next reply in sessionID will use.
func (o *Orchestrator) Language(sessionID string) models.Language {
	return o.registry.Language(sessionID, o.defaultLang)
}

func (o *Orchestrator) persist(ctx context.Context, lang models.Language, turns ...models.Turn) {
	if o.turns == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	conv := &models.Conversation{
		ID:       turns[0].ConversationID,
		Title:    title(turns[0].Message),
		Language: lang,
	}
	if err := o.turns.EnsureConversation(ctx, conv); err != nil {
		o.logger.Error().Err(err).Str("conversation_id", conv.ID).Msg("Failed to save conversation")
		return
	}
	for i := range turns {
		if err := o.turns.AppendTurn(ctx, &turns[i]); err != nil {
			o.logger.Error().Err(err).Str("conversation_id", conv.ID).Msg("Failed to save turn")
			return
		}
	}
}

func (o *Orchestrator) track(ctx context.Context, sessionID, input string, opts AskOptions, res matcher.Result) {
	if o.interactions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	productIDs := make([]string, 0, len(res.Products))
	for _, p := range res.Products {
		productIDs = append(productIDs, p.ID)
	}
	rows := []models.Interaction{{
		SessionID:       sessionID,
		Type:            models.InteractionVoiceQuery,
		QueryText:       input,
		VoiceTranscript: opts.Transcript,
		Language:        res.Language,
		UserAgent:       opts.UserAgent,
		IPAddress:       opts.IPAddress,
		ResponseData: map[string]any{
			"intent":      res.Intent,
			"type":        res.Type,
			"product_ids": productIDs,
		},
	}}
	if res.Type == models.ResponseCultural && len(res.Products) == 1 {
		rows = append(rows, models.Interaction{
			SessionID: sessionID,
			Type:      models.InteractionCulturalInterest,
			ProductID: res.Products[0].ID,
			Language:  res.Language,
			UserAgent: opts.UserAgent,
			IPAddress: opts.IPAddress,
		})
	}
	for i := range rows {
		if err := o.interactions.CreateInteraction(ctx, &rows[i]); err != nil {
			o.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to track interaction")
		}
	}
}

func title(message string) string {
	if utf8.RuneCountInString(message) <= titleMaxRunes {
		return message
	}
	return string([]rune(message)[:titleMaxRunes]) + "…"
}
