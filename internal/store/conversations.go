package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/google/uuid"
)

const (
	authorUser      = "user"
	authorAssistant = "assistant"
)

// EnsureConversation creates the conversation row if it does not exist yet.
// An existing row only has its language and updated_at refreshed.
func (s *Store) EnsureConversation(ctx context.Context, c *models.Conversation) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO conversations (id, title, language, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET language = excluded.language, updated_at = excluded.updated_at`,
		c.ID, c.Title, c.Language, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.DB.QueryRowContext(ctx, `SELECT id, title, language, created_at, updated_at FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.Title, &c.Language, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AppendTurn stores one message. Attached products are kept as a JSON snapshot.
func (s *Store) AppendTurn(ctx context.Context, t *models.Turn) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = s.now()
	}
	if t.Type == "" {
		t.Type = models.ResponseText
	}
	products := t.Products
	if products == nil {
		products = []models.Product{}
	}
	b, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode turn products: %w", err)
	}
	author := authorAssistant
	if t.IsUser {
		author = authorUser
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, type, content, response_type, products, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ConversationID, author, t.Message, t.Type, string(b), t.Timestamp)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListTurns returns the conversation's turns in insertion order.
func (s *Store) ListTurns(ctx context.Context, conversationID string) ([]models.Turn, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, conversation_id, type, content, response_type, products, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at, rowid`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var (
			t             models.Turn
			author, prods string
		)
		if err := rows.Scan(&t.ID, &t.ConversationID, &author, &t.Message, &t.Type, &prods, &t.Timestamp); err != nil {
			return nil, err
		}
		t.IsUser = author == authorUser
		if err := json.Unmarshal([]byte(prods), &t.Products); err != nil {
			return nil, fmt.Errorf("decode products of message %s: %w", t.ID, err)
		}
		if len(t.Products) == 0 {
			t.Products = nil
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
