package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/askmatsya/bolt/internal/models"
	"github.com/google/uuid"
)

func (s *Store) CreateInteraction(ctx context.Context, in *models.Interaction) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.Language == "" {
		in.Language = models.LanguageEnglish
	}
	in.CreatedAt = s.now()

	var data sql.NullString
	if in.ResponseData != nil {
		b, err := json.Marshal(in.ResponseData)
		if err != nil {
			return fmt.Errorf("encode response data: %w", err)
		}
		data = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO user_interactions (id, session_id, interaction_type, query_text, voice_transcript, product_id,
			response_data, language, user_agent, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.SessionID, in.Type, nullString(in.QueryText), nullString(in.VoiceTranscript), nullString(in.ProductID),
		data, in.Language, nullString(in.UserAgent), nullString(in.IPAddress), in.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// ListInteractions returns a session's interactions, oldest first.
func (s *Store) ListInteractions(ctx context.Context, sessionID string) ([]models.Interaction, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, session_id, interaction_type, COALESCE(query_text, ''), COALESCE(voice_transcript, ''),
			COALESCE(product_id, ''), response_data, language, COALESCE(user_agent, ''), COALESCE(ip_address, ''), created_at
		FROM user_interactions WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		var (
			in   models.Interaction
			data sql.NullString
		)
		if err := rows.Scan(&in.ID, &in.SessionID, &in.Type, &in.QueryText, &in.VoiceTranscript,
			&in.ProductID, &data, &in.Language, &in.UserAgent, &in.IPAddress, &in.CreatedAt); err != nil {
			return nil, err
		}
		if data.Valid {
			_ = json.Unmarshal([]byte(data.String), &in.ResponseData)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
