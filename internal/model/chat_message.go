package model

import (
	"encoding/json"
	"time"
)

// ChatMessage is one turn of a support conversation. ReferencedParts keeps
// the part numbers the retrieval step surfaced for this turn, stored as a
// JSON array in a text column.
type ChatMessage struct {
	ID              uint   `gorm:"primaryKey"`
	SessionID       string `gorm:"size:64;not null;index"`
	Role            string `gorm:"size:16;not null"`
	Content         string `gorm:"type:text;not null"`
	ReferencedParts string `gorm:"type:text"`
	CreatedAt       time.Time
}

// ReferencedPartNumbers returns the parsed part-number list; nil on parse error.
func (m *ChatMessage) ReferencedPartNumbers() []string {
	if m.ReferencedParts == "" {
		return nil
	}
	var parts []string
	_ = json.Unmarshal([]byte(m.ReferencedParts), &parts)
	return parts
}

// SetReferencedParts stores the part-number list as JSON.
func (m *ChatMessage) SetReferencedParts(parts []string) {
	if len(parts) == 0 {
		m.ReferencedParts = "[]"
		return
	}
	b, _ := json.Marshal(parts)
	m.ReferencedParts = string(b)
}

// chatMessageJSON is the wire shape for both the transcript queue and API
// responses: the part numbers travel as a list, not as an embedded JSON
// string.
type chatMessageJSON struct {
	ID              uint      `json:"id"`
	SessionID       string    `json:"session_id"`
	Role            string    `json:"role"`
	Content         string    `json:"content"`
	ReferencedParts []string  `json:"referenced_parts"`
	CreatedAt       time.Time `json:"created_at"`
}

func (m ChatMessage) MarshalJSON() ([]byte, error) {
	parts := m.ReferencedPartNumbers()
	if parts == nil {
		parts = []string{}
	}
	return json.Marshal(chatMessageJSON{
		ID:              m.ID,
		SessionID:       m.SessionID,
		Role:            m.Role,
		Content:         m.Content,
		ReferencedParts: parts,
		CreatedAt:       m.CreatedAt,
	})
}

func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var wire chatMessageJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.ID = wire.ID
	m.SessionID = wire.SessionID
	m.Role = wire.Role
	m.Content = wire.Content
	m.CreatedAt = wire.CreatedAt
	m.SetReferencedParts(wire.ReferencedParts)
	return nil
}
