package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session holds the per-conversation dialogue state: the pending intent, the
// slots collected so far, and which slot the bot is waiting on
type Session struct {
	ID        uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	UserID        string    `json:"user_id" gorm:"size:64;index"`
	PendingIntent string    `json:"pending_intent" gorm:"size:64"`
	AwaitingSlot  string    `json:"awaiting_slot" gorm:"size:64"`
	TurnCount     int       `json:"turn_count" gorm:"not null;default:0"`
	ExpiresAt     time.Time `json:"expires_at" gorm:"index"`

	// Slots is the collected slot map; persisted as JSON in SlotsJSON
	Slots     map[string]string `json:"slots" gorm:"-"`
	SlotsJSON string            `json:"-" gorm:"column:slots;type:text"`
}

// NewSession creates a session for a user with a generated UUID
func NewSession(userID string, ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Slots:     make(map[string]string),
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Expired reports whether the session is past its expiry time
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// HasPendingIntent reports whether a previous turn left an intent waiting for
// slots or confirmation
func (s *Session) HasPendingIntent() bool {
	return s.PendingIntent != ""
}

// ClearPending resets the pending intent and collected slots
func (s *Session) ClearPending() {
	s.PendingIntent = ""
	s.AwaitingSlot = ""
	s.Slots = make(map[string]string)
}

// BeforeSave serializes the slot map into the JSON column
func (s *Session) BeforeSave(tx *gorm.DB) error {
	if s.Slots == nil {
		s.Slots = make(map[string]string)
	}

	data, err := json.Marshal(s.Slots)
	if err != nil {
		return err
	}
	s.SlotsJSON = string(data)

	return nil
}

// AfterFind deserializes the JSON column into the slot map. Malformed state
// degrades to an empty slot map rather than failing the load
func (s *Session) AfterFind(tx *gorm.DB) error {
	s.Slots = make(map[string]string)
	if s.SlotsJSON == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(s.SlotsJSON), &s.Slots); err != nil {
		s.Slots = make(map[string]string)
		s.PendingIntent = ""
		s.AwaitingSlot = ""
	}

	return nil
}
