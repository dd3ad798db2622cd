package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	// ErrSessionNotFound means no session exists for the given ID
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired means the session exists but is past its expiry
	ErrSessionExpired = errors.New("session expired")
)

// Store interface defines methods for session storage
type Store interface {
	Create(ctx context.Context, userID string) (*Session, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SqliteStore handles session persistence using GORM over SQLite
type SqliteStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSqliteStore creates a new session store backed by the SQLite file at path.
// Sessions expire ttl after their last activity
func NewSqliteStore(path string, ttl time.Duration) (*SqliteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SqliteStore{db: db, ttl: ttl}

	// Auto-migrate tables
	if err := db.AutoMigrate(&Session{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// Create creates a new session in the database
func (s *SqliteStore) Create(ctx context.Context, userID string) (*Session, error) {
	session := NewSession(userID, s.ttl)

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Get retrieves a session by ID. Expired sessions are deleted and reported
// as ErrSessionExpired so callers can start fresh
func (s *SqliteStore) Get(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	var session Session
	err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Expired() {
		_ = s.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	return &session, nil
}

// Save persists the session state, bumps the turn count, and extends expiry
func (s *SqliteStore) Save(ctx context.Context, session *Session) error {
	session.TurnCount++
	session.ExpiresAt = time.Now().Add(s.ttl)

	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Delete removes a session by ID
func (s *SqliteStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&Session{}, "id = ?", sessionID).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteExpired removes all sessions past their expiry and returns how many
// were removed. The cron sweeper calls this periodically
func (s *SqliteStore) DeleteExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// Close closes the database connection
func (s *SqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}
