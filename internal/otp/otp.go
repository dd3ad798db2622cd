package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"
)

const maxAttempts = 5

var (
	// ErrCodeNotFound means no active code exists for the email
	ErrCodeNotFound = errors.New("no verification code on file")

	// ErrCodeExpired means the code exists but is past its expiry
	ErrCodeExpired = errors.New("verification code expired")

	// ErrCodeMismatch means the submitted code does not match
	ErrCodeMismatch = errors.New("verification code does not match")

	// ErrTooManyAttempts means the code was guessed wrong too many times
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

// Code is a single one-time verification code issued to an email address
type Code struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`

	Email     string    `json:"email" gorm:"size:255;not null;index"`
	Code      string    `json:"-" gorm:"size:8;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Attempts  int       `json:"attempts" gorm:"not null;default:0"`
	Verified  bool      `json:"verified" gorm:"not null;default:false"`
}

// TableName sets the table name for GORM
func (Code) TableName() string {
	return "otp_codes"
}

// Manager issues and validates one-time codes for email verification
type Manager struct {
	db     *gorm.DB
	mailer Mailer
	ttl    time.Duration
}

// NewManager creates an OTP manager on the given database handle, delivering
// codes through the given mailer. Codes expire after ttl. The caller owns the
// database connection
func NewManager(db *gorm.DB, mailer Mailer, ttl time.Duration) (*Manager, error) {
	// Auto-migrate tables
	if err := db.AutoMigrate(&Code{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &Manager{db: db, mailer: mailer, ttl: ttl}, nil
}

// Issue generates a fresh 6-digit code for the email, invalidates any earlier
// codes, and emails it to the user
func (m *Manager) Issue(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	code := newCode()

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Earlier unverified codes for this address become unusable
		if err := tx.Where("email = ? AND verified = ?", email, false).Delete(&Code{}).Error; err != nil {
			return err
		}

		return tx.Create(&Code{
			Email:     email,
			Code:      code,
			ExpiresAt: time.Now().Add(m.ttl),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(m.ttl.Minutes()))
	if err := m.mailer.Send(email, "Your verification code", body); err != nil {
		return fmt.Errorf("failed to deliver verification code: %w", err)
	}

	return nil
}

// Verify checks a submitted code for the email. A code verifies at most once;
// after maxAttempts wrong guesses it stops accepting the right answer too
func (m *Manager) Verify(ctx context.Context, email, submitted string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	submitted = strings.TrimSpace(submitted)

	var code Code
	err := m.db.WithContext(ctx).
		Where("email = ? AND verified = ?", email, false).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeNotFound
		}
		return fmt.Errorf("failed to look up verification code: %w", err)
	}

	if time.Now().After(code.ExpiresAt) {
		return ErrCodeExpired
	}
	if code.Attempts >= maxAttempts {
		return ErrTooManyAttempts
	}

	if code.Code != submitted {
		if err := m.db.WithContext(ctx).Model(&code).Update("attempts", code.Attempts+1).Error; err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		if code.Attempts+1 >= maxAttempts {
			return ErrTooManyAttempts
		}
		return ErrCodeMismatch
	}

	if err := m.db.WithContext(ctx).Model(&code).Update("verified", true).Error; err != nil {
		return fmt.Errorf("failed to mark code verified: %w", err)
	}

	return nil
}

// newCode returns a random 6-digit numeric code
func newCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}
