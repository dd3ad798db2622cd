package bank

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account types the ledger accepts
const (
	AccountTypeChecking = "checking"
	AccountTypeSavings  = "savings"
)

// Transaction types recorded in the ledger
const (
	TransactionTypeTransfer = "transfer"
	TransactionTypePayment  = "payment"
	TransactionTypeDeposit  = "deposit"
)

// Audit outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// User represents a registered customer
type User struct {
	ID        uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Name  string `json:"name" gorm:"size:255;not null"`
	Phone string `json:"phone" gorm:"size:32"`
	Email string `json:"email" gorm:"size:255;uniqueIndex;not null"`
}

// Account represents a single ledger account owned by a user
type Account struct {
	ID        uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	UserID uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	Number string    `json:"number" gorm:"size:32;uniqueIndex;not null"`
	Type   string    `json:"type" gorm:"size:32;not null"`

	// Balance is stored in minor units (cents) to avoid float drift
	Balance int64 `json:"balance" gorm:"not null;default:0"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Transaction represents a committed movement of money. Transfers reference two
// accounts; payments and deposits reference one
type Transaction struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	FromAccountID *uuid.UUID `json:"from_account_id,omitempty" gorm:"type:char(36);index"`
	ToAccountID   *uuid.UUID `json:"to_account_id,omitempty" gorm:"type:char(36);index"`

	Type        string `json:"type" gorm:"size:32;not null"`
	Amount      int64  `json:"amount" gorm:"not null"`
	Description string `json:"description" gorm:"size:500"`
}

// AuditLog records each state-changing action with an idempotency key so a
// replayed request can be detected instead of applied twice
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at"`

	IdempotencyKey string `json:"idempotency_key" gorm:"size:255;uniqueIndex;not null"`
	SessionID      string `json:"session_id" gorm:"size:64;index"`
	Action         string `json:"action" gorm:"size:64;not null"`
	Outcome        string `json:"outcome" gorm:"size:32;not null"`
	Detail         string `json:"detail" gorm:"size:500"`
}

// TableName sets the table name for GORM
func (AuditLog) TableName() string {
	return "audit_log"
}

// ValidAccountType reports whether t is an account type the ledger accepts
func ValidAccountType(t string) bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

// NewAccountNumber generates a random 10-digit account number
func NewAccountNumber() string {
	max := big.NewInt(1_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand is documented to never fail on supported platforms
		panic(err)
	}
	return fmt.Sprintf("1%09d", n.Int64())
}
