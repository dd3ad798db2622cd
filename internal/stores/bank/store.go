package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store handles ledger persistence using GORM over SQLite
type Store struct {
	db *gorm.DB
}

// NewStore creates a new bank store backed by the SQLite file at path
func NewStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}

	// Auto-migrate tables
	if err := db.AutoMigrate(&User{}, &Account{}, &Transaction{}, &AuditLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// DB exposes the underlying GORM handle so sibling stores can share the
// same SQLite file
func (s *Store) DB() *gorm.DB {
	return s.db
}

// CreateUser creates a new user row
func (s *Store) CreateUser(ctx context.Context, name, phone, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var existing User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &User{
		ID:    uuid.New(),
		Name:  strings.TrimSpace(name),
		Phone: phone,
		Email: email,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email address
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// CreateAccount creates a new account of the given type for a user
func (s *Store) CreateAccount(ctx context.Context, userID uuid.UUID, accountType string, initialBalance int64) (*Account, error) {
	if !ValidAccountType(accountType) {
		return nil, ErrUnknownAccountType
	}
	if initialBalance < 0 {
		return nil, ErrBadAmount
	}

	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	account := &Account{
		ID:      uuid.New(),
		UserID:  userID,
		Number:  NewAccountNumber(),
		Type:    accountType,
		Balance: initialBalance,
	}

	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// GetAccount retrieves an account by ID
func (s *Store) GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	var account Account
	err := s.db.WithContext(ctx).First(&account, "id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// GetAccountByNumber retrieves an account by its account number
func (s *Store) GetAccountByNumber(ctx context.Context, number string) (*Account, error) {
	var account Account
	err := s.db.WithContext(ctx).Where("number = ?", number).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}

	return &account, nil
}

// AccountsForUser retrieves all accounts owned by a user, oldest first
func (s *Store) AccountsForUser(ctx context.Context, userID uuid.UUID) ([]*Account, error) {
	var accounts []*Account
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	return accounts, nil
}

// AccountForUserByType retrieves the user's account of the given type
func (s *Store) AccountForUserByType(ctx context.Context, userID uuid.UUID, accountType string) (*Account, error) {
	var account Account
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, accountType).
		Order("created_at").
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by type: %w", err)
	}

	return &account, nil
}

// FindAccountByRecipient resolves a free-text recipient name to that user's
// oldest account. Matching is case-insensitive on the user name
func (s *Store) FindAccountByRecipient(ctx context.Context, name string) (*Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}

	var user User
	err := s.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(name)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find recipient: %w", err)
	}

	var account Account
	err = s.db.WithContext(ctx).Where("user_id = ?", user.ID).Order("created_at").First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find recipient account: %w", err)
	}

	return &account, nil
}

// Deposit credits an account and records a deposit transaction atomically
func (s *Store) Deposit(ctx context.Context, accountID uuid.UUID, amount int64, description string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}

	var txn *Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account Account
		if err := tx.First(&account, "id = ?", accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(&account).Update("balance", account.Balance+amount).Error; err != nil {
			return err
		}

		txn = &Transaction{
			ID:          uuid.New(),
			ToAccountID: &account.ID,
			Type:        TransactionTypeDeposit,
			Amount:      amount,
			Description: description,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// Transfer moves amount between two accounts inside a single database
// transaction. Balance checks and both balance updates happen atomically;
// any failure rolls back with no partial application
func (s *Store) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount int64, description string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}
	if fromID == toID {
		return nil, ErrSameAccount
	}

	var txn *Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var from, to Account
		if err := tx.First(&from, "id = ?", fromID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.First(&to, "id = ?", toID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if from.Balance < amount {
			return ErrInsufficientFunds
		}

		if err := tx.Model(&from).Update("balance", from.Balance-amount).Error; err != nil {
			return err
		}
		if err := tx.Model(&to).Update("balance", to.Balance+amount).Error; err != nil {
			return err
		}

		txn = &Transaction{
			ID:            uuid.New(),
			FromAccountID: &from.ID,
			ToAccountID:   &to.ID,
			Type:          TransactionTypeTransfer,
			Amount:        amount,
			Description:   description,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// PayBill debits an account for a bill payment and records the transaction
// atomically. The transaction has no destination account
func (s *Store) PayBill(ctx context.Context, fromID uuid.UUID, amount int64, description string) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}

	var txn *Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account Account
		if err := tx.First(&account, "id = ?", fromID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if account.Balance < amount {
			return ErrInsufficientFunds
		}

		if err := tx.Model(&account).Update("balance", account.Balance-amount).Error; err != nil {
			return err
		}

		txn = &Transaction{
			ID:            uuid.New(),
			FromAccountID: &account.ID,
			Type:          TransactionTypePayment,
			Amount:        amount,
			Description:   description,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// TransactionsForAccount retrieves the transactions touching an account,
// newest first
func (s *Store) TransactionsForAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var transactions []*Transaction
	err := s.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}

	return transactions, nil
}

// AppendAudit records a state-changing action. If the idempotency key has
// already been recorded the stored entry is returned with ErrDuplicateAudit
// so callers can short-circuit replays instead of applying them twice
func (s *Store) AppendAudit(ctx context.Context, entry *AuditLog) (*AuditLog, error) {
	if entry.IdempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key cannot be empty")
	}

	var existing AuditLog
	err := s.db.WithContext(ctx).Where("idempotency_key = ?", entry.IdempotencyKey).First(&existing).Error
	if err == nil {
		return &existing, ErrDuplicateAudit
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check audit log: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}

	return entry, nil
}

// AuditByKey retrieves the audit entry recorded under an idempotency key
func (s *Store) AuditByKey(ctx context.Context, key string) (*AuditLog, error) {
	var entry AuditLog
	err := s.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up audit entry: %w", err)
	}

	return &entry, nil
}

// AuditBySessionID retrieves the audit trail for a session, oldest first
func (s *Store) AuditBySessionID(ctx context.Context, sessionID string) ([]*AuditLog, error) {
	var entries []*AuditLog
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	return entries, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}
