package bank

import (
	"context"
	"fmt"
)

// demo customers installed on first boot so transfers and balance checks have
// something to work with before any account-creation flow has run
var seedUsers = []struct {
	name    string
	phone   string
	email   string
	account string
	balance int64
}{
	{"Alice Johnson", "5550100001", "alice@example.com", AccountTypeChecking, 250_000},
	{"Bob Smith", "5550100002", "bob@example.com", AccountTypeChecking, 100_000},
}

// SeedDemoData installs the demo users and accounts if the database is empty.
// It is a no-op on an already-populated database
func (s *Store) SeedDemoData(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, seed := range seedUsers {
		user, err := s.CreateUser(ctx, seed.name, seed.phone, seed.email)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", seed.email, err)
		}

		if _, err := s.CreateAccount(ctx, user.ID, seed.account, seed.balance); err != nil {
			return fmt.Errorf("failed to seed account for %s: %w", seed.email, err)
		}
	}

	return nil
}
