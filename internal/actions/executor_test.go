package actions

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ethanbaker/bankchat/internal/stores/bank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T) (*Executor, *bank.Store) {
	t.Helper()

	store, err := bank.NewStore(filepath.Join(t.TempDir(), "executor_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewExecutor(store), store
}

// seedUser creates a user with a checking account holding balance cents
func seedUser(t *testing.T, store *bank.Store, name, email string, balance int64) (*bank.User, *bank.Account) {
	t.Helper()
	ctx := context.Background()

	user, err := store.CreateUser(ctx, name, "5550009999", email)
	require.NoError(t, err)

	account, err := store.CreateAccount(ctx, user.ID, bank.AccountTypeChecking, balance)
	require.NoError(t, err)

	return user, account
}

func TestExecuteCreateAccount(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	slots := map[string]string{
		SlotName:        "New Customer",
		SlotPhone:       "5550101111",
		SlotEmail:       "new@example.com",
		SlotAccountType: bank.AccountTypeSavings,
	}

	receipt, err := executor.Execute(ctx, "create_account", slots, "", "sess-ca", 3)
	require.NoError(t, err)
	assert.Equal(t, "create_account", receipt.Action)
	assert.Len(t, receipt.Reference, 10)

	// Ledger has the user and account
	user, err := store.GetUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	accounts, err := store.AccountsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, bank.AccountTypeSavings, accounts[0].Type)

	// Audit trail recorded the action
	entries, err := store.AuditBySessionID(ctx, "sess-ca")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, bank.OutcomeCompleted, entries[0].Outcome)
}

func TestExecuteCreateAccountExistingEmail(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	user, _ := seedUser(t, store, "Repeat Customer", "repeat@example.com", 0)

	slots := map[string]string{
		SlotName:        "Repeat Customer",
		SlotPhone:       "5550102222",
		SlotEmail:       "repeat@example.com",
		SlotAccountType: bank.AccountTypeSavings,
	}

	_, err := executor.Execute(ctx, "create_account", slots, "", "sess-ca2", 3)
	require.NoError(t, err)

	// Second account attached to the same user, not a duplicate user
	accounts, err := store.AccountsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestExecuteCreateAccountMissingSlots(t *testing.T) {
	executor, _ := newTestExecutor(t)

	_, err := executor.Execute(context.Background(), "create_account", map[string]string{
		SlotName: "Only Name",
	}, "", "sess-missing", 1)
	assert.ErrorIs(t, err, ErrMissingSlot)
}

func TestExecuteTransfer(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	payer, payerAccount := seedUser(t, store, "Payer", "payer@example.com", 100_000)
	_, _ = seedUser(t, store, "Payee Person", "payee@example.com", 0)

	slots := map[string]string{
		SlotRecipient:   "Payee Person",
		SlotAmountCents: "25000",
	}

	receipt, err := executor.Execute(ctx, "transfer", slots, payer.ID.String(), "sess-tr", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(25_000), receipt.AmountCents)
	assert.Equal(t, int64(75_000), receipt.BalanceCents)
	assert.Contains(t, receipt.Summary, "$250.00")

	after, err := store.GetAccount(ctx, payerAccount.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(75_000), after.Balance)
}

func TestExecuteTransferValidation(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	payer, _ := seedUser(t, store, "Limit Payer", "limits@example.com", 100_000_000)
	_, _ = seedUser(t, store, "Limit Payee", "limitpayee@example.com", 0)

	tests := []struct {
		name     string
		amount   string
		expected error
	}{
		{"above maximum", strconv.Itoa(MaxAmountCents + 1), ErrAmountTooLarge},
		{"zero", "0", ErrAmountTooSmall},
		{"negative", "-100", ErrAmountTooSmall},
		{"unparseable", "lots", ErrMissingSlot},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := map[string]string{
				SlotRecipient:   "Limit Payee",
				SlotAmountCents: tt.amount,
			}
			_, err := executor.Execute(ctx, "transfer", slots, payer.ID.String(), "sess-val", 10+i)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestExecuteTransferUnknownRecipient(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	payer, account := seedUser(t, store, "Lonely Payer", "lonely@example.com", 10_000)

	slots := map[string]string{
		SlotRecipient:   "Nobody Known",
		SlotAmountCents: "1000",
	}

	_, err := executor.Execute(ctx, "transfer", slots, payer.ID.String(), "sess-ghost", 2)
	assert.ErrorIs(t, err, bank.ErrNotFound)

	// No partial mutation
	after, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), after.Balance)
}

func TestExecutePayBill(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	user, account := seedUser(t, store, "Bill User", "billuser@example.com", 20_000)

	slots := map[string]string{
		SlotBiller:      "electric",
		SlotAmountCents: "7500",
	}

	receipt, err := executor.Execute(ctx, "pay_bill", slots, user.ID.String(), "sess-bill", 5)
	require.NoError(t, err)
	assert.Contains(t, receipt.Summary, "electric")
	assert.Equal(t, int64(12_500), receipt.BalanceCents)

	after, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12_500), after.Balance)
}

func TestExecuteReplayedKey(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	user, account := seedUser(t, store, "Replay User", "replay@example.com", 50_000)
	_, _ = seedUser(t, store, "Replay Payee", "replaypayee@example.com", 0)

	slots := map[string]string{
		SlotRecipient:   "Replay Payee",
		SlotAmountCents: "10000",
	}

	_, err := executor.Execute(ctx, "transfer", slots, user.ID.String(), "sess-replay", 7)
	require.NoError(t, err)

	// Same session and turn must not double-apply
	receipt, err := executor.Execute(ctx, "transfer", slots, user.ID.String(), "sess-replay", 7)
	assert.ErrorIs(t, err, ErrReplayed)
	require.NotNil(t, receipt)

	after, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40_000), after.Balance)
}

func TestBalanceAndHistory(t *testing.T) {
	executor, store := newTestExecutor(t)
	ctx := context.Background()

	user, _ := seedUser(t, store, "Balance User", "baluser@example.com", 30_000)
	savings, err := store.CreateAccount(ctx, user.ID, bank.AccountTypeSavings, 5_000)
	require.NoError(t, err)

	t.Run("all accounts", func(t *testing.T) {
		accounts, err := executor.Balance(ctx, user.ID.String(), "")
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})

	t.Run("by type", func(t *testing.T) {
		accounts, err := executor.Balance(ctx, user.ID.String(), bank.AccountTypeSavings)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, savings.ID, accounts[0].ID)
	})

	t.Run("history", func(t *testing.T) {
		_, err := store.Deposit(ctx, savings.ID, 1_000, "interest")
		require.NoError(t, err)

		history, err := executor.History(ctx, user.ID.String(), bank.AccountTypeSavings, 10)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("invalid user id", func(t *testing.T) {
		_, err := executor.Balance(ctx, "not-a-uuid", "")
		assert.Error(t, err)
	})
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		cents    int64
		expected string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{5000, "$50.00"},
		{123456, "$1234.56"},
		{-250, "-$2.50"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCents(tt.cents))
		})
	}
}

func TestExecuteUnknownAction(t *testing.T) {
	executor, _ := newTestExecutor(t)

	_, err := executor.Execute(context.Background(), "check_balance", nil, "", "sess-x", 1)
	assert.ErrorIs(t, err, ErrUnknownAction)
}
