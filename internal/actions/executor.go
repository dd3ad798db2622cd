package actions

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethanbaker/bankchat/internal/stores/bank"
	"github.com/google/uuid"
)

// Per-transaction amount limits in cents
const (
	MinAmountCents = 1
	MaxAmountCents = 1_000_000 // $10,000.00
)

var (
	// ErrAmountTooSmall means the amount is below the per-transaction minimum
	ErrAmountTooSmall = errors.New("amount below minimum")

	// ErrAmountTooLarge means the amount is above the per-transaction maximum
	ErrAmountTooLarge = errors.New("amount above maximum")

	// ErrMissingSlot means a required slot was not collected before execution
	ErrMissingSlot = errors.New("missing required slot")

	// ErrUnknownAction means the intent has no executable action
	ErrUnknownAction = errors.New("unknown action")

	// ErrReplayed means this idempotency key was already executed; the
	// original outcome is in the returned receipt
	ErrReplayed = errors.New("action already executed")
)

// Slot names the dialogue manager collects and the executor reads
const (
	SlotName            = "name"
	SlotPhone           = "phone"
	SlotEmail           = "email"
	SlotOTP             = "otp"
	SlotAccountType     = "account_type"
	SlotRecipient       = "recipient"
	SlotAmountCents     = "amount_cents"
	SlotBiller          = "biller"
	SlotFromAccountType = "from_account_type"
)

// Receipt describes a completed action
type Receipt struct {
	Action       string `json:"action"`
	Reference    string `json:"reference"`
	AmountCents  int64  `json:"amount_cents,omitempty"`
	BalanceCents int64  `json:"balance_cents"`
	Summary      string `json:"summary"`
}

// Executor performs confirmed actions against the ledger. Every
// state-changing action writes one audit row keyed by an idempotency key so
// a replayed confirmation cannot apply twice
type Executor struct {
	store *bank.Store
}

// NewExecutor creates an executor over the bank store
func NewExecutor(store *bank.Store) *Executor {
	return &Executor{store: store}
}

// Execute validates the collected slots and performs the action for the
// intent. sessionID and turn form the idempotency key for state-changing
// actions. On failure no partial mutation remains and the audit row records
// the failed outcome
func (e *Executor) Execute(ctx context.Context, intent string, slots map[string]string, userID, sessionID string, turn int) (*Receipt, error) {
	key := fmt.Sprintf("%s:turn-%d", sessionID, turn)

	// Replay detection: a key that was already executed returns the stored
	// outcome instead of touching the ledger again
	if existing, err := e.store.AuditByKey(ctx, key); err == nil {
		return &Receipt{
			Action:  existing.Action,
			Summary: existing.Detail,
		}, ErrReplayed
	}

	switch intent {
	case "create_account":
		return e.createAccount(ctx, slots, sessionID, key)
	case "transfer":
		return e.transfer(ctx, slots, userID, sessionID, key)
	case "pay_bill":
		return e.payBill(ctx, slots, userID, sessionID, key)
	default:
		return nil, ErrUnknownAction
	}
}

// Balance returns the balance receipt for a user, optionally narrowed to an
// account type. Read-only, so no audit entry is written
func (e *Executor) Balance(ctx context.Context, userID string, accountType string) ([]*bank.Account, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	if accountType != "" {
		account, err := e.store.AccountForUserByType(ctx, uid, accountType)
		if err != nil {
			return nil, err
		}
		return []*bank.Account{account}, nil
	}

	return e.store.AccountsForUser(ctx, uid)
}

// History returns recent transactions for the user's account of the given
// type (or their oldest account when no type is given)
func (e *Executor) History(ctx context.Context, userID string, accountType string, limit int) ([]*bank.Transaction, error) {
	account, err := e.accountFor(ctx, userID, accountType)
	if err != nil {
		return nil, err
	}

	return e.store.TransactionsForAccount(ctx, account.ID, limit)
}

func (e *Executor) createAccount(ctx context.Context, slots map[string]string, sessionID, key string) (*Receipt, error) {
	name := slots[SlotName]
	phone := slots[SlotPhone]
	email := slots[SlotEmail]
	accountType := slots[SlotAccountType]

	if name == "" || phone == "" || email == "" || accountType == "" {
		return nil, ErrMissingSlot
	}
	if !bank.ValidAccountType(accountType) {
		return nil, bank.ErrUnknownAccountType
	}

	user, err := e.store.CreateUser(ctx, name, phone, email)
	if errors.Is(err, bank.ErrDuplicateEmail) {
		// Existing customer opening an additional account
		user, err = e.store.GetUserByEmail(ctx, email)
	}
	if err != nil {
		e.audit(ctx, key, sessionID, "create_account", bank.OutcomeFailed, err.Error())
		return nil, err
	}

	account, err := e.store.CreateAccount(ctx, user.ID, accountType, 0)
	if err != nil {
		e.audit(ctx, key, sessionID, "create_account", bank.OutcomeFailed, err.Error())
		return nil, err
	}

	summary := fmt.Sprintf("Opened %s account %s for %s", account.Type, account.Number, user.Name)
	e.audit(ctx, key, sessionID, "create_account", bank.OutcomeCompleted, summary)

	return &Receipt{
		Action:       "create_account",
		Reference:    account.Number,
		BalanceCents: account.Balance,
		Summary:      summary,
	}, nil
}

func (e *Executor) transfer(ctx context.Context, slots map[string]string, userID, sessionID, key string) (*Receipt, error) {
	recipient := slots[SlotRecipient]
	if recipient == "" {
		return nil, ErrMissingSlot
	}

	amount, err := amountSlot(slots)
	if err != nil {
		return nil, err
	}

	from, err := e.accountFor(ctx, userID, slots[SlotFromAccountType])
	if err != nil {
		return nil, err
	}

	to, err := e.store.FindAccountByRecipient(ctx, recipient)
	if err != nil {
		e.audit(ctx, key, sessionID, "transfer", bank.OutcomeFailed, fmt.Sprintf("recipient %q not found", recipient))
		return nil, err
	}

	txn, err := e.store.Transfer(ctx, from.ID, to.ID, amount, fmt.Sprintf("transfer to %s", recipient))
	if err != nil {
		e.audit(ctx, key, sessionID, "transfer", bank.OutcomeFailed, err.Error())
		return nil, err
	}

	after, err := e.store.GetAccount(ctx, from.ID)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Sent %s to %s", FormatCents(amount), recipient)
	e.audit(ctx, key, sessionID, "transfer", bank.OutcomeCompleted, summary)

	return &Receipt{
		Action:       "transfer",
		Reference:    txn.ID.String(),
		AmountCents:  amount,
		BalanceCents: after.Balance,
		Summary:      summary,
	}, nil
}

func (e *Executor) payBill(ctx context.Context, slots map[string]string, userID, sessionID, key string) (*Receipt, error) {
	biller := slots[SlotBiller]
	if biller == "" {
		return nil, ErrMissingSlot
	}

	amount, err := amountSlot(slots)
	if err != nil {
		return nil, err
	}

	from, err := e.accountFor(ctx, userID, slots[SlotFromAccountType])
	if err != nil {
		return nil, err
	}

	txn, err := e.store.PayBill(ctx, from.ID, amount, fmt.Sprintf("%s bill", biller))
	if err != nil {
		e.audit(ctx, key, sessionID, "pay_bill", bank.OutcomeFailed, err.Error())
		return nil, err
	}

	after, err := e.store.GetAccount(ctx, from.ID)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Paid %s toward your %s bill", FormatCents(amount), biller)
	e.audit(ctx, key, sessionID, "pay_bill", bank.OutcomeCompleted, summary)

	return &Receipt{
		Action:       "pay_bill",
		Reference:    txn.ID.String(),
		AmountCents:  amount,
		BalanceCents: after.Balance,
		Summary:      summary,
	}, nil
}

// accountFor resolves the user's account, preferring the given type when set
func (e *Executor) accountFor(ctx context.Context, userID, accountType string) (*bank.Account, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	if accountType != "" {
		return e.store.AccountForUserByType(ctx, uid, accountType)
	}

	accounts, err := e.store.AccountsForUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, bank.ErrNotFound
	}

	return accounts[0], nil
}

// amountSlot validates the collected amount against the per-transaction range
func amountSlot(slots map[string]string) (int64, error) {
	raw, ok := slots[SlotAmountCents]
	if !ok {
		return 0, ErrMissingSlot
	}

	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrMissingSlot
	}

	if amount < MinAmountCents {
		return 0, ErrAmountTooSmall
	}
	if amount > MaxAmountCents {
		return 0, ErrAmountTooLarge
	}

	return amount, nil
}

// audit best-effort records the action outcome; audit failures are logged by
// the store layer and never mask the action result
func (e *Executor) audit(ctx context.Context, key, sessionID, action, outcome, detail string) {
	_, _ = e.store.AppendAudit(ctx, &bank.AuditLog{
		IdempotencyKey: key,
		SessionID:      sessionID,
		Action:         action,
		Outcome:        outcome,
		Detail:         detail,
	})
}

// FormatCents renders a cent amount as dollars for chat responses
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
