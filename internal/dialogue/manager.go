package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ethanbaker/bankchat/internal/actions"
	"github.com/ethanbaker/bankchat/internal/nlu"
	"github.com/ethanbaker/bankchat/internal/otp"
	"github.com/ethanbaker/bankchat/internal/stores/bank"
	"github.com/ethanbaker/bankchat/internal/stores/session"
	"github.com/google/uuid"
)

// internal marker slot recording that a verification code went out
const slotOTPSent = "_otp_sent"

// Reply is what one dialogue turn produces
type Reply struct {
	Text       string  `json:"text"`
	SessionID  string  `json:"session_id"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Done       bool    `json:"done"`
}

// Manager drives the multi-turn dialogue: it decides whether incoming text
// is a new intent, a slot value, or a confirmation of a pending action
type Manager struct {
	sessions   session.Store
	store      *bank.Store
	classifier *nlu.Classifier
	executor   *actions.Executor
	otp        *otp.Manager
}

// NewManager wires the dialogue manager
func NewManager(sessions session.Store, store *bank.Store, classifier *nlu.Classifier, executor *actions.Executor, otpManager *otp.Manager) *Manager {
	return &Manager{
		sessions:   sessions,
		store:      store,
		classifier: classifier,
		executor:   executor,
		otp:        otpManager,
	}
}

// Respond handles one user message. A missing, expired, or malformed session
// degrades to a fresh one; this method never fails because of session state
func (m *Manager) Respond(ctx context.Context, sessionID, userID, text string) (*Reply, error) {
	sess := m.loadOrCreate(ctx, sessionID, userID)
	if userID != "" && sess.UserID == "" {
		sess.UserID = userID
	}

	reply := m.handleTurn(ctx, sess, strings.TrimSpace(text))
	reply.SessionID = sess.ID.String()

	if err := m.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return reply, nil
}

// loadOrCreate resolves the session for this turn. Any load failure means a
// fresh session rather than an error
func (m *Manager) loadOrCreate(ctx context.Context, sessionID, userID string) *session.Session {
	if sessionID != "" {
		if id, err := uuid.Parse(sessionID); err == nil {
			if sess, err := m.sessions.Get(ctx, id); err == nil {
				return sess
			} else if !errors.Is(err, session.ErrSessionNotFound) && !errors.Is(err, session.ErrSessionExpired) {
				log.Printf("[DIALOGUE]: Failed to load session %s, starting fresh: %v", sessionID, err)
			}
		}
	}

	sess, err := m.sessions.Create(ctx, userID)
	if err != nil {
		// Keep the conversation alive with an unsaved session
		log.Printf("[DIALOGUE]: Failed to create session: %v", err)
		sess = session.NewSession(userID, 0)
	}

	return sess
}

func (m *Manager) handleTurn(ctx context.Context, sess *session.Session, text string) *Reply {
	if text == "" {
		return &Reply{Text: "I didn't catch that. " + m.helpText(), Intent: nlu.IntentUnknown}
	}

	if sess.HasPendingIntent() {
		return m.continuePending(ctx, sess, text)
	}

	return m.startFresh(ctx, sess, text)
}

// startFresh classifies text with no pending intent in play
func (m *Manager) startFresh(ctx context.Context, sess *session.Session, text string) *Reply {
	cls := m.classifier.Classify(text)

	switch cls.Intent {
	case nlu.IntentGreeting:
		return &Reply{
			Text:       "Hello! I can help you open an account, check balances, send money, pay bills, or review transactions.",
			Intent:     cls.Intent,
			Confidence: cls.Confidence,
			Done:       true,
		}

	case nlu.IntentHelp:
		return &Reply{Text: m.helpText(), Intent: cls.Intent, Confidence: cls.Confidence, Done: true}

	case nlu.IntentCancel:
		return &Reply{Text: "There's nothing in progress to cancel.", Intent: cls.Intent, Confidence: cls.Confidence, Done: true}

	case nlu.IntentCheckBalance:
		return m.checkBalance(ctx, sess, text, cls)

	case nlu.IntentTransactionHistory:
		return m.transactionHistory(ctx, sess, text, cls)

	case nlu.IntentCreateAccount, nlu.IntentTransfer, nlu.IntentPayBill:
		return m.startFlow(ctx, sess, text, cls)

	default:
		// A bare confirmation with nothing pending gets the help text
		if matchConfirmation(text) != confirmNone {
			return &Reply{Text: "There's nothing waiting on a yes or no right now. " + m.helpText(), Intent: nlu.IntentUnknown}
		}
		return &Reply{
			Text:       "I'm not sure what you'd like to do. " + m.helpText(),
			Intent:     nlu.IntentUnknown,
			Confidence: cls.Confidence,
		}
	}
}

// startFlow begins a slot-filling flow, seeding slots from the message
func (m *Manager) startFlow(ctx context.Context, sess *session.Session, text string, cls nlu.Classification) *Reply {
	f := flows[cls.Intent]
	if f == nil {
		return &Reply{Text: m.helpText(), Intent: cls.Intent, Confidence: cls.Confidence}
	}

	// Transfers and bill payments need a known customer
	if cls.Intent != nlu.IntentCreateAccount && sess.UserID == "" {
		return &Reply{
			Text:       "I don't have an account on file for you yet. Say \"open an account\" to get started.",
			Intent:     cls.Intent,
			Confidence: cls.Confidence,
		}
	}

	sess.PendingIntent = cls.Intent
	sess.Slots = make(map[string]string)
	f.seedSlots(nlu.Extract(text), sess.Slots)
	m.seedSourceAccount(ctx, sess, f)

	// A recipient mentioned in the opening message must resolve before the
	// flow moves past it
	var prefix string
	if name := sess.Slots[actions.SlotRecipient]; name != "" && f.slotByName(actions.SlotRecipient) != nil {
		if !m.recipientExists(ctx, name) {
			delete(sess.Slots, actions.SlotRecipient)
			prefix = fmt.Sprintf("I couldn't find anyone named %s. ", name)
		}
	}

	reply := m.advanceFlow(ctx, sess, f)
	reply.Text = prefix + reply.Text
	reply.Intent = cls.Intent
	reply.Confidence = cls.Confidence
	return reply
}

// seedSourceAccount fills the source account slot when there is nothing to
// ask: a single account type means no ambiguity
func (m *Manager) seedSourceAccount(ctx context.Context, sess *session.Session, f *flow) {
	if f.slotByName(actions.SlotFromAccountType) == nil || sess.Slots[actions.SlotFromAccountType] != "" {
		return
	}

	uid, err := uuid.Parse(sess.UserID)
	if err != nil {
		return
	}
	accounts, err := m.store.AccountsForUser(ctx, uid)
	if err != nil || len(accounts) == 0 {
		return
	}

	types := make(map[string]bool)
	for _, account := range accounts {
		types[account.Type] = true
	}
	if len(types) == 1 {
		sess.Slots[actions.SlotFromAccountType] = accounts[0].Type
	}
}

// recipientExists reports whether a recipient name resolves to an account
func (m *Manager) recipientExists(ctx context.Context, name string) bool {
	_, err := m.store.FindAccountByRecipient(ctx, name)
	return err == nil
}

// continuePending resolves a message while an intent is pending: first
// confirmation patterns, then the awaited slot, and only then intent
// reclassification
func (m *Manager) continuePending(ctx context.Context, sess *session.Session, text string) *Reply {
	f := flows[sess.PendingIntent]
	if f == nil {
		// Unknown pending state; reset rather than crash
		sess.ClearPending()
		return m.startFresh(ctx, sess, text)
	}

	pending := sess.PendingIntent

	// Confirmation and cancellation outrank everything else
	switch matchConfirmation(text) {
	case confirmNo:
		sess.ClearPending()
		return &Reply{Text: "Okay, I've cancelled that. Anything else?", Intent: pending, Done: true}

	case confirmYes:
		if sess.AwaitingSlot == awaitingConfirm {
			return m.execute(ctx, sess, f)
		}
		// A "yes" while a slot is still missing just re-prompts
		if spec := f.nextMissingSlot(sess.Slots); spec != nil {
			return &Reply{Text: spec.prompt, Intent: pending}
		}
		return m.execute(ctx, sess, f)
	}

	// Next: does the text answer the slot we're waiting on?
	if sess.AwaitingSlot != "" && sess.AwaitingSlot != awaitingConfirm {
		if spec := f.slotByName(sess.AwaitingSlot); spec != nil {
			if reply := m.tryFillSlot(ctx, sess, f, spec, text); reply != nil {
				return reply
			}
		}
	}

	// Last resort: allow reclassification, but only on a confident match to
	// a different intent. A low-signal word never remaps a pending flow
	cls := m.classifier.Classify(text)
	if cls.Intent != nlu.IntentUnknown && cls.Intent != pending {
		if cls.Intent == nlu.IntentCancel {
			sess.ClearPending()
			return &Reply{Text: "Okay, I've cancelled that. Anything else?", Intent: pending, Done: true}
		}
		sess.ClearPending()
		return m.startFresh(ctx, sess, text)
	}

	// Soft failure: ask again
	if sess.AwaitingSlot == awaitingConfirm {
		return &Reply{Text: "Sorry, I need a yes or no. " + f.confirm(sess.Slots), Intent: pending}
	}
	if spec := f.nextMissingSlot(sess.Slots); spec != nil {
		return &Reply{Text: "Sorry, I didn't get that. " + spec.prompt, Intent: pending}
	}
	return &Reply{Text: f.confirm(sess.Slots), Intent: pending}
}

// tryFillSlot attempts to consume text as the awaited slot value. A nil
// return means the text did not answer the slot
func (m *Manager) tryFillSlot(ctx context.Context, sess *session.Session, f *flow, spec *slotSpec, text string) *Reply {
	// Free-text slots would swallow anything, so check for a confident
	// different intent before consuming the message
	if spec.freeText {
		if cls := m.classifier.Classify(text); cls.Intent != nlu.IntentUnknown && cls.Intent != sess.PendingIntent {
			return nil
		}
	}

	value, ok := fillSlot(spec, text)
	if !ok {
		return nil
	}

	// A recipient answer must resolve to a real account; otherwise stay on
	// this slot
	if spec.kind == kindRecipient && !m.recipientExists(ctx, value) {
		return &Reply{
			Text:   fmt.Sprintf("I couldn't find anyone named %s. Who would you like to send money to?", value),
			Intent: sess.PendingIntent,
		}
	}

	// OTP answers verify against the issued code instead of being stored raw
	if spec.kind == kindOTP {
		return m.verifyOTP(ctx, sess, f, value)
	}

	if spec.kind == kindAmount {
		if reply := checkAmountRange(sess, value); reply != nil {
			return reply
		}
	}

	sess.Slots[spec.name] = value
	return m.advanceFlow(ctx, sess, f)
}

// advanceFlow prompts for the next missing slot, or asks for confirmation
// when everything is collected
func (m *Manager) advanceFlow(ctx context.Context, sess *session.Session, f *flow) *Reply {
	spec := f.nextMissingSlot(sess.Slots)
	if spec == nil {
		sess.AwaitingSlot = awaitingConfirm
		return &Reply{Text: f.confirm(sess.Slots), Intent: sess.PendingIntent}
	}

	// Entering the OTP step sends the code to the collected email first
	if spec.kind == kindOTP && sess.Slots[slotOTPSent] == "" {
		email := sess.Slots[actions.SlotEmail]
		if err := m.otp.Issue(ctx, email); err != nil {
			log.Printf("[DIALOGUE]: Failed to issue verification code: %v", err)
			sess.ClearPending()
			return &Reply{Text: "I couldn't send a verification code to that address. Let's try again later.", Intent: sess.PendingIntent, Done: true}
		}
		sess.Slots[slotOTPSent] = "1"
		sess.AwaitingSlot = spec.name
		return &Reply{Text: fmt.Sprintf("I've emailed a verification code to %s. %s", email, spec.prompt), Intent: sess.PendingIntent}
	}

	sess.AwaitingSlot = spec.name
	return &Reply{Text: spec.prompt, Intent: sess.PendingIntent}
}

// verifyOTP checks the submitted code and either advances the flow or
// re-prompts
func (m *Manager) verifyOTP(ctx context.Context, sess *session.Session, f *flow, code string) *Reply {
	email := sess.Slots[actions.SlotEmail]

	err := m.otp.Verify(ctx, email, code)
	switch {
	case err == nil:
		sess.Slots[actions.SlotOTP] = code
		return m.advanceFlow(ctx, sess, f)

	case errors.Is(err, otp.ErrCodeMismatch):
		return &Reply{Text: "That code doesn't match. Please check the email and try again.", Intent: sess.PendingIntent}

	case errors.Is(err, otp.ErrCodeExpired):
		// Issue a fresh code and stay on this step
		delete(sess.Slots, slotOTPSent)
		delete(sess.Slots, actions.SlotOTP)
		reply := m.advanceFlow(ctx, sess, f)
		reply.Text = "That code has expired. " + reply.Text
		return reply

	case errors.Is(err, otp.ErrTooManyAttempts):
		sess.ClearPending()
		return &Reply{Text: "Too many incorrect codes. I've stopped this request for your security; please start over.", Intent: sess.PendingIntent, Done: true}

	default:
		log.Printf("[DIALOGUE]: OTP verification error: %v", err)
		return &Reply{Text: "I couldn't verify that code just now. Please try again.", Intent: sess.PendingIntent}
	}
}

// execute performs the confirmed action and closes out the pending flow
func (m *Manager) execute(ctx context.Context, sess *session.Session, f *flow) *Reply {
	intent := sess.PendingIntent
	slots := sess.Slots
	sess.ClearPending()

	receipt, err := m.executor.Execute(ctx, intent, slots, sess.UserID, sess.ID.String(), sess.TurnCount)
	if errors.Is(err, actions.ErrReplayed) && receipt != nil {
		return &Reply{Text: receipt.Summary, Intent: intent, Done: true}
	}
	if err != nil {
		return &Reply{Text: errorText(err), Intent: intent, Done: true}
	}

	// A freshly-created account binds the session to the new customer
	if intent == nlu.IntentCreateAccount && sess.UserID == "" {
		if user, err := m.store.GetUserByEmail(ctx, slots[actions.SlotEmail]); err == nil {
			sess.UserID = user.ID.String()
		}
	}

	text := receipt.Summary
	switch intent {
	case nlu.IntentCreateAccount:
		text = fmt.Sprintf("%s. Your account number is %s.", receipt.Summary, receipt.Reference)
	case nlu.IntentTransfer, nlu.IntentPayBill:
		text = fmt.Sprintf("%s. Your new balance is %s.", receipt.Summary, actions.FormatCents(receipt.BalanceCents))
	}

	return &Reply{Text: text, Intent: intent, Done: true}
}

// checkAmountRange enforces the per-transaction limits at slot-fill time so
// the user hears about it immediately. value is the canonical cents string
func checkAmountRange(sess *session.Session, value string) *Reply {
	cents, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return &Reply{Text: "Sorry, I didn't get that amount. How much would you like?", Intent: sess.PendingIntent}
	}

	if cents < actions.MinAmountCents {
		return &Reply{Text: "The amount has to be more than zero. How much would you like?", Intent: sess.PendingIntent}
	}
	if cents > actions.MaxAmountCents {
		return &Reply{
			Text:   fmt.Sprintf("I can only handle up to %s per transaction. How much would you like?", actions.FormatCents(actions.MaxAmountCents)),
			Intent: sess.PendingIntent,
		}
	}
	return nil
}

// checkBalance answers a balance request immediately; it needs no pending
// state or confirmation
func (m *Manager) checkBalance(ctx context.Context, sess *session.Session, text string, cls nlu.Classification) *Reply {
	if sess.UserID == "" {
		return &Reply{
			Text:       "I don't have an account on file for you yet. Say \"open an account\" to get started.",
			Intent:     cls.Intent,
			Confidence: cls.Confidence,
		}
	}

	entities := nlu.Extract(text)
	accounts, err := m.executor.Balance(ctx, sess.UserID, entities.AccountType)
	if err != nil {
		return &Reply{Text: errorText(err), Intent: cls.Intent, Confidence: cls.Confidence, Done: true}
	}
	if len(accounts) == 0 {
		return &Reply{Text: "You don't have any accounts yet. Say \"open an account\" to create one.", Intent: cls.Intent, Confidence: cls.Confidence, Done: true}
	}

	var parts []string
	for _, account := range accounts {
		parts = append(parts, fmt.Sprintf("your %s account (%s) has %s", account.Type, account.Number, actions.FormatCents(account.Balance)))
	}

	return &Reply{
		Text:       "Here's what I found: " + strings.Join(parts, ", ") + ".",
		Intent:     cls.Intent,
		Confidence: cls.Confidence,
		Done:       true,
	}
}

// transactionHistory answers a history request immediately
func (m *Manager) transactionHistory(ctx context.Context, sess *session.Session, text string, cls nlu.Classification) *Reply {
	if sess.UserID == "" {
		return &Reply{
			Text:       "I don't have an account on file for you yet. Say \"open an account\" to get started.",
			Intent:     cls.Intent,
			Confidence: cls.Confidence,
		}
	}

	entities := nlu.Extract(text)
	transactions, err := m.executor.History(ctx, sess.UserID, entities.AccountType, 5)
	if err != nil {
		return &Reply{Text: errorText(err), Intent: cls.Intent, Confidence: cls.Confidence, Done: true}
	}
	if len(transactions) == 0 {
		return &Reply{Text: "No transactions on that account yet.", Intent: cls.Intent, Confidence: cls.Confidence, Done: true}
	}

	var parts []string
	for _, txn := range transactions {
		parts = append(parts, fmt.Sprintf("%s %s (%s)", txn.Type, actions.FormatCents(txn.Amount), txn.CreatedAt.Format("Jan 2")))
	}

	return &Reply{
		Text:       "Your recent activity: " + strings.Join(parts, "; ") + ".",
		Intent:     cls.Intent,
		Confidence: cls.Confidence,
		Done:       true,
	}
}

func (m *Manager) helpText() string {
	return "You can say things like \"open an account\", \"what's my balance\", \"send $20 to Alice\", \"pay my electric bill\", or \"show my recent transactions\"."
}

// errorText maps domain errors to user-facing chat text. Unexpected errors
// become a generic apology rather than leaking internals
func errorText(err error) string {
	switch {
	case errors.Is(err, bank.ErrInsufficientFunds):
		return "You don't have enough funds for that."
	case errors.Is(err, bank.ErrNotFound):
		return "I couldn't find that account. Double-check the name and try again."
	case errors.Is(err, bank.ErrSameAccount):
		return "You can't transfer money to the same account it comes from."
	case errors.Is(err, bank.ErrUnknownAccountType):
		return "I only support checking and savings accounts."
	case errors.Is(err, bank.ErrDuplicateEmail):
		return "That email is already registered."
	case errors.Is(err, actions.ErrAmountTooSmall):
		return "The amount has to be more than zero."
	case errors.Is(err, actions.ErrAmountTooLarge):
		return fmt.Sprintf("I can only handle up to %s per transaction.", actions.FormatCents(actions.MaxAmountCents))
	case errors.Is(err, actions.ErrMissingSlot):
		return "I'm missing some details for that. Let's start over."
	default:
		return "Something went wrong on my end. Please try again."
	}
}
