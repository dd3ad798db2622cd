package chat

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/ethanbaker/bankchat/internal/actions"
	"github.com/ethanbaker/bankchat/internal/dialogue"
	"github.com/ethanbaker/bankchat/internal/nlu"
	"github.com/ethanbaker/bankchat/internal/otp"
	"github.com/ethanbaker/bankchat/internal/stores/bank"
	"github.com/ethanbaker/bankchat/internal/stores/session"
	"github.com/ethanbaker/bankchat/pkg/sdk"
	"github.com/ethanbaker/bankchat/pkg/utils"
)

// Orchestrator wires the banking stores, the classifier, and the dialogue
// manager behind the chat endpoints
type Orchestrator struct {
	bank     *bank.Store
	sessions session.Store
	dialogue *dialogue.Manager
	cron     *cron.Cron
	mutex    sync.RWMutex
}

var orchestrator *Orchestrator

/** ---- INIT ---- */

// Init creates the chat service from global configuration
func Init(cfg *utils.Config) error {
	dbPath := cfg.GetWithDefault("DATABASE_PATH", "bankchat.db")

	// Create stores
	bankStore, err := bank.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize bank store: %w", err)
	}

	if err := bankStore.SeedDemoData(context.Background()); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}

	sessionStore, err := session.NewSqliteStore(dbPath, cfg.GetMinutes("SESSION_TTL_MINUTES", 30))
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	// Create mailer, falling back to log output when SMTP is not configured
	var mailer otp.Mailer
	mailer, err = otp.NewSMTPMailer(cfg)
	if err != nil {
		log.Printf("[CHAT]: Warning, SMTP not configured, verification codes will be logged: %v", err)
		mailer = &otp.LogMailer{}
	}

	otpManager, err := otp.NewManager(bankStore.DB(), mailer, cfg.GetMinutes("OTP_TTL_MINUTES", 5))
	if err != nil {
		return fmt.Errorf("failed to initialize verification codes: %w", err)
	}

	// Create classifier and dialogue manager
	classifier, err := nlu.NewClassifier(cfg.GetFloatWithDefault("INTENT_CONFIDENCE_THRESHOLD", 0.4))
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}

	manager := dialogue.NewManager(sessionStore, bankStore, classifier, actions.NewExecutor(bankStore), otpManager)

	service := &Orchestrator{
		bank:     bankStore,
		sessions: sessionStore,
		dialogue: manager,
		cron:     cron.New(),
	}

	// Sweep expired sessions on a schedule
	sweepSpec := cfg.GetWithDefault("SESSION_SWEEP_SPEC", "@every 5m")
	if _, err := service.cron.AddFunc(sweepSpec, service.sweepSessions); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	service.cron.Start()

	orchestrator = service
	return nil
}

// GetOrchestrator returns the active chat service
func GetOrchestrator() *Orchestrator {
	return orchestrator
}

/** ---- METHODS ---- */

// Chat runs one dialogue turn
func (o *Orchestrator) Chat(ctx context.Context, req *sdk.ChatRequest) (*sdk.ChatResponse, error) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	reply, err := o.dialogue.Respond(ctx, req.SessionID, req.UserID, req.Message)
	if err != nil {
		return nil, err
	}

	return &sdk.ChatResponse{
		Reply:      reply.Text,
		SessionID:  reply.SessionID,
		Intent:     reply.Intent,
		Confidence: reply.Confidence,
		Done:       reply.Done,
	}, nil
}

// Bank exposes the ledger store to other modules
func (o *Orchestrator) Bank() *bank.Store {
	return o.bank
}

// Stop shuts down the background sweeper and closes the stores
func (o *Orchestrator) Stop() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.cron.Stop()
	if err := o.bank.Close(); err != nil {
		log.Printf("[CHAT]: Failed to close bank store: %v", err)
	}
}

// sweepSessions deletes expired sessions
func (o *Orchestrator) sweepSessions() {
	n, err := o.sessions.DeleteExpired(context.Background())
	if err != nil {
		log.Printf("[CHAT]: Session sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[CHAT]: Swept %d expired sessions", n)
	}
}
