package account

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ethanbaker/bankchat/internal/actions"
	chat_module "github.com/ethanbaker/bankchat/internal/api/modules/chat"
	"github.com/ethanbaker/bankchat/internal/stores/bank"
	"github.com/ethanbaker/bankchat/pkg/sdk"
)

// historyLimit caps how many ledger entries one request returns
const historyLimit = 50

// GetBalance handles GET requests for an account balance by UUID or account
// number
func GetBalance(c *gin.Context) {
	account, ok := findAccount(c)
	if !ok {
		return
	}

	c.JSON(sdk.NewSuccessResponse("Balance retrieved successfully", toSDKBalance(account)).AsGinResponse())
}

// GetHistory handles GET requests for recent account transactions
func GetHistory(c *gin.Context) {
	account, ok := findAccount(c)
	if !ok {
		return
	}

	store := chat_module.GetOrchestrator().Bank()
	transactions, err := store.TransactionsForAccount(c.Request.Context(), account.ID, historyLimit)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to get transactions", err.Error()).AsGinResponse())
		return
	}

	resp := sdk.HistoryResponse{
		AccountID:    account.ID.String(),
		Transactions: []sdk.TransactionRecord{},
	}
	for _, txn := range transactions {
		resp.Transactions = append(resp.Transactions, toSDKTransaction(txn))
	}

	c.JSON(sdk.NewSuccessResponse("Transactions retrieved successfully", resp).AsGinResponse())
}

// findAccount resolves the :id path parameter as an account UUID or an
// account number. On failure it writes the error response itself
func findAccount(c *gin.Context) (*bank.Account, bool) {
	ref := c.Param("id")
	store := chat_module.GetOrchestrator().Bank()
	ctx := c.Request.Context()

	var account *bank.Account
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		account, err = store.GetAccount(ctx, id)
	} else {
		account, err = store.GetAccountByNumber(ctx, ref)
	}

	if errors.Is(err, bank.ErrNotFound) {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Account not found", nil).AsGinResponse())
		return nil, false
	}
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to get account", err.Error()).AsGinResponse())
		return nil, false
	}

	return account, true
}

// Helper method to convert an internal account to an sdk balance
func toSDKBalance(account *bank.Account) sdk.AccountBalance {
	return sdk.AccountBalance{
		AccountID: account.ID.String(),
		Number:    account.Number,
		Type:      account.Type,
		Cents:     account.Balance,
		Display:   actions.FormatCents(account.Balance),
	}
}

// Helper method to convert an internal transaction to an sdk record
func toSDKTransaction(txn *bank.Transaction) sdk.TransactionRecord {
	return sdk.TransactionRecord{
		ID:          txn.ID.String(),
		Type:        txn.Type,
		Cents:       txn.Amount,
		Display:     actions.FormatCents(txn.Amount),
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt,
	}
}
