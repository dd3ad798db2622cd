package sdk

import (
	"encoding/json"
	"time"

	"github.com/ethanbaker/api/pkg/api_types"
)

// ApiResponse represents a standard API response structure
type ApiResponse[T any] struct {
	Status  api_types.StatusType `json:"status"`          // Status message
	Code    int                  `json:"code"`            // Status code
	Message string               `json:"message"`         // Human-readable message
	Data    T                    `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any                  `json:"error,omitempty"` // Optional errors field for error responses
}

// AsGinResponse converts the ApiResponse to a format suitable for Gin framework
func (r ApiResponse[T]) AsGinResponse() (int, any) {
	return r.Code, r
}

// AsJSON converts the ApiResponse to a format suitable for JSON responses
func (r ApiResponse[T]) AsJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func NewSuccess(message string) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusSuccess,
		Code:    200,
		Message: message,
	}
}

func NewSuccessResponse[T any](message string, data T) ApiResponse[T] {
	return ApiResponse[T]{
		Status:  api_types.StatusSuccess,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(code int, message string, err any) ApiResponse[any] {
	return ApiResponse[any]{
		Status:  api_types.StatusError,
		Code:    code,
		Message: message,
		Error:   err,
	}
}

/** Requests */

// ChatRequest represents the request body for sending a chat message
type ChatRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message" binding:"required"`
}

/** Responses */

// ChatResponse represents one chatbot turn
type ChatResponse struct {
	Reply      string  `json:"reply"`
	SessionID  string  `json:"session_id"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Done       bool    `json:"done"`
}

// AccountBalance represents one account in a balance response
type AccountBalance struct {
	AccountID string `json:"account_id"`
	Number    string `json:"number"`
	Type      string `json:"type"`
	Cents     int64  `json:"cents"`
	Display   string `json:"display"`
}

// TransactionRecord represents one ledger entry in a history response
type TransactionRecord struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Cents       int64     `json:"cents"`
	Display     string    `json:"display"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryResponse represents the transaction list for one account
type HistoryResponse struct {
	AccountID    string              `json:"account_id"`
	Transactions []TransactionRecord `json:"transactions"`
}
