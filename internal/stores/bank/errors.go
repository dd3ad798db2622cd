package bank

import "errors"

// Domain errors returned by the store. The dialogue layer maps these to
// user-facing chat text; they never surface as raw HTTP errors
var (
	// ErrNotFound means the referenced user or account does not exist
	ErrNotFound = errors.New("record not found")

	// ErrBadAmount means the amount is zero, negative, or outside range
	ErrBadAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds means the source account balance cannot cover the amount
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSameAccount means a transfer references the same account on both sides
	ErrSameAccount = errors.New("cannot transfer to the same account")

	// ErrUnknownAccountType means the account type is not checking or savings
	ErrUnknownAccountType = errors.New("unknown account type")

	// ErrDuplicateEmail means a user with the email already exists
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateAudit means the idempotency key was already recorded
	ErrDuplicateAudit = errors.New("duplicate idempotency key")
)
