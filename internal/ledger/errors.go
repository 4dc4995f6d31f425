package ledger

import "errors"

var (
	ErrValidation          = errors.New("invalid request")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrForbidden           = errors.New("forbidden")
)
