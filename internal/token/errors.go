package token

import "errors"

var (
	ErrUnauthorized      = errors.New("authorizer does not own source account")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("balance overflow")
	ErrMintMismatch      = errors.New("accounts belong to different mints")
	ErrUnknownMint       = errors.New("mint is not registered")
)
