package trading

import (
	"errors"
	"fmt"
)

// Domain validation errors. Handlers map each of these to an apology page;
// anything else is treated as an internal failure.
var (
	// ErrMissingUsername and friends cover empty registration fields.
	ErrMissingUsername     = errors.New("must provide username")
	ErrMissingPassword     = errors.New("must provide password")
	ErrMissingConfirmation = errors.New("must confirm password")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrUsernameTaken       = errors.New("username already taken")

	// ErrInvalidCredentials is the single answer for every login failure.
	// Unknown user and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username and/or password")

	// ErrSharesNotInteger means the shares field did not parse at all.
	ErrSharesNotInteger = errors.New("shares must be a positive integer")

	// ErrInvalidShares means the parsed count was zero or negative.
	ErrInvalidShares = errors.New("invalid shares")

	// ErrInvalidSymbol covers an empty symbol and one the provider rejects.
	ErrInvalidSymbol = errors.New("invalid symbol")

	ErrInsufficientFunds = errors.New("not enough cash")

	// ErrNoHoldings means the user has never held the symbol (or sold out).
	ErrNoHoldings = errors.New("no shares of this stock held")
)

// InsufficientSharesError rejects a sell that exceeds the current holding.
// It carries the available count so the message can name it.
type InsufficientSharesError struct {
	Available int64
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("only %d shares held", e.Available)
}
