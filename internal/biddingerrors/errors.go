package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrNotFound            = errors.New("not found")
	ErrNotFoundOrForbidden = errors.New("not found or not authorized")
	ErrNoBids              = errors.New("no bids found for product")
	ErrAlreadySettled      = errors.New("auction already settled")
	ErrEmailTaken          = errors.New("user already exists")
)

// business logic errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrAuctionClosed      = errors.New("bidding time is over, auction closed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
