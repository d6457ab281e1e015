package domain

import "errors"

// Sentinel errors for the auth and payment lifecycles. Services return
// these (possibly wrapped) and handlers translate them to stable JSON
// error bodies without leaking internals.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrEmailExists  = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidOtp covers a missing record, a mismatched code and an
	// expired code alike; the caller must not learn which.
	ErrInvalidOtp = errors.New("invalid or expired OTP")

	// ErrInvalidCredentials covers unknown email, wrong password and an
	// unverified account. All three collapse to one error so callers
	// cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrListingNotFound = errors.New("listing not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrPaymentSettled marks a transition attempt on a record already
	// in a terminal status. Callers treat it as a no-op.
	ErrPaymentSettled = errors.New("payment already settled")

	ErrInvalidCallbackSignature = errors.New("invalid callback signature")
)
