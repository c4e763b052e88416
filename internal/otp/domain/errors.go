package domain

import "errors"

// Validation failures. Mismatch, NoPendingChallenge and NoSecret are
// deliberately presented to users identically (see RetryReason); the
// distinct sentinels exist for logging and tests.
var (
	// ErrMalformedInput means the submitted value was not exactly six ASCII
	// digits. Rejected before any comparison for both strategies.
	ErrMalformedInput = errors.New("otp: submitted code is not six digits")

	// ErrMismatch means the submitted code does not match the expected one.
	ErrMismatch = errors.New("otp: code mismatch")

	// ErrNoPendingChallenge means no stored code/timestamp pair exists
	// (random strategy), including after a successful single-use consume.
	ErrNoPendingChallenge = errors.New("otp: no pending challenge")

	// ErrNoSecret means no TOTP secret has been provisioned.
	ErrNoSecret = errors.New("otp: no secret provisioned")

	// ErrExpired means the stored code's validity window has passed.
	ErrExpired = errors.New("otp: code expired")
)
