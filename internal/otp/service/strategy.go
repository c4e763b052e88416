package service

import (
	"context"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

// Issue is a code ready for delivery. Persist, when non-nil, commits the
// state verification will need and runs only after delivery succeeded, so a
// failed send never invalidates a still-valid earlier code.
type Issue struct {
	Code    string
	Persist func(ctx context.Context) error
}

// Strategy is one of the two interchangeable code generation/validation
// schemes, selected once at startup. Implementations must reject anything
// that is not exactly six ASCII digits before comparing.
type Strategy interface {
	// Prepare produces the code to deliver for a challenge entry or resend.
	Prepare(ctx context.Context, p domain.Principal) (Issue, error)

	// Verify checks a submitted code for the principal. A nil return is
	// acceptance; rejections return one of the domain validation sentinels
	// and are side-effect-free.
	Verify(ctx context.Context, principalID, submitted string) error
}
