package domain

// Principal is a user identity as this service sees it. A Principal with no
// DeliveryAddress never enters the OTP challenge; the step is a pass-through.
type Principal struct {
	ID              string // ULID
	Username        string
	DeliveryAddress string // opaque channel identifier (e.g. a chat id); empty = not enrolled

	// TOTPSecret is the Base32-encoded shared secret for the TOTP strategy.
	// It is encrypted at rest by the store driver; this field always holds
	// the plaintext form. Once provisioned it is never regenerated while
	// present, since regeneration silently invalidates all issued codes.
	TOTPSecret string

	// PendingCodeHash and PendingIssuedAt form the transient state of the
	// random-code strategy. They are always written and cleared together.
	// IssuedAt is epoch seconds kept in its stored string form; anything
	// that fails to parse is treated as an invalid challenge, never a crash.
	PendingCodeHash string
	PendingIssuedAt string
}

// HasPendingCode reports whether a random-strategy challenge is live.
func (p Principal) HasPendingCode() bool {
	return p.PendingCodeHash != "" && p.PendingIssuedAt != ""
}
