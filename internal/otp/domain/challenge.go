package domain

// MaxChallengeAttempts caps failed submissions per challenge session before
// the session is destroyed and the host flow must restart authentication.
const MaxChallengeAttempts = 5

// ChallengeSession is one pending second-factor challenge. Its ID is the
// opaque token the host authentication flow holds between issuing the
// challenge and the user submitting a code.
type ChallengeSession struct {
	ID          string // ULID (the challenge token)
	PrincipalID string
	ClientID    string // requesting client context, used only to personalize the message
	Attempts    int    // failed submissions so far
	CreatedAt   string // RFC3339
	ExpiresAt   string // RFC3339
}

// BeginStatus classifies the outcome of entering the OTP step.
type BeginStatus string

const (
	// BeginPassed means the principal is not enrolled for OTP and the step
	// completes immediately with no challenge issued.
	BeginPassed BeginStatus = "passed"
	// BeginChallenged means a code was delivered and a session awaits input.
	BeginChallenged BeginStatus = "challenged"
	// BeginFailed means delivery failed; the user must restart the flow.
	BeginFailed BeginStatus = "failed"
)

// BeginResult is returned from challenge entry.
type BeginResult struct {
	Status      BeginStatus
	ChallengeID string // set only when Status == BeginChallenged
}

// SubmitStatus classifies the outcome of a code submission or resend.
type SubmitStatus string

const (
	// SubmitVerified is terminal success; the session has been consumed.
	SubmitVerified SubmitStatus = "verified"
	// SubmitRetry means the code was rejected but the session is still
	// live and the user may try again.
	SubmitRetry SubmitStatus = "retry"
	// SubmitFatal means the session is gone (unknown, expired, or attempts
	// exhausted); the host flow must restart authentication.
	SubmitFatal SubmitStatus = "fatal"
	// SubmitResent acknowledges a successful resend.
	SubmitResent SubmitStatus = "resent"
)

// RetryReason distinguishes the two user-facing rejection messages. All
// credential failures except expiry collapse into ReasonInvalidCode so the
// response doesn't leak whether a challenge or secret exists at all.
type RetryReason string

const (
	ReasonInvalidCode RetryReason = "invalid_code"
	ReasonCodeExpired RetryReason = "code_expired"
)

// SubmitResult is returned from code submission and resend.
type SubmitResult struct {
	Status      SubmitStatus
	Reason      RetryReason // set only when Status == SubmitRetry
	StepUpToken string      // signed assertion, set only when Status == SubmitVerified
}
