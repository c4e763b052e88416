package otpsdk

// Challenge statuses reported by the service. Begin responses use Passed,
// Challenged and Failed; submission responses use Verified, Retry, Resent
// and Fatal.
const (
	StatusPassed     = "passed"
	StatusChallenged = "challenged"
	StatusFailed     = "failed"
	StatusVerified   = "verified"
	StatusRetry      = "retry"
	StatusResent     = "resent"
	StatusFatal      = "fatal"
)

// BeginChallengeRequest starts the OTP step for a principal. ClientID is a
// display name folded into the delivered message; it may be empty.
type BeginChallengeRequest struct {
	PrincipalID string `json:"principal_id"`
	ClientID    string `json:"client_id,omitempty"`
}

// BeginChallengeResponse reports whether a challenge was issued. When the
// principal has no delivery address the status is "passed" and ChallengeID
// is empty: the host flow should treat the factor as satisfied-by-absence.
type BeginChallengeResponse struct {
	Status      string `json:"status"`
	ChallengeID string `json:"challenge_id,omitempty"`
}

// SubmitCodeRequest carries either a submitted code or a resend request
// against an open challenge. Exactly one of OTP / Resend should be set.
type SubmitCodeRequest struct {
	OTP    string `json:"otp,omitempty"`
	Resend bool   `json:"resend,omitempty"`
}

// SubmitCodeResponse reports the outcome of a submission or resend. On
// "verified" the StepUpToken is a signed assertion the host flow can verify
// against the shared assertion secret.
type SubmitCodeResponse struct {
	Status      string `json:"status"`
	StepUpToken string `json:"step_up_token,omitempty"`
}

// CreatePrincipalRequest registers a principal so the host flow can later
// challenge them. DeliveryAddress is gateway-specific: a Telegram chat ID or
// a phone number for the relay gateway. Leave it empty for principals that
// should pass through the OTP step.
type CreatePrincipalRequest struct {
	Username        string `json:"username"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
}

// CreatePrincipalResponse returns the assigned principal ID.
type CreatePrincipalResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// HealthResponse is returned by the livez and readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
}

// ErrorResponse is the standard error envelope. Used internally when parsing
// HTTP error responses; client code should work with APIError instead.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
