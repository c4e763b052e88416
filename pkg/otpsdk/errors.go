package otpsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/otpgate/pkg/httpx"
)

// Error codes used in the error envelope. The validation taxonomy is
// deliberately narrow: every credential failure except expiry surfaces as
// "invalid_code" so a caller cannot probe whether a challenge or secret
// exists.
const (
	ErrorCodeInvalidRequest   = "invalid_request"
	ErrorCodeInvalidCode      = "invalid_code"
	ErrorCodeCodeExpired      = "code_expired"
	ErrorCodeChallengeGone    = "challenge_gone"
	ErrorCodeDeliveryFailed   = "delivery_failed"
	ErrorCodeAlreadyExists    = "already_exists"
	ErrorCodeNotFound         = "not_found"
	ErrorCodeServerError      = "server_error"
	ErrorCodeMethodNotAllowed = "method_not_allowed"
)

// APIError represents an error response from the service. It implements the
// error interface and is used both by the server to write responses and by
// the SDK client to represent failures.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidRequest is returned when the request body is malformed or
	// missing required parameters.
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidCode is the generic rejection for a submitted code. It covers
	// mismatches, malformed codes, missing challenges and unprovisioned
	// secrets alike.
	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidCode,
		Description: "the submitted code is not valid",
	}

	// ErrCodeExpired is returned when the submitted code's validity window
	// has passed. The challenge remains open; the caller should resend.
	ErrCodeExpired = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeCodeExpired,
		Description: "the code has expired, request a new one",
	}

	// ErrChallengeGone is returned when the referenced challenge does not
	// exist, has expired, or has exhausted its attempts. The host flow must
	// restart authentication.
	ErrChallengeGone = &APIError{
		StatusCode:  http.StatusGone,
		Code:        ErrorCodeChallengeGone,
		Description: "the challenge is no longer open",
	}

	// ErrDeliveryFailed is returned when the code could not be delivered.
	// Distinct from validation failures: the user never saw a code.
	ErrDeliveryFailed = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeDeliveryFailed,
		Description: "the one-time code could not be delivered",
	}

	// ErrPrincipalExists is returned when registering a username that is
	// already taken.
	ErrPrincipalExists = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeAlreadyExists,
		Description: "a principal with this username already exists",
	}

	// ErrPrincipalNotFound is returned when the referenced principal does
	// not exist.
	ErrPrincipalNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "principal not found",
	}

	// ErrServerError is returned on unexpected internal failures.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx HTTP response into a typed *APIError.
// Returns nil for success responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
