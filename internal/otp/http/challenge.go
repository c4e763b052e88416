package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/otpgate/internal/otp/delivery"
	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

// ChallengeHandler handles the challenge lifecycle endpoints.
type ChallengeHandler struct {
	ChallengeService *service.ChallengeService
}

// HandleBegin handles POST /v1/challenge
//
//	@Summary		Begin an OTP challenge
//	@Description	Starts the OTP step for a principal. Enrolled principals get a code
//	@Description	delivered and a challenge ID back; unenrolled principals pass through.
//	@Tags			Challenges
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.BeginChallengeRequest	true	"Principal to challenge"
//	@Success		200		{object}	otpsdk.BeginChallengeResponse	"passed or challenged"
//	@Failure		400		{object}	otpsdk.ErrorResponse			"Malformed request"
//	@Failure		404		{object}	otpsdk.ErrorResponse			"Unknown principal"
//	@Failure		502		{object}	otpsdk.ErrorResponse			"Code delivery failed"
//	@Failure		500		{object}	otpsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/challenge [post].
func (h *ChallengeHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.BeginChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PrincipalID == "" {
		otpsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.ChallengeService.Begin(ctx, req.PrincipalID, req.ClientID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			otpsdk.ErrPrincipalNotFound.WriteError(w)
		case delivery.IsError(err):
			otpsdk.ErrDeliveryFailed.WriteError(w)
		default:
			log.Error("failed to begin challenge", "principal_id", req.PrincipalID, "err", err)
			otpsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, otpsdk.BeginChallengeResponse{
		Status:      string(result.Status),
		ChallengeID: result.ChallengeID,
	})
}

// HandleSubmit handles POST /v1/challenge/{id}
//
//	@Summary		Submit a code or request a resend
//	@Description	Validates a submitted one-time code against an open challenge, or with
//	@Description	{"resend": true} delivers a fresh code. On success the response carries
//	@Description	a signed step-up assertion for the host flow.
//	@Tags			Challenges
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Challenge ID"
//	@Param			request	body		otpsdk.SubmitCodeRequest	true	"Code or resend flag"
//	@Success		200		{object}	otpsdk.SubmitCodeResponse	"verified or resent"
//	@Failure		400		{object}	otpsdk.ErrorResponse		"Invalid or expired code"
//	@Failure		410		{object}	otpsdk.ErrorResponse		"Challenge no longer open"
//	@Failure		502		{object}	otpsdk.ErrorResponse		"Code delivery failed"
//	@Failure		500		{object}	otpsdk.ErrorResponse		"Internal server error"
//	@Router			/v1/challenge/{id} [post].
func (h *ChallengeHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	challengeID := r.PathValue("id")
	if challengeID == "" {
		otpsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	var req otpsdk.SubmitCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		otpsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if req.Resend {
		h.handleResend(w, r, challengeID)
		return
	}
	if req.OTP == "" {
		otpsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.ChallengeService.Submit(ctx, challengeID, req.OTP)
	if err != nil {
		log.Error("failed to process submission", "challenge_id", challengeID, "err", err)
		otpsdk.ErrServerError.WriteError(w)
		return
	}

	switch result.Status {
	case domain.SubmitVerified:
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, otpsdk.SubmitCodeResponse{
			Status:      string(result.Status),
			StepUpToken: result.StepUpToken,
		})
	case domain.SubmitRetry:
		if result.Reason == domain.ReasonCodeExpired {
			otpsdk.ErrCodeExpired.WriteError(w)
			return
		}
		otpsdk.ErrInvalidCode.WriteError(w)
	default:
		otpsdk.ErrChallengeGone.WriteError(w)
	}
}

func (h *ChallengeHandler) handleResend(w http.ResponseWriter, r *http.Request, challengeID string) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	result, err := h.ChallengeService.Resend(ctx, challengeID)
	if err != nil {
		if delivery.IsError(err) {
			otpsdk.ErrDeliveryFailed.WriteError(w)
			return
		}
		log.Error("failed to resend code", "challenge_id", challengeID, "err", err)
		otpsdk.ErrServerError.WriteError(w)
		return
	}

	if result.Status != domain.SubmitResent {
		otpsdk.ErrChallengeGone.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, otpsdk.SubmitCodeResponse{
		Status: string(result.Status),
	})
}
