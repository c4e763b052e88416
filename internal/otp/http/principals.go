package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

// PrincipalsHandler handles principal provisioning.
type PrincipalsHandler struct {
	PrincipalService *service.PrincipalService
}

// HandleCreate handles POST /v1/principals
//
//	@Summary		Register a principal
//	@Description	Registers a principal the host flow can later challenge. Principals
//	@Description	without a delivery address pass through the OTP step.
//	@Tags			Principals
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.CreatePrincipalRequest	true	"Principal details"
//	@Success		201		{object}	otpsdk.CreatePrincipalResponse	"Assigned principal ID"
//	@Failure		400		{object}	otpsdk.ErrorResponse			"Malformed request"
//	@Failure		409		{object}	otpsdk.ErrorResponse			"Username already taken"
//	@Failure		500		{object}	otpsdk.ErrorResponse			"Internal server error"
//	@Router			/v1/principals [post].
func (h *PrincipalsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req otpsdk.CreatePrincipalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		otpsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	p, err := h.PrincipalService.Register(ctx, req.Username, req.DeliveryAddress)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			otpsdk.ErrPrincipalExists.WriteError(w)
			return
		}
		log.Error("failed to register principal", "username", req.Username, "err", err)
		otpsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, otpsdk.CreatePrincipalResponse{
		ID:       p.ID,
		Username: p.Username,
	})
}
