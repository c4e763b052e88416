package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/idx"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

// PrincipalService registers the principals the host flow may challenge.
// Account management proper lives with the host; this is the minimal
// provisioning surface it drives.
type PrincipalService struct {
	Store store.Store
}

// Register creates a principal. An empty delivery address is allowed and
// makes the principal pass through the OTP step.
func (s *PrincipalService) Register(ctx context.Context, username, deliveryAddress string) (domain.Principal, error) {
	log := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Principal{}, fmt.Errorf("username is required")
	}

	p := domain.Principal{
		ID:              idx.New().String(),
		Username:        username,
		DeliveryAddress: strings.TrimSpace(deliveryAddress),
	}
	if err := s.Store.Principals().CreatePrincipal(ctx, p); err != nil {
		return domain.Principal{}, err
	}

	log.Info("principal registered", "principal_id", p.ID, "enrolled", p.DeliveryAddress != "")
	return p, nil
}
