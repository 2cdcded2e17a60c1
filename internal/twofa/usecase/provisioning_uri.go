package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
)

type ProvisioningURIInput struct {
	IdentityID  string `validate:"required,max=128,identity_id"`
	DisplayName string `validate:"required,max=256"`
	// Issuer falls back to the configured issuer when empty.
	Issuer string `validate:"max=256"`
}

type ProvisioningURIOutput struct {
	URI string
}

// ProvisioningURI returns (nil, nil) when the identity is not provisioned.
func (s *Usecase) ProvisioningURI(ctx context.Context, in ProvisioningURIInput) (*ProvisioningURIOutput, error) {
	ctx, span := s.startSpan(ctx, "ProvisioningURI")
	defer span.End()

	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Issuer = strings.TrimSpace(in.Issuer)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rec, secret, err := s.loadSecret(ctx, in.IdentityID)
	if errors.Is(err, entity.ErrUnknownIdentity) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	issuer := in.Issuer
	if issuer == "" {
		issuer = s.defaults.Issuer
	}

	return &ProvisioningURIOutput{
		URI: s.totp.URI(secret, rec.Params(), in.DisplayName, issuer),
	}, nil
}
