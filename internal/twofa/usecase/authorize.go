package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
)

type AuthorizeInput struct {
	IdentityID string `validate:"required,max=128,identity_id"`
	Code       string `validate:"required,max=16"`
	// WindowRadius overrides the default radius when set; zero is allowed.
	WindowRadius *uint `validate:"omitempty,max=10"`
}

// Authorize returns nil when Code matches a step in the verification window.
func (s *Usecase) Authorize(ctx context.Context, in AuthorizeInput) error {
	ctx, span := s.startSpan(ctx, "Authorize")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	rec, secret, err := s.loadSecret(ctx, in.IdentityID)
	if err != nil {
		if goerror.IsServer(err) {
			s.count(ctx, s.authorizeAttempts, resultError)
		} else {
			s.count(ctx, s.authorizeAttempts, resultUnknownIdentity)
		}
		return err
	}

	radius := s.defaults.WindowRadius
	if in.WindowRadius != nil {
		radius = *in.WindowRadius
	}

	ok, err := s.totp.Verify(secret, rec.Params(), in.Code, s.clock.Now().Unix(), radius)
	if err != nil {
		s.count(ctx, s.authorizeAttempts, resultError)
		slog.ErrorContext(ctx, "failed to verify totp code", "identity_id", in.IdentityID, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		s.count(ctx, s.authorizeAttempts, resultRejected)
		slog.WarnContext(ctx, "totp code rejected", "identity_id", in.IdentityID, "window_radius", radius)
		return goerror.NewBusinessCause(entity.ErrInvalidCode, "Invalid code was given.", goerror.CodeUnauthorized)
	}

	s.count(ctx, s.authorizeAttempts, resultAccepted)
	return nil
}
