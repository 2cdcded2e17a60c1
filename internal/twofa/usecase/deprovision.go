package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
)

type DeprovisionInput struct {
	IdentityID string `validate:"required,max=128,identity_id"`
}

// Deprovision removes the secret; its recovery codes go with it.
func (s *Usecase) Deprovision(ctx context.Context, in DeprovisionInput) error {
	ctx, span := s.startSpan(ctx, "Deprovision")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	err := s.repoDB.DeleteIdentity(ctx, in.IdentityID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "deprovision of unknown identity", "identity_id", in.IdentityID)
		return errUnknownIdentity(in.IdentityID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete identity", "identity_id", in.IdentityID, "error", err)
		return goerror.NewServer(err)
	}

	now := s.clock.Now()
	s.publish(ctx, "identity_deprovisioned", func(ctx context.Context) error {
		return s.repoMessaging.PublishIdentityDeprovisioned(ctx, IdentityDeprovisionedEvent{
			IdentityID: in.IdentityID,
			OccurredAt: now,
		})
	})

	return nil
}
