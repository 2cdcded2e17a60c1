package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
)

type CurrentCodeInput struct {
	IdentityID string `validate:"required,max=128,identity_id"`
}

type CurrentCodeOutput struct {
	Code string
	// ValidUntil is the end of the time step the code belongs to.
	ValidUntil time.Time
}

func (s *Usecase) CurrentCode(ctx context.Context, in CurrentCodeInput) (*CurrentCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "CurrentCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rec, secret, err := s.loadSecret(ctx, in.IdentityID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().Unix()
	code, err := s.totp.GenerateCode(secret, rec.Params(), now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp code", "identity_id", in.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	step := int64(rec.StepDuration)
	return &CurrentCodeOutput{
		Code:       code,
		ValidUntil: time.Unix((now/step+1)*step, 0).UTC(),
	}, nil
}
