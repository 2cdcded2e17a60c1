package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
)

// ProvisionInput binds a new secret to IdentityID. Zero values select the
// module defaults.
type ProvisionInput struct {
	IdentityID        string `validate:"required,max=128,identity_id"`
	CodeLength        int
	StepDuration      uint `validate:"omitempty,max=3600"`
	HashAlgorithm     string
	RecoveryCodeCount int `validate:"omitempty,min=1,max=100"`
}

// ProvisionOutput carries the stored record plus the values shown to the user
// exactly once: the plaintext secret and the recovery codes.
type ProvisionOutput struct {
	Identity      entity.IdentitySecret
	Secret        []byte
	URI           string
	RecoveryCodes []string
}

func (s *Usecase) Provision(ctx context.Context, in ProvisionInput) (*ProvisionOutput, error) {
	ctx, span := s.startSpan(ctx, "Provision")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	params, err := s.provisionParams(in)
	if err != nil {
		slog.WarnContext(ctx, "rejected provisioning parameters", "identity_id", in.IdentityID, "error", err)
		return nil, err
	}

	_, err = s.repoDB.GetIdentitySecret(ctx, in.IdentityID)
	if err == nil {
		slog.WarnContext(ctx, "identity already provisioned", "identity_id", in.IdentityID)
		return nil, errAlreadyProvisioned(in.IdentityID)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get identity secret", "identity_id", in.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "identity_id", in.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	rec := entity.IdentitySecret{
		IdentityID:    in.IdentityID,
		KeyVersion:    entity.CurrentKeyVersion,
		CodeLength:    params.Digits,
		StepDuration:  params.Period,
		HashAlgorithm: params.Algorithm,
		CreatedAt:     s.clock.Now(),
	}

	rec.Secret, err = s.encryptor.Encrypt(secret, rec.Scope())
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "identity_id", in.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codes, rows, err := s.newRecoveryBatch(ctx, in.IdentityID, s.recoveryCount(in.RecoveryCodeCount))
	if err != nil {
		return nil, err
	}

	err = s.repoDB.CreateIdentity(ctx, rec, rows)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "identity provisioned concurrently", "identity_id", in.IdentityID)
		return nil, errAlreadyProvisioned(in.IdentityID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create identity", "identity_id", in.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publish(ctx, "identity_provisioned", func(ctx context.Context) error {
		return s.repoMessaging.PublishIdentityProvisioned(ctx, IdentityProvisionedEvent{
			Identity:          rec,
			RecoveryCodeCount: len(codes),
			OccurredAt:        rec.CreatedAt,
		})
	})

	return &ProvisionOutput{
		Identity:      rec,
		Secret:        secret,
		URI:           s.totp.URI(secret, params, in.IdentityID, s.defaults.Issuer),
		RecoveryCodes: codes,
	}, nil
}

// provisionParams applies defaults and checks the engine parameters. Both
// failure kinds are creation failures as well as invalid parameters.
func (s *Usecase) provisionParams(in ProvisionInput) (otp.Params, error) {
	p := otp.Params{
		Digits:    s.defaults.CodeLength,
		Algorithm: s.defaults.HashAlgorithm,
		Period:    s.defaults.StepDuration,
	}
	if in.CodeLength != 0 {
		p.Digits = in.CodeLength
	}
	if in.StepDuration != 0 {
		p.Period = in.StepDuration
	}

	if !otp.ValidDigits(p.Digits) {
		return otp.Params{}, errInvalidParameter(fmt.Sprintf("`%d` is not a valid code length", p.Digits))
	}

	if in.HashAlgorithm != "" {
		alg, err := otp.ParseAlgorithm(in.HashAlgorithm)
		if err != nil {
			return otp.Params{}, errInvalidParameter(fmt.Sprintf("`%s` is not a valid hash algorithm", in.HashAlgorithm))
		}
		p.Algorithm = alg
	}

	if err := p.Validate(); err != nil {
		return otp.Params{}, errInvalidParameter(err.Error())
	}

	return p, nil
}

func errInvalidParameter(msg string) error {
	return goerror.NewBusinessCause(
		fmt.Errorf("%w: %w", entity.ErrUserCreation, entity.ErrInvalidParameter),
		msg, goerror.CodeInvalidInput)
}

func errAlreadyProvisioned(identityID string) error {
	return goerror.NewBusinessCause(entity.ErrUserCreation,
		fmt.Sprintf("identity `%s` already provisioned", identityID), goerror.CodeConflict)
}
