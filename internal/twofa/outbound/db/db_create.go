package db

import (
	"context"

	"github.com/samber/lo"
	"github.com/shandysiswandi/twofa/internal/pkg/sqlc"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
)

func toCodeParams(codes []entity.RecoveryCode) []sqlc.CreateTwofaRecoveryCodesParams {
	return lo.Map(codes, func(c entity.RecoveryCode, _ int) sqlc.CreateTwofaRecoveryCodesParams {
		return sqlc.CreateTwofaRecoveryCodesParams{
			ID:         c.ID,
			IdentityID: c.IdentityID,
			Code:       c.Code,
			CreatedAt:  c.CreatedAt,
		}
	})
}

// CreateIdentity stores the secret and its first recovery batch together.
func (s *DB) CreateIdentity(ctx context.Context, secret entity.IdentitySecret, codes []entity.RecoveryCode) (err error) {
	ctx, span := s.startSpan(ctx, "CreateIdentity")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, func(wtx *sqlc.Queries) error {
		if err := wtx.CreateTwofaIdentitySecret(ctx, sqlc.CreateTwofaIdentitySecretParams{
			IdentityID:    secret.IdentityID,
			Secret:        secret.Secret,
			KeyVersion:    secret.KeyVersion,
			CodeLength:    int16(secret.CodeLength),
			StepDuration:  int32(secret.StepDuration),
			HashAlgorithm: secret.HashAlgorithm.String(),
			CreatedAt:     secret.CreatedAt,
		}); err != nil {
			return err
		}

		if len(codes) == 0 {
			return nil
		}

		_, err := wtx.CreateTwofaRecoveryCodes(ctx, toCodeParams(codes))
		return err
	})
	return err
}

// CreateRecoveryCodes appends codes; a missing identity fails the foreign key.
func (s *DB) CreateRecoveryCodes(ctx context.Context, identityID string, codes []entity.RecoveryCode) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRecoveryCodes")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, func(wtx *sqlc.Queries) error {
		if _, err := wtx.LockTwofaIdentitySecret(ctx, identityID); err != nil {
			return err
		}

		_, err := wtx.CreateTwofaRecoveryCodes(ctx, toCodeParams(codes))
		return err
	})
	return err
}
