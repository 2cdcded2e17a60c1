package db

import (
	"context"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/sqlc"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
)

// ReplaceRecoveryCodes deletes every code of the identity and inserts codes
// in one transaction. The secret row is locked first so a concurrent
// replace or deprovision waits for this one.
func (s *DB) ReplaceRecoveryCodes(ctx context.Context, identityID string, codes []entity.RecoveryCode) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceRecoveryCodes")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, func(wtx *sqlc.Queries) error {
		if _, err := wtx.LockTwofaIdentitySecret(ctx, identityID); err != nil {
			return err
		}

		if _, err := wtx.DeleteTwofaRecoveryCodesByIdentity(ctx, identityID); err != nil {
			return err
		}

		_, err := wtx.CreateTwofaRecoveryCodes(ctx, toCodeParams(codes))
		return err
	})
	return err
}

// ConsumeRecoveryCode flips one matching unused code to used. It reports
// false when no such code exists, including when a concurrent call won.
func (s *DB) ConsumeRecoveryCode(ctx context.Context, identityID, digest string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeRecoveryCode")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.query.ConsumeTwofaRecoveryCode(ctx, sqlc.ConsumeTwofaRecoveryCodeParams{
		IdentityID: identityID,
		Code:       digest,
		UsedAt:     s.clock.Now(),
	})
	if err != nil {
		return false, s.mapError(err)
	}

	return rows == 1, nil
}

func (s *DB) DeleteIdentity(ctx context.Context, identityID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteIdentity")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.query.DeleteTwofaIdentitySecret(ctx, identityID)
	if err != nil {
		return s.mapError(err)
	}

	if rows == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
