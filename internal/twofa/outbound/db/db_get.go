package db

import (
	"context"

	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
)

func (s *DB) GetIdentitySecret(ctx context.Context, identityID string) (_ *entity.IdentitySecret, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentitySecret")
	defer func() { s.endSpan(span, err) }()

	result, err := s.query.GetTwofaIdentitySecret(ctx, identityID)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &entity.IdentitySecret{
		IdentityID:    result.IdentityID,
		Secret:        result.Secret,
		KeyVersion:    result.KeyVersion,
		CodeLength:    int(result.CodeLength),
		StepDuration:  uint(result.StepDuration),
		HashAlgorithm: otp.Algorithm(result.HashAlgorithm),
		CreatedAt:     result.CreatedAt,
	}, nil
}

// CountUnusedRecoveryCodes returns goerror.ErrNotFound when the identity has
// no secret, so zero always means a provisioned identity without codes left.
func (s *DB) CountUnusedRecoveryCodes(ctx context.Context, identityID string) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "CountUnusedRecoveryCodes")
	defer func() { s.endSpan(span, err) }()

	count, err := s.query.CountUnusedTwofaRecoveryCodes(ctx, identityID)
	if err != nil {
		return 0, s.mapError(err)
	}

	return int(count), nil
}
