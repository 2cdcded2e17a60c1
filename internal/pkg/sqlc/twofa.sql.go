package sqlc

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const createTwofaIdentitySecret = `-- name: CreateTwofaIdentitySecret :exec
INSERT INTO twofa_identity_secrets (identity_id, secret, key_version, code_length, step_duration, hash_algorithm, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateTwofaIdentitySecretParams struct {
	IdentityID    string
	Secret        []byte
	KeyVersion    int16
	CodeLength    int16
	StepDuration  int32
	HashAlgorithm string
	CreatedAt     time.Time
}

func (q *Queries) CreateTwofaIdentitySecret(ctx context.Context, arg CreateTwofaIdentitySecretParams) error {
	_, err := q.db.Exec(ctx, createTwofaIdentitySecret,
		arg.IdentityID,
		arg.Secret,
		arg.KeyVersion,
		arg.CodeLength,
		arg.StepDuration,
		arg.HashAlgorithm,
		arg.CreatedAt,
	)
	return err
}

const getTwofaIdentitySecret = `-- name: GetTwofaIdentitySecret :one
SELECT identity_id, secret, key_version, code_length, step_duration, hash_algorithm, created_at
FROM twofa_identity_secrets
WHERE identity_id = $1
`

func (q *Queries) GetTwofaIdentitySecret(ctx context.Context, identityID string) (TwofaIdentitySecret, error) {
	row := q.db.QueryRow(ctx, getTwofaIdentitySecret, identityID)
	var i TwofaIdentitySecret
	err := row.Scan(
		&i.IdentityID,
		&i.Secret,
		&i.KeyVersion,
		&i.CodeLength,
		&i.StepDuration,
		&i.HashAlgorithm,
		&i.CreatedAt,
	)
	return i, err
}

const lockTwofaIdentitySecret = `-- name: LockTwofaIdentitySecret :one
SELECT identity_id FROM twofa_identity_secrets WHERE identity_id = $1 FOR UPDATE
`

func (q *Queries) LockTwofaIdentitySecret(ctx context.Context, identityID string) (string, error) {
	row := q.db.QueryRow(ctx, lockTwofaIdentitySecret, identityID)
	var identity_id string
	err := row.Scan(&identity_id)
	return identity_id, err
}

const deleteTwofaIdentitySecret = `-- name: DeleteTwofaIdentitySecret :execrows
DELETE FROM twofa_identity_secrets WHERE identity_id = $1
`

func (q *Queries) DeleteTwofaIdentitySecret(ctx context.Context, identityID string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTwofaIdentitySecret, identityID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type CreateTwofaRecoveryCodesParams struct {
	ID         int64
	IdentityID string
	Code       string
	CreatedAt  time.Time
}

// CreateTwofaRecoveryCodes bulk inserts with COPY.
func (q *Queries) CreateTwofaRecoveryCodes(ctx context.Context, arg []CreateTwofaRecoveryCodesParams) (int64, error) {
	return q.db.CopyFrom(ctx,
		pgx.Identifier{"twofa_recovery_codes"},
		[]string{"id", "identity_id", "code", "created_at"},
		pgx.CopyFromSlice(len(arg), func(i int) ([]any, error) {
			return []any{arg[i].ID, arg[i].IdentityID, arg[i].Code, arg[i].CreatedAt}, nil
		}),
	)
}

const deleteTwofaRecoveryCodesByIdentity = `-- name: DeleteTwofaRecoveryCodesByIdentity :execrows
DELETE FROM twofa_recovery_codes WHERE identity_id = $1
`

func (q *Queries) DeleteTwofaRecoveryCodesByIdentity(ctx context.Context, identityID string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteTwofaRecoveryCodesByIdentity, identityID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const consumeTwofaRecoveryCode = `-- name: ConsumeTwofaRecoveryCode :execrows
UPDATE twofa_recovery_codes
SET used = TRUE, used_at = $3
WHERE id = (
    SELECT id FROM twofa_recovery_codes
    WHERE identity_id = $1 AND code = $2 AND used = FALSE
    LIMIT 1
    FOR UPDATE
) AND used = FALSE
`

type ConsumeTwofaRecoveryCodeParams struct {
	IdentityID string
	Code       string
	UsedAt     time.Time
}

func (q *Queries) ConsumeTwofaRecoveryCode(ctx context.Context, arg ConsumeTwofaRecoveryCodeParams) (int64, error) {
	result, err := q.db.Exec(ctx, consumeTwofaRecoveryCode, arg.IdentityID, arg.Code, arg.UsedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const countUnusedTwofaRecoveryCodes = `-- name: CountUnusedTwofaRecoveryCodes :one
SELECT COUNT(c.id) FILTER (WHERE c.used = FALSE)
FROM twofa_identity_secrets s
LEFT JOIN twofa_recovery_codes c ON c.identity_id = s.identity_id
WHERE s.identity_id = $1
GROUP BY s.identity_id
`

func (q *Queries) CountUnusedTwofaRecoveryCodes(ctx context.Context, identityID string) (int64, error) {
	row := q.db.QueryRow(ctx, countUnusedTwofaRecoveryCodes, identityID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
