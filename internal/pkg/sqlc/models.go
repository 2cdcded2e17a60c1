package sqlc

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type TwofaIdentitySecret struct {
	IdentityID    string
	Secret        []byte
	KeyVersion    int16
	CodeLength    int16
	StepDuration  int32
	HashAlgorithm string
	CreatedAt     time.Time
}

type TwofaRecoveryCode struct {
	ID         int64
	IdentityID string
	Code       string
	Used       bool
	UsedAt     pgtype.Timestamptz
	CreatedAt  time.Time
}
