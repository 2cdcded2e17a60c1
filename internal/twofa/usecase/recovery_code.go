package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/lock"
	"github.com/shandysiswandi/twofa/internal/pkg/mfa"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
)

type IssueCodesInput struct {
	IdentityID string `validate:"required,max=128,identity_id"`
	Count      int    `validate:"omitempty,min=1,max=100"`
}

type RegenerateRecoveryCodesInput struct {
	IdentityID string `validate:"required,max=128,identity_id"`
	Count      int    `validate:"omitempty,min=1,max=100"`
}

type RecoveryCodesOutput struct {
	RecoveryCodes []string
}

type ConsumeRecoveryCodeInput struct {
	IdentityID string `validate:"required,max=128,identity_id"`
	Code       string `validate:"required,max=64"`
}

type RecoveryCodesRemainingInput struct {
	IdentityID string `validate:"required,max=128,identity_id"`
}

type RecoveryCodesRemainingOutput struct {
	Remaining int
}

// IssueCodes adds a batch of codes next to the existing ones.
func (s *Usecase) IssueCodes(ctx context.Context, in IssueCodesInput) (*RecoveryCodesOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueCodes")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	codes, rows, err := s.newRecoveryBatch(ctx, in.IdentityID, s.recoveryCount(in.Count))
	if err != nil {
		return nil, err
	}

	err = s.repoDB.CreateRecoveryCodes(ctx, in.IdentityID, rows)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "recovery codes for unknown identity", "identity_id", in.IdentityID)
		return nil, errUnknownIdentity(in.IdentityID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create recovery codes", "identity_id", in.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RecoveryCodesOutput{RecoveryCodes: codes}, nil
}

// ConsumeRecoveryCode marks a matching unused code as used. A wrong code, a
// code owned by another identity and a reused code fail the same way.
func (s *Usecase) ConsumeRecoveryCode(ctx context.Context, in ConsumeRecoveryCodeInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeRecoveryCode")
	defer span.End()

	in.Code = mfa.NormalizeRecoveryCode(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	digest, err := s.hmac.Hash(in.Code)
	if err != nil {
		s.count(ctx, s.consumeAttempts, resultError)
		slog.ErrorContext(ctx, "failed to hash recovery code", "identity_id", in.IdentityID, "error", err)
		return goerror.NewServer(err)
	}

	ok, err := s.repoDB.ConsumeRecoveryCode(ctx, in.IdentityID, string(digest))
	if err != nil {
		s.count(ctx, s.consumeAttempts, resultError)
		slog.ErrorContext(ctx, "failed to repo consume recovery code", "identity_id", in.IdentityID, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		s.count(ctx, s.consumeAttempts, resultRejected)
		slog.WarnContext(ctx, "recovery code rejected", "identity_id", in.IdentityID)
		return goerror.NewBusinessCause(entity.ErrRecoveryCodeConsumption,
			"The recovery code supplied is not valid for this identity", goerror.CodeUnauthorized)
	}

	s.count(ctx, s.consumeAttempts, resultAccepted)

	now := s.clock.Now()
	s.publish(ctx, "recovery_code_consumed", func(ctx context.Context) error {
		return s.repoMessaging.PublishRecoveryCodeConsumed(ctx, RecoveryCodeConsumedEvent{
			IdentityID: in.IdentityID,
			OccurredAt: now,
		})
	})

	return nil
}

// RegenerateRecoveryCodes swaps the whole batch atomically. Concurrent calls
// for one identity are serialized; the loser gets a conflict.
func (s *Usecase) RegenerateRecoveryCodes(ctx context.Context, in RegenerateRecoveryCodesInput) (*RecoveryCodesOutput, error) {
	ctx, span := s.startSpan(ctx, "RegenerateRecoveryCodes")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var (
		out    *RecoveryCodesOutput
		errUse error
	)
	err := s.locker.WithLock(ctx, "twofa:regenerate:"+in.IdentityID, s.lockTTL, func(ctx context.Context) error {
		out, errUse = s.regenerate(ctx, in)
		return errUse
	})
	if errUse != nil {
		return nil, errUse
	}
	switch {
	case err == nil:
	case out != nil:
		// The new batch is committed; the lease expires on its own.
		slog.WarnContext(ctx, "failed to release recovery code regeneration lock", "identity_id", in.IdentityID, "error", err)
	case errors.Is(err, lock.ErrNotAcquired):
		slog.WarnContext(ctx, "recovery code regeneration already running", "identity_id", in.IdentityID)
		return nil, goerror.NewBusinessCause(entity.ErrRegenerationInProgress,
			"recovery code regeneration already in progress", goerror.CodeConflict)
	default:
		slog.ErrorContext(ctx, "failed to acquire recovery code regeneration lock", "identity_id", in.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	s.publish(ctx, "recovery_codes_regenerated", func(ctx context.Context) error {
		return s.repoMessaging.PublishRecoveryCodesRegenerated(ctx, RecoveryCodesRegeneratedEvent{
			IdentityID:        in.IdentityID,
			RecoveryCodeCount: len(out.RecoveryCodes),
			OccurredAt:        now,
		})
	})

	return out, nil
}

func (s *Usecase) regenerate(ctx context.Context, in RegenerateRecoveryCodesInput) (*RecoveryCodesOutput, error) {
	codes, rows, err := s.newRecoveryBatch(ctx, in.IdentityID, s.recoveryCount(in.Count))
	if err != nil {
		return nil, err
	}

	err = s.repoDB.ReplaceRecoveryCodes(ctx, in.IdentityID, rows)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "regenerate for unknown identity", "identity_id", in.IdentityID)
		return nil, errUnknownIdentity(in.IdentityID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo replace recovery codes", "identity_id", in.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RecoveryCodesOutput{RecoveryCodes: codes}, nil
}

// RecoveryCodesRemaining counts the unused codes of an identity.
func (s *Usecase) RecoveryCodesRemaining(ctx context.Context, in RecoveryCodesRemainingInput) (*RecoveryCodesRemainingOutput, error) {
	ctx, span := s.startSpan(ctx, "RecoveryCodesRemaining")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	n, err := s.repoDB.CountUnusedRecoveryCodes(ctx, in.IdentityID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errUnknownIdentity(in.IdentityID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count recovery codes", "identity_id", in.IdentityID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RecoveryCodesRemainingOutput{Remaining: n}, nil
}
