package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/mfa"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type IdentityProvisionedEvent struct {
	Identity          entity.IdentitySecret
	RecoveryCodeCount int
	OccurredAt        time.Time
}

type IdentityDeprovisionedEvent struct {
	IdentityID string
	OccurredAt time.Time
}

type RecoveryCodeConsumedEvent struct {
	IdentityID string
	OccurredAt time.Time
}

type RecoveryCodesRegeneratedEvent struct {
	IdentityID        string
	RecoveryCodeCount int
	OccurredAt        time.Time
}

type repoMessaging interface {
	PublishIdentityProvisioned(ctx context.Context, ev IdentityProvisionedEvent) error
	PublishIdentityDeprovisioned(ctx context.Context, ev IdentityDeprovisionedEvent) error
	PublishRecoveryCodeConsumed(ctx context.Context, ev RecoveryCodeConsumedEvent) error
	PublishRecoveryCodesRegenerated(ctx context.Context, ev RecoveryCodesRegeneratedEvent) error
}

// repoDB returns goerror.ErrNotFound for a missing identity and
// goerror.ErrConflict for a duplicate one.
type repoDB interface {
	GetIdentitySecret(ctx context.Context, identityID string) (*entity.IdentitySecret, error)
	CountUnusedRecoveryCodes(ctx context.Context, identityID string) (int, error)

	CreateIdentity(ctx context.Context, secret entity.IdentitySecret, codes []entity.RecoveryCode) error
	CreateRecoveryCodes(ctx context.Context, identityID string, codes []entity.RecoveryCode) error
	ReplaceRecoveryCodes(ctx context.Context, identityID string, codes []entity.RecoveryCode) error
	ConsumeRecoveryCode(ctx context.Context, identityID, digest string) (bool, error)

	DeleteIdentity(ctx context.Context, identityID string) error
}

type locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	locker        locker
	validator     validator.Validator
	defaults      entity.Defaults
	lockTTL       time.Duration
	hmac          hash.Hash
	encryptor     mfa.Encryptor
	recoveryCode  mfa.RecoveryCodeGenerator
	uid           uid.NumberID
	totp          otp.OTP
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	authorizeAttempts metric.Int64Counter
	consumeAttempts   metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Locker        locker
	Validator     validator.Validator
	Defaults      entity.Defaults
	LockTTL       time.Duration
	HMAC          hash.Hash
	Encryptor     mfa.Encryptor
	RecoveryCode  mfa.RecoveryCodeGenerator
	UID           uid.NumberID
	Totp          otp.OTP
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter(instrument.ScopeUsecase)

	authorizeAttempts, err := meter.Int64Counter("twofa.authorize.attempts",
		metric.WithDescription("TOTP authorization attempts by result"))
	if err != nil {
		slog.Error("failed to create authorize counter", "error", err)
	}
	consumeAttempts, err := meter.Int64Counter("twofa.recovery.consume.attempts",
		metric.WithDescription("Recovery code consumption attempts by result"))
	if err != nil {
		slog.Error("failed to create recovery consume counter", "error", err)
	}

	return &Usecase{
		repoDB:            dep.RepoDB,
		repoMessaging:     dep.RepoMessaging,
		locker:            dep.Locker,
		validator:         dep.Validator,
		defaults:          dep.Defaults,
		lockTTL:           dep.LockTTL,
		hmac:              dep.HMAC,
		encryptor:         dep.Encryptor,
		recoveryCode:      dep.RecoveryCode,
		uid:               dep.UID,
		totp:              dep.Totp,
		clock:             dep.Clock,
		ins:               dep.Instrument,
		goroutine:         dep.Goroutine,
		authorizeAttempts: authorizeAttempts,
		consumeAttempts:   consumeAttempts,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer(instrument.ScopeUsecase).Start(ctx, name)
}

// Results recorded on the attempt counters.
const (
	resultAccepted        = "accepted"
	resultRejected        = "rejected"
	resultUnknownIdentity = "unknown_identity"
	resultError           = "error"
)

func (s *Usecase) count(ctx context.Context, c metric.Int64Counter, result string) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func errUnknownIdentity(identityID string) error {
	return goerror.NewBusinessCause(entity.ErrUnknownIdentity,
		fmt.Sprintf("`%s` is not a known identity", identityID), goerror.CodeNotFound)
}

// loadSecret fetches the identity record and decrypts its shared secret.
func (s *Usecase) loadSecret(ctx context.Context, identityID string) (*entity.IdentitySecret, []byte, error) {
	rec, err := s.repoDB.GetIdentitySecret(ctx, identityID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "identity not provisioned", "identity_id", identityID)
		return nil, nil, errUnknownIdentity(identityID)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity secret", "identity_id", identityID, "error", err)
		return nil, nil, goerror.NewServer(err)
	}

	plain, err := s.encryptor.Decrypt(rec.Secret, rec.Scope())
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "identity_id", identityID, "key_version", rec.KeyVersion, "error", err)
		return nil, nil, goerror.NewServer(err)
	}

	return rec, plain, nil
}

// newRecoveryBatch generates count plaintext codes and their stored rows.
func (s *Usecase) newRecoveryBatch(ctx context.Context, identityID string, count int) ([]string, []entity.RecoveryCode, error) {
	plain, err := s.recoveryCode.Generate(count)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate recovery codes", "identity_id", identityID, "error", err)
		return nil, nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	rows := make([]entity.RecoveryCode, 0, len(plain))
	for _, code := range plain {
		digest, err := s.hmac.Hash(code)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash recovery code", "identity_id", identityID, "error", err)
			return nil, nil, goerror.NewServer(err)
		}
		rows = append(rows, entity.RecoveryCode{
			ID:         s.uid.Generate(),
			IdentityID: identityID,
			Code:       string(digest),
			CreatedAt:  now,
		})
	}

	return plain, rows, nil
}

func (s *Usecase) recoveryCount(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.defaults.RecoveryCodeCount
}

// publish hands ev to the goroutine manager so delivery never delays the caller.
func (s *Usecase) publish(ctx context.Context, name string, fn func(ctx context.Context) error) {
	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to publish event", "event", name, "error", err)
		}
		return nil
	})
}
