package twofa

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/lock"
	"github.com/shandysiswandi/twofa/internal/pkg/messaging"
	"github.com/shandysiswandi/twofa/internal/pkg/mfa"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
	"github.com/shandysiswandi/twofa/internal/twofa/inbound"
	"github.com/shandysiswandi/twofa/internal/twofa/outbound/db"
	"github.com/shandysiswandi/twofa/internal/twofa/outbound/mq"
	"github.com/shandysiswandi/twofa/internal/twofa/usecase"
)

const defaultLockTTL = 30 * time.Second

type Dependency struct {
	DBConn          *pgxpool.Pool              `validate:"required"`
	Locker          lock.Locker                `validate:"required"`
	Goroutine       *goroutine.Manager         `validate:"required"`
	Router          *router.Router             `validate:"required"`
	Messaging       messaging.Publisher        `validate:"required"`
	Config          config.Config              `validate:"required"`
	Instrument      instrument.Instrumentation `validate:"required"`
	UID             uid.NumberID               `validate:"required"`
	HMAC            hash.Hash                  `validate:"required"`
	MFAEncryptor    mfa.Encryptor              `validate:"required"`
	MFARecoveryCode mfa.RecoveryCodeGenerator  `validate:"required"`
	Clock           clock.Clocker              `validate:"required"`
	Totp            otp.OTP                    `validate:"required"`
	Validator       validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	defaults, err := Defaults(dep.Config)
	if err != nil {
		return err
	}

	lockTTL := dep.Config.GetSecond("modules.twofa.lock_ttl_seconds")
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	repoDB := db.NewDB(dep.DBConn, dep.Clock, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: repoMsg,
		Locker:        dep.Locker,
		Validator:     dep.Validator,
		Defaults:      defaults,
		LockTTL:       lockTTL,
		HMAC:          dep.HMAC,
		Encryptor:     dep.MFAEncryptor,
		RecoveryCode:  dep.MFARecoveryCode,
		UID:           dep.UID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

// Defaults reads modules.twofa.* once and fills what is missing with the
// built-in values. Unsupported values fail startup instead of every call.
func Defaults(cfg config.Config) (entity.Defaults, error) {
	d := entity.Defaults{
		CodeLength:        cfg.GetInt("modules.twofa.code_length"),
		StepDuration:      cfg.GetUint("modules.twofa.step_duration_seconds"),
		WindowRadius:      cfg.GetUint("modules.twofa.window_radius"),
		RecoveryCodeCount: cfg.GetInt("modules.twofa.recovery_code_count"),
		Issuer:            strings.TrimSpace(cfg.GetString("modules.twofa.issuer")),
	}

	if v := cfg.GetString("modules.twofa.hash_algorithm"); strings.TrimSpace(v) != "" {
		alg, err := otp.ParseAlgorithm(v)
		if err != nil {
			return entity.Defaults{}, fmt.Errorf("modules.twofa.hash_algorithm: %w", err)
		}
		d.HashAlgorithm = alg
	}

	d = d.Resolve(strings.TrimSpace(cfg.GetString("modules.twofa.window_radius")) == "")

	if !otp.ValidDigits(d.CodeLength) {
		return entity.Defaults{}, fmt.Errorf("modules.twofa.code_length: %d is not supported", d.CodeLength)
	}
	if d.RecoveryCodeCount < 1 || d.RecoveryCodeCount > mfa.MaxRecoveryCodeCount {
		return entity.Defaults{}, fmt.Errorf("modules.twofa.recovery_code_count: %d is out of range", d.RecoveryCodeCount)
	}

	return d, nil
}
