package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/twofa/internal/twofa"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.twofa.enabled") {
		if err := twofa.New(twofa.Dependency{
			DBConn:          a.dbConn,
			Locker:          a.locker,
			Goroutine:       a.goroutine,
			Router:          a.router,
			Messaging:       a.messaging,
			Config:          a.config,
			Instrument:      a.ins,
			UID:             a.uid,
			HMAC:            a.hmac,
			MFAEncryptor:    a.mfaEncryptor,
			MFARecoveryCode: a.mfaRecoveryCode,
			Clock:           a.clock,
			Totp:            a.totp,
			Validator:       a.validator,
		}); err != nil {
			slog.Error("failed to init module twofa", "error", err)
			os.Exit(1)
		}
	}
}
