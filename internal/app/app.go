package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/lock"
	"github.com/shandysiswandi/twofa/internal/pkg/messaging"
	"github.com/shandysiswandi/twofa/internal/pkg/mfa"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine       *goroutine.Manager
	validator       validator.Validator
	clock           clock.Clocker
	hmac            hash.Hash
	uid             uid.NumberID
	uuid            uid.StringID
	totp            otp.OTP
	jwt             jwt.JWT
	mfaEncryptor    mfa.Encryptor
	mfaRecoveryCode mfa.RecoveryCodeGenerator

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	locker    lock.Locker
	messaging messaging.Publisher

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
