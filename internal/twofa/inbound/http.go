package inbound

import (
	"context"

	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/twofa/usecase"
)

type uc interface {
	Provision(ctx context.Context, in usecase.ProvisionInput) (*usecase.ProvisionOutput, error)
	Deprovision(ctx context.Context, in usecase.DeprovisionInput) error

	Authorize(ctx context.Context, in usecase.AuthorizeInput) error
	CurrentCode(ctx context.Context, in usecase.CurrentCodeInput) (*usecase.CurrentCodeOutput, error)
	ProvisioningURI(ctx context.Context, in usecase.ProvisioningURIInput) (*usecase.ProvisioningURIOutput, error)

	IssueCodes(ctx context.Context, in usecase.IssueCodesInput) (*usecase.RecoveryCodesOutput, error)
	ConsumeRecoveryCode(ctx context.Context, in usecase.ConsumeRecoveryCodeInput) error
	RegenerateRecoveryCodes(ctx context.Context, in usecase.RegenerateRecoveryCodesInput) (*usecase.RecoveryCodesOutput, error)
	RecoveryCodesRemaining(ctx context.Context, in usecase.RecoveryCodesRemainingInput) (*usecase.RecoveryCodesRemainingOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	manage := router.RequireScope(jwt.ScopeManage)
	authorize := router.RequireScope(jwt.ScopeAuthorize)

	// Identity lifecycle
	r.POST("/api/v1/twofa/identities", end.Provision, manage)
	r.DELETE("/api/v1/twofa/identities/:identity_id", end.Deprovision, manage)

	// TOTP
	r.POST("/api/v1/twofa/identities/:identity_id/authorize", end.Authorize, authorize)
	r.GET("/api/v1/twofa/identities/:identity_id/code", end.CurrentCode, manage)
	r.GET("/api/v1/twofa/identities/:identity_id/uri", end.ProvisioningURI, manage)
	r.GETRaw("/api/v1/twofa/identities/:identity_id/qrcode", end.QRCode, manage)

	// Recovery codes
	r.GET("/api/v1/twofa/identities/:identity_id/recovery-codes", end.RecoveryCodesRemaining, manage)
	r.POST("/api/v1/twofa/identities/:identity_id/recovery-codes", end.IssueCodes, manage)
	r.POST("/api/v1/twofa/identities/:identity_id/recovery-codes/consume", end.ConsumeRecoveryCode, authorize)
	r.POST("/api/v1/twofa/identities/:identity_id/recovery-codes/regenerate", end.RegenerateRecoveryCodes, manage)
}
