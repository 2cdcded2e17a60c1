package inbound

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/qrcode"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
	"github.com/shandysiswandi/twofa/internal/twofa/usecase"
)

// HTTPEndpoint exposes the TOTP and recovery code operations to other services.
type HTTPEndpoint struct {
	uc uc
}

// Provision binds a new TOTP secret to an identity.
// @Summary Provision identity
// @Description Generates a TOTP secret and the first batch of recovery codes. Zero values select the configured defaults.
// @Tags TwoFA, Identity
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProvisionRequest true "Provision payload"
// @Success 201 {object} router.successResponse{data=ProvisionResponse} "Provisioned identity"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Identity already provisioned"
// @Failure 422 {object} router.errorResponse "Validation error or unsupported parameter"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/twofa/identities [post]
func (h *HTTPEndpoint) Provision(r *router.Request) (any, error) {
	var req ProvisionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Provision(r.Context(), usecase.ProvisionInput{
		IdentityID:        req.IdentityID,
		CodeLength:        req.CodeLength,
		StepDuration:      req.StepDuration,
		HashAlgorithm:     req.HashAlgorithm,
		RecoveryCodeCount: req.RecoveryCodeCount,
	})
	if err != nil {
		return nil, err
	}

	return ProvisionResponse{
		IdentityID:    resp.Identity.IdentityID,
		Secret:        otp.EncodeSecret(resp.Secret),
		URI:           resp.URI,
		CodeLength:    resp.Identity.CodeLength,
		StepDuration:  resp.Identity.StepDuration,
		HashAlgorithm: resp.Identity.HashAlgorithm.String(),
		RecoveryCodes: resp.RecoveryCodes,
		CreatedAt:     resp.Identity.CreatedAt,
	}, nil
}

// Deprovision removes the secret and every recovery code of an identity.
// @Summary Deprovision identity
// @Tags TwoFA, Identity
// @Security BearerAuth
// @Param identity_id path string true "Identity ID"
// @Success 204 "Identity removed"
// @Failure 404 {object} router.errorResponse "Unknown identity"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/twofa/identities/{identity_id} [delete]
func (h *HTTPEndpoint) Deprovision(r *router.Request) (any, error) {
	if err := h.uc.Deprovision(r.Context(), usecase.DeprovisionInput{
		IdentityID: r.GetParam("identity_id"),
	}); err != nil {
		return nil, err
	}

	return nil, nil
}

// Authorize verifies a TOTP code.
// @Summary Verify TOTP code
// @Description Accepts the code when it matches a time step inside the verification window.
// @Tags TwoFA, TOTP
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param identity_id path string true "Identity ID"
// @Param request body AuthorizeRequest true "Code payload"
// @Success 200 {object} router.successResponse{data=AuthorizeResponse} "Code accepted"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 404 {object} router.errorResponse "Unknown identity"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/twofa/identities/{identity_id}/authorize [post]
func (h *HTTPEndpoint) Authorize(r *router.Request) (any, error) {
	var req AuthorizeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Authorize(r.Context(), usecase.AuthorizeInput{
		IdentityID:   r.GetParam("identity_id"),
		Code:         req.Code,
		WindowRadius: req.WindowRadius,
	}); err != nil {
		return nil, err
	}

	return AuthorizeResponse{Authorized: true}, nil
}

// CurrentCode returns the code valid right now.
// @Summary Current TOTP code
// @Tags TwoFA, TOTP
// @Produce json
// @Security BearerAuth
// @Param identity_id path string true "Identity ID"
// @Success 200 {object} router.successResponse{data=CurrentCodeResponse} "Current code"
// @Failure 404 {object} router.errorResponse "Unknown identity"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/twofa/identities/{identity_id}/code [get]
func (h *HTTPEndpoint) CurrentCode(r *router.Request) (any, error) {
	resp, err := h.uc.CurrentCode(r.Context(), usecase.CurrentCodeInput{
		IdentityID: r.GetParam("identity_id"),
	})
	if err != nil {
		return nil, err
	}

	return CurrentCodeResponse{Code: resp.Code, ValidUntil: resp.ValidUntil}, nil
}

// ProvisioningURI returns the otpauth URI of an identity.
// @Summary Provisioning URI
// @Tags TwoFA, TOTP
// @Produce json
// @Security BearerAuth
// @Param identity_id path string true "Identity ID"
// @Param display_name query string true "Account label shown by the authenticator"
// @Param issuer query string false "Issuer, defaults to the configured one"
// @Success 200 {object} router.successResponse{data=ProvisioningURIResponse} "otpauth URI"
// @Failure 404 {object} router.errorResponse "Unknown identity"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/twofa/identities/{identity_id}/uri [get]
func (h *HTTPEndpoint) ProvisioningURI(r *router.Request) (any, error) {
	uri, err := h.provisioningURI(r)
	if err != nil {
		return nil, err
	}

	return ProvisioningURIResponse{URI: uri}, nil
}

// QRCode renders the provisioning URI as a PNG.
// @Summary Provisioning QR code
// @Tags TwoFA, TOTP
// @Produce png
// @Security BearerAuth
// @Param identity_id path string true "Identity ID"
// @Param display_name query string true "Account label shown by the authenticator"
// @Param issuer query string false "Issuer, defaults to the configured one"
// @Param size query int false "Edge length in pixels (64..1024)"
// @Success 200 {file} binary "PNG image"
// @Failure 404 {object} router.errorResponse "Unknown identity"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/twofa/identities/{identity_id}/qrcode [get]
func (h *HTTPEndpoint) QRCode(w http.ResponseWriter, r *router.Request) error {
	size, err := r.GetQueryInt("size")
	if err != nil {
		return err
	}

	uri, err := h.provisioningURI(r)
	if err != nil {
		return err
	}

	png, err := qrcode.Generate(uri, size)
	if errors.Is(err, qrcode.ErrInvalidSize) {
		return goerror.NewInvalidInput(nil, "size",
			fmt.Sprintf("size must be between %d and %d", qrcode.MinSize, qrcode.MaxSize))
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to render qr code", "error", err)
		return goerror.NewServer(err)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(png)
	return err
}

func (h *HTTPEndpoint) provisioningURI(r *router.Request) (string, error) {
	id := r.GetParam("identity_id")
	resp, err := h.uc.ProvisioningURI(r.Context(), usecase.ProvisioningURIInput{
		IdentityID:  id,
		DisplayName: r.GetQuery("display_name"),
		Issuer:      r.GetQuery("issuer"),
	})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", goerror.NewBusinessCause(entity.ErrUnknownIdentity,
			fmt.Sprintf("`%s` is not a known identity", id), goerror.CodeNotFound)
	}

	return resp.URI, nil
}

// RecoveryCodesRemaining counts the unused recovery codes.
// @Summary Remaining recovery codes
// @Tags TwoFA, Recovery
// @Produce json
// @Security BearerAuth
// @Param identity_id path string true "Identity ID"
// @Success 200 {object} router.successResponse{data=RecoveryCodesRemainingResponse} "Unused code count"
// @Failure 404 {object} router.errorResponse "Unknown identity"
// @Router /api/v1/twofa/identities/{identity_id}/recovery-codes [get]
func (h *HTTPEndpoint) RecoveryCodesRemaining(r *router.Request) (any, error) {
	resp, err := h.uc.RecoveryCodesRemaining(r.Context(), usecase.RecoveryCodesRemainingInput{
		IdentityID: r.GetParam("identity_id"),
	})
	if err != nil {
		return nil, err
	}

	return RecoveryCodesRemainingResponse{Remaining: resp.Remaining}, nil
}

// IssueCodes adds a batch of recovery codes.
// @Summary Issue recovery codes
// @Description Adds codes next to the existing ones. The body is optional.
// @Tags TwoFA, Recovery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param identity_id path string true "Identity ID"
// @Param request body RecoveryCodesRequest false "Batch size"
// @Success 200 {object} router.successResponse{data=RecoveryCodesResponse} "New codes"
// @Failure 404 {object} router.errorResponse "Unknown identity"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/twofa/identities/{identity_id}/recovery-codes [post]
func (h *HTTPEndpoint) IssueCodes(r *router.Request) (any, error) {
	var req RecoveryCodesRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		return nil, err
	}

	resp, err := h.uc.IssueCodes(r.Context(), usecase.IssueCodesInput{
		IdentityID: r.GetParam("identity_id"),
		Count:      req.Count,
	})
	if err != nil {
		return nil, err
	}

	return RecoveryCodesResponse{RecoveryCodes: resp.RecoveryCodes}, nil
}

// ConsumeRecoveryCode spends one recovery code.
// @Summary Consume recovery code
// @Tags TwoFA, Recovery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param identity_id path string true "Identity ID"
// @Param request body ConsumeRecoveryCodeRequest true "Recovery code"
// @Success 200 {object} router.successResponse{data=ConsumeRecoveryCodeResponse} "Code accepted"
// @Failure 401 {object} router.errorResponse "Code not valid for this identity"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/twofa/identities/{identity_id}/recovery-codes/consume [post]
func (h *HTTPEndpoint) ConsumeRecoveryCode(r *router.Request) (any, error) {
	var req ConsumeRecoveryCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ConsumeRecoveryCode(r.Context(), usecase.ConsumeRecoveryCodeInput{
		IdentityID: r.GetParam("identity_id"),
		Code:       req.Code,
	}); err != nil {
		return nil, err
	}

	return ConsumeRecoveryCodeResponse{Consumed: true}, nil
}

// RegenerateRecoveryCodes replaces every recovery code with a fresh batch.
// @Summary Regenerate recovery codes
// @Tags TwoFA, Recovery
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param identity_id path string true "Identity ID"
// @Param request body RecoveryCodesRequest false "Batch size"
// @Success 200 {object} router.successResponse{data=RecoveryCodesResponse} "New codes"
// @Failure 404 {object} router.errorResponse "Unknown identity"
// @Failure 409 {object} router.errorResponse "Regeneration already in progress"
// @Router /api/v1/twofa/identities/{identity_id}/recovery-codes/regenerate [post]
func (h *HTTPEndpoint) RegenerateRecoveryCodes(r *router.Request) (any, error) {
	var req RecoveryCodesRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegenerateRecoveryCodes(r.Context(), usecase.RegenerateRecoveryCodesInput{
		IdentityID: r.GetParam("identity_id"),
		Count:      req.Count,
	})
	if err != nil {
		return nil, err
	}

	return RecoveryCodesResponse{RecoveryCodes: resp.RecoveryCodes}, nil
}

func decodeOptionalBody(r *router.Request, dst any) error {
	if r.ContentLength == 0 || r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	return r.DecodeBody(dst)
}
