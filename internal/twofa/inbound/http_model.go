package inbound

import (
	"net/http"
	"time"
)

type ProvisionRequest struct {
	IdentityID        string `json:"identity_id"`
	CodeLength        int    `json:"code_length,omitempty"`
	StepDuration      uint   `json:"step_duration,omitempty"`
	HashAlgorithm     string `json:"hash_algorithm,omitempty"`
	RecoveryCodeCount int    `json:"recovery_code_count,omitempty"`
}

// ProvisionResponse is the only response that carries the secret and the
// recovery codes in plaintext.
type ProvisionResponse struct {
	IdentityID    string    `json:"identity_id"`
	Secret        string    `json:"secret"`
	URI           string    `json:"uri"`
	CodeLength    int       `json:"code_length"`
	StepDuration  uint      `json:"step_duration"`
	HashAlgorithm string    `json:"hash_algorithm"`
	RecoveryCodes []string  `json:"recovery_codes"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ProvisionResponse) StatusCode() int { return http.StatusCreated }

func (ProvisionResponse) Message() string {
	return "Identity provisioned. Store the recovery codes now, they are not shown again."
}

type AuthorizeRequest struct {
	Code         string `json:"code"`
	WindowRadius *uint  `json:"window_radius,omitempty"`
}

type AuthorizeResponse struct {
	Authorized bool `json:"authorized"`
}

func (AuthorizeResponse) Message() string { return "Code accepted." }

type CurrentCodeResponse struct {
	Code       string    `json:"code"`
	ValidUntil time.Time `json:"valid_until"`
}

type ProvisioningURIResponse struct {
	URI string `json:"uri"`
}

type RecoveryCodesRequest struct {
	Count int `json:"count,omitempty"`
}

type RecoveryCodesResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

func (RecoveryCodesResponse) Message() string {
	return "Store the recovery codes now, they are not shown again."
}

type ConsumeRecoveryCodeRequest struct {
	Code string `json:"code"`
}

type ConsumeRecoveryCodeResponse struct {
	Consumed bool `json:"consumed"`
}

func (ConsumeRecoveryCodeResponse) Message() string { return "Recovery code accepted." }

type RecoveryCodesRemainingResponse struct {
	Remaining int `json:"remaining"`
}
