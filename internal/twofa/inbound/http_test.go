package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/twofa/entity"
	"github.com/shandysiswandi/twofa/internal/twofa/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	provisionIn usecase.ProvisionInput
	authorizeIn usecase.AuthorizeInput
	issueIn     usecase.IssueCodesInput
	consumeIn   usecase.ConsumeRecoveryCodeInput
	uriIn       usecase.ProvisioningURIInput
	err         error
	uriMissing  bool
}

func (f *fakeUC) Provision(_ context.Context, in usecase.ProvisionInput) (*usecase.ProvisionOutput, error) {
	f.provisionIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.ProvisionOutput{
		Identity: entity.IdentitySecret{
			IdentityID:    in.IdentityID,
			CodeLength:    6,
			StepDuration:  30,
			HashAlgorithm: otp.AlgorithmSHA256,
		},
		Secret:        []byte("12345678901234567890"),
		URI:           "otpauth://totp/twofa:" + in.IdentityID,
		RecoveryCodes: []string{"AAAA-BBBB-CCCC"},
	}, nil
}

func (f *fakeUC) Deprovision(context.Context, usecase.DeprovisionInput) error { return f.err }

func (f *fakeUC) Authorize(_ context.Context, in usecase.AuthorizeInput) error {
	f.authorizeIn = in
	return f.err
}

func (f *fakeUC) CurrentCode(context.Context, usecase.CurrentCodeInput) (*usecase.CurrentCodeOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.CurrentCodeOutput{Code: "123456", ValidUntil: time.Unix(1_700_000_010, 0).UTC()}, nil
}

func (f *fakeUC) ProvisioningURI(_ context.Context, in usecase.ProvisioningURIInput) (*usecase.ProvisioningURIOutput, error) {
	f.uriIn = in
	if f.err != nil || f.uriMissing {
		return nil, f.err
	}
	return &usecase.ProvisioningURIOutput{URI: "otpauth://totp/Acme:alice?secret=ABC"}, nil
}

func (f *fakeUC) IssueCodes(_ context.Context, in usecase.IssueCodesInput) (*usecase.RecoveryCodesOutput, error) {
	f.issueIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.RecoveryCodesOutput{RecoveryCodes: []string{"AAAA-BBBB-CCCC", "DDDD-EEEE-FFFF"}}, nil
}

func (f *fakeUC) ConsumeRecoveryCode(_ context.Context, in usecase.ConsumeRecoveryCodeInput) error {
	f.consumeIn = in
	return f.err
}

func (f *fakeUC) RegenerateRecoveryCodes(context.Context, usecase.RegenerateRecoveryCodesInput) (*usecase.RecoveryCodesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.RecoveryCodesOutput{RecoveryCodes: []string{"GGGG-HHHH-IIII"}}, nil
}

func (f *fakeUC) RecoveryCodesRemaining(context.Context, usecase.RecoveryCodesRemainingInput) (*usecase.RecoveryCodesRemainingOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.RecoveryCodesRemainingOutput{Remaining: 7}, nil
}

// tokenJWT grants scopes by token value.
type tokenJWT struct{}

func (tokenJWT) Generate(string, []string) (string, error) { return "", nil }

func (tokenJWT) Verify(tok string) (jwt.Claims, error) {
	c := jwt.Claims{}
	c.Subject = "svc"
	switch tok {
	case "manage":
		c.Scopes = []string{jwt.ScopeManage}
	case "authorize":
		c.Scopes = []string{jwt.ScopeAuthorize}
	default:
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return c, nil
}

type staticID string

func (s staticID) Generate() string { return string(s) }

func newServer(t *testing.T, f *fakeUC) http.Handler {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: twofa\n"))
	require.NoError(t, err)

	r := router.NewRouter(router.Config{
		Config:     cfg,
		UUID:       staticID("cid"),
		JWT:        tokenJWT{},
		Instrument: instrument.NewNoop(),
	})
	RegisterHTTPEndpoint(r, f)
	return r
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestProvision(t *testing.T) {
	f := &fakeUC{}
	h := newServer(t, f)

	rec := call(h, http.MethodPost, "/api/v1/twofa/identities", "manage",
		`{"identity_id":"alice","code_length":8,"hash_algorithm":"SHA512"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, usecase.ProvisionInput{IdentityID: "alice", CodeLength: 8, HashAlgorithm: "SHA512"}, f.provisionIn)

	var data ProvisionResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, otp.EncodeSecret([]byte("12345678901234567890")), data.Secret)
	assert.Equal(t, []string{"AAAA-BBBB-CCCC"}, data.RecoveryCodes)
	assert.Equal(t, "SHA256", data.HashAlgorithm)
}

func TestProvision_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
	}{
		{name: "UnknownField", body: `{"identity_id":"a","secret":"x"}`, status: http.StatusBadRequest},
		{name: "Conflict", err: goerror.NewBusinessCause(entity.ErrUserCreation, "identity `a` already provisioned", goerror.CodeConflict), status: http.StatusConflict},
		{name: "InvalidParameter", err: goerror.NewBusinessCause(entity.ErrInvalidParameter, "`10` is not a valid code length", goerror.CodeInvalidInput), status: http.StatusUnprocessableEntity},
		{name: "Server", err: goerror.NewServer(assert.AnError), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == "" {
				body = `{"identity_id":"a"}`
			}
			h := newServer(t, &fakeUC{err: tt.err})

			rec := call(h, http.MethodPost, "/api/v1/twofa/identities", "manage", body)

			assert.Equal(t, tt.status, rec.Code)
			if tt.err != nil {
				var gerr *goerror.Error
				require.ErrorAs(t, tt.err, &gerr)
				assert.Equal(t, gerr.Msg(), decode(t, rec).Message)
			}
		})
	}
}

func TestScopes(t *testing.T) {
	h := newServer(t, &fakeUC{})

	assert.Equal(t, http.StatusUnauthorized,
		call(h, http.MethodPost, "/api/v1/twofa/identities", "", `{"identity_id":"a"}`).Code)
	assert.Equal(t, http.StatusForbidden,
		call(h, http.MethodPost, "/api/v1/twofa/identities", "authorize", `{"identity_id":"a"}`).Code)
	assert.Equal(t, http.StatusForbidden,
		call(h, http.MethodPost, "/api/v1/twofa/identities/a/authorize", "manage", `{"code":"123456"}`).Code)
	assert.Equal(t, http.StatusOK,
		call(h, http.MethodPost, "/api/v1/twofa/identities/a/authorize", "authorize", `{"code":"123456"}`).Code)
	assert.Equal(t, http.StatusOK,
		call(h, http.MethodPost, "/api/v1/twofa/identities/a/recovery-codes/consume", "authorize", `{"code":"x"}`).Code)
	assert.Equal(t, http.StatusForbidden,
		call(h, http.MethodGet, "/api/v1/twofa/identities/a/code", "authorize", "").Code)
}

func TestAuthorize(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		f := &fakeUC{}
		h := newServer(t, f)

		rec := call(h, http.MethodPost, "/api/v1/twofa/identities/alice/authorize", "authorize",
			`{"code":"123456","window_radius":0}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", f.authorizeIn.IdentityID)
		assert.Equal(t, "123456", f.authorizeIn.Code)
		require.NotNil(t, f.authorizeIn.WindowRadius)
		assert.Zero(t, *f.authorizeIn.WindowRadius)
		assert.Equal(t, "Code accepted.", decode(t, rec).Message)
	})

	t.Run("Rejected", func(t *testing.T) {
		h := newServer(t, &fakeUC{err: goerror.NewBusinessCause(entity.ErrInvalidCode, "Invalid code was given.", goerror.CodeUnauthorized)})

		rec := call(h, http.MethodPost, "/api/v1/twofa/identities/alice/authorize", "authorize", `{"code":"000000"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid code was given.", decode(t, rec).Message)
	})

	t.Run("UnknownIdentity", func(t *testing.T) {
		h := newServer(t, &fakeUC{err: goerror.NewBusinessCause(entity.ErrUnknownIdentity, "`bob` is not a known identity", goerror.CodeNotFound)})

		rec := call(h, http.MethodPost, "/api/v1/twofa/identities/bob/authorize", "authorize", `{"code":"000000"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeprovision(t *testing.T) {
	h := newServer(t, &fakeUC{})

	rec := call(h, http.MethodDelete, "/api/v1/twofa/identities/alice", "manage", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCurrentCode(t *testing.T) {
	h := newServer(t, &fakeUC{})

	rec := call(h, http.MethodGet, "/api/v1/twofa/identities/alice/code", "manage", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var data CurrentCodeResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, "123456", data.Code)
	assert.Equal(t, time.Unix(1_700_000_010, 0).UTC(), data.ValidUntil)
}

func TestProvisioningURI(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		f := &fakeUC{}
		h := newServer(t, f)

		rec := call(h, http.MethodGet, "/api/v1/twofa/identities/alice/uri?display_name=Alice&issuer=Acme", "manage", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, usecase.ProvisioningURIInput{IdentityID: "alice", DisplayName: "Alice", Issuer: "Acme"}, f.uriIn)
		assert.Contains(t, string(decode(t, rec).Data), "otpauth://totp/Acme:alice")
	})

	t.Run("Missing", func(t *testing.T) {
		h := newServer(t, &fakeUC{uriMissing: true})

		rec := call(h, http.MethodGet, "/api/v1/twofa/identities/bob/uri?display_name=Bob", "manage", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "`bob` is not a known identity", decode(t, rec).Message)
	})
}

func TestQRCode(t *testing.T) {
	t.Run("PNG", func(t *testing.T) {
		h := newServer(t, &fakeUC{})

		rec := call(h, http.MethodGet, "/api/v1/twofa/identities/alice/qrcode?display_name=Alice&size=128", "manage", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 128, img.Bounds().Dx())
	})

	t.Run("BadSize", func(t *testing.T) {
		h := newServer(t, &fakeUC{})

		rec := call(h, http.MethodGet, "/api/v1/twofa/identities/alice/qrcode?display_name=Alice&size=5000", "manage", "")

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decode(t, rec).Error, "size")
	})

	t.Run("SizeNotANumber", func(t *testing.T) {
		h := newServer(t, &fakeUC{})

		rec := call(h, http.MethodGet, "/api/v1/twofa/identities/alice/qrcode?display_name=Alice&size=big", "manage", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Missing", func(t *testing.T) {
		h := newServer(t, &fakeUC{uriMissing: true})

		rec := call(h, http.MethodGet, "/api/v1/twofa/identities/bob/qrcode?display_name=Bob", "manage", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	})
}

func TestRecoveryCodes(t *testing.T) {
	t.Run("IssueWithoutBody", func(t *testing.T) {
		f := &fakeUC{}
		h := newServer(t, f)

		rec := call(h, http.MethodPost, "/api/v1/twofa/identities/alice/recovery-codes", "manage", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, f.issueIn.Count)
		var data RecoveryCodesResponse
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
		assert.Len(t, data.RecoveryCodes, 2)
	})

	t.Run("IssueWithCount", func(t *testing.T) {
		f := &fakeUC{}
		h := newServer(t, f)

		rec := call(h, http.MethodPost, "/api/v1/twofa/identities/alice/recovery-codes", "manage", `{"count":4}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 4, f.issueIn.Count)
	})

	t.Run("Consume", func(t *testing.T) {
		f := &fakeUC{}
		h := newServer(t, f)

		rec := call(h, http.MethodPost, "/api/v1/twofa/identities/alice/recovery-codes/consume", "authorize", `{"code":"AAAA-BBBB-CCCC"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, usecase.ConsumeRecoveryCodeInput{IdentityID: "alice", Code: "AAAA-BBBB-CCCC"}, f.consumeIn)
	})

	t.Run("ConsumeRejected", func(t *testing.T) {
		h := newServer(t, &fakeUC{err: goerror.NewBusinessCause(entity.ErrRecoveryCodeConsumption,
			"The recovery code supplied is not valid for this identity", goerror.CodeUnauthorized)})

		rec := call(h, http.MethodPost, "/api/v1/twofa/identities/alice/recovery-codes/consume", "authorize", `{"code":"x"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "The recovery code supplied is not valid for this identity", decode(t, rec).Message)
	})

	t.Run("RegenerateInProgress", func(t *testing.T) {
		h := newServer(t, &fakeUC{err: goerror.NewBusinessCause(entity.ErrRegenerationInProgress,
			"recovery code regeneration already in progress", goerror.CodeConflict)})

		rec := call(h, http.MethodPost, "/api/v1/twofa/identities/alice/recovery-codes/regenerate", "manage", "")

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Remaining", func(t *testing.T) {
		h := newServer(t, &fakeUC{})

		rec := call(h, http.MethodGet, "/api/v1/twofa/identities/alice/recovery-codes", "manage", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"remaining":7}`, string(decode(t, rec).Data))
	})
}
