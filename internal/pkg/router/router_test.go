package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJWT struct {
	claims jwt.Claims
	err    error
}

func (f fakeJWT) Generate(string, []string) (string, error) { return "", nil }

func (f fakeJWT) Verify(tok string) (jwt.Claims, error) {
	if tok != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return f.claims, f.err
}

type staticID string

func (s staticID) Generate() string { return string(s) }

type created struct {
	ID string `json:"id"`
}

func (created) StatusCode() int { return http.StatusCreated }
func (created) Message() string { return "created" }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()
	if yaml == "" {
		yaml = "app:\n  name: twofa\n"
	}
	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	claims := jwt.Claims{Scopes: []string{jwt.ScopeManage}}
	claims.Subject = "svc"

	return NewRouter(Config{
		Config:          cfg,
		UUID:            staticID("cid-gen"),
		JWT:             fakeJWT{claims: claims},
		Instrument:      instrument.NewNoop(),
		PublicEndpoints: map[string][]string{http.MethodGet: {"/health"}},
	})
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Envelope(t *testing.T) {
	r := newTestRouter(t, "")
	r.POST("/items/:id", func(req *Request) (any, error) {
		return created{ID: req.GetParam("id")}, nil
	})

	rec := do(r, http.MethodPost, "/items/42", "good", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "cid-gen", rec.Header().Get(HeaderCorrelationID))

	body := decode(t, rec)
	assert.Equal(t, "created", body["message"])
	assert.Equal(t, map[string]any{"id": "42"}, body["data"])
}

func TestRouter_NoContent(t *testing.T) {
	r := newTestRouter(t, "")
	r.DELETE("/items/:id", func(*Request) (any, error) { return nil, nil })

	rec := do(r, http.MethodDelete, "/items/1", "good", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRouter_ErrorMapping(t *testing.T) {
	r := newTestRouter(t, "")
	r.GET("/biz", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("nope", goerror.CodeNotFound)
	})
	r.GET("/fields", func(*Request) (any, error) {
		return nil, goerror.NewInvalidInput(nil, "code", "is required")
	})
	r.GET("/plain", func(*Request) (any, error) { return nil, errors.New("raw") })

	rec := do(r, http.MethodGet, "/biz", "good", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "nope", decode(t, rec)["message"])

	rec = do(r, http.MethodGet, "/fields", "good", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, map[string]any{"code": "is required"}, decode(t, rec)["error"])

	rec = do(r, http.MethodGet, "/plain", "good", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["message"])
}

func TestRouter_Authentication(t *testing.T) {
	r := newTestRouter(t, "")
	r.GET("/health", func(*Request) (any, error) { return map[string]string{"status": "ok"}, nil })
	r.GET("/private", func(*Request) (any, error) { return "ok", nil })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/private", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/private", "bad", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/private", "good", "").Code)
}

func TestRouter_RequireScope(t *testing.T) {
	r := newTestRouter(t, "")
	r.GET("/manage", func(*Request) (any, error) { return "ok", nil }, RequireScope(jwt.ScopeManage))
	r.GET("/authorize", func(*Request) (any, error) { return "ok", nil }, RequireScope(jwt.ScopeAuthorize))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/manage", "good", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/authorize", "good", "").Code)
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: [\"/blocked\"]\n")
	r.GET("/blocked", func(*Request) (any, error) { return "ok", nil })
	r.GET("/open", func(*Request) (any, error) { return "ok", nil })

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/blocked", "good", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/open", "good", "").Code)
}

func TestRouter_RecoversPanic(t *testing.T) {
	r := newTestRouter(t, "")
	r.GET("/panic", func(*Request) (any, error) { panic("boom") })

	rec := do(r, http.MethodGet, "/panic", "good", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["message"])
}

func TestRouter_Raw(t *testing.T) {
	r := newTestRouter(t, "")
	r.GETRaw("/png", func(w http.ResponseWriter, req *Request) error {
		if req.GetQuery("fail") != "" {
			return goerror.NewInvalidFormat("bad size")
		}
		w.Header().Set("Content-Type", "image/png")
		_, err := w.Write([]byte{0x89, 'P', 'N', 'G'})
		return err
	})

	rec := do(r, http.MethodGet, "/png", "good", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = do(r, http.MethodGet, "/png?fail=1", "good", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	r := newTestRouter(t, "")
	r.GET("/only-get", func(*Request) (any, error) { return "ok", nil })

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/missing", "good", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(r, http.MethodPost, "/only-get", "good", "").Code)
}

func TestRouter_CorrelationIDPassthrough(t *testing.T) {
	r := newTestRouter(t, "")
	var seen string
	r.GET("/cid", func(req *Request) (any, error) {
		seen = instrument.GetCorrelationID(req.Context())
		return "ok", nil
	})

	req := httptest.NewRequest(http.MethodGet, "/cid", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set(HeaderRequestID, "  upstream-1 ")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-1", seen)
	assert.Equal(t, "upstream-1", rec.Header().Get(HeaderCorrelationID))
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "h") }), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "h"}, order)
}
