package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/fintrack/internal/pkg/clock"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/goerror"
	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthorizer struct {
	allow bool
	err   error
	got   []any
}

func (s *stubAuthorizer) Enforce(rvals ...any) (bool, error) {
	s.got = rvals
	return s.allow, s.err
}

type payload struct {
	Name string `json:"name"`
}

type created struct{ payload }

func (created) StatusCode() int      { return http.StatusCreated }
func (created) Message() string      { return "Created" }
func (created) Meta() map[string]any { return map[string]any{"total": 1} }

type testEnv struct {
	router *Router
	token  string
	authz  *stubAuthorizer
}

func newTestEnv(t *testing.T, yaml string) *testEnv {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "fintrack",
		Audiences: []string{"fintrack"},
		TTL:       time.Hour,
		Clock:     clock.New(),
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	token, err := signer.Generate(42, "jane@example.com")
	require.NoError(t, err)

	tr, err := i18n.New()
	require.NoError(t, err)

	authz := &stubAuthorizer{allow: true}
	r := NewRouter(Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		JWT:        signer,
		Instrument: instrument.NewNoop(),
		Enforcer:   authz,
		Translator: tr,
	})

	return &testEnv{router: r, token: token, authz: authz}
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) authed(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+e.token)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Envelopes(t *testing.T) {
	env := newTestEnv(t, `app: {name: test}`)
	env.router.GET("/plain", func(*Request) (any, error) { return payload{Name: "a"}, nil })
	env.router.POST("/created", func(*Request) (any, error) { return created{payload{Name: "b"}}, nil })
	env.router.DELETE("/empty", func(*Request) (any, error) { return nil, nil })
	env.router.GET("/missing", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("transaction not found", goerror.CodeNotFound)
	})
	env.router.GET("/boom", func(*Request) (any, error) { return nil, errors.New("db password=secret") })

	t.Run("default success", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodGet, "/plain", ""))

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, map[string]any{
			"message": defaultSuccessMessage,
			"data":    map[string]any{"name": "a"},
		}, decode(t, rec))
	})

	t.Run("payload shapes status message and meta", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodPost, "/created", ""))

		// Assert
		require.Equal(t, http.StatusCreated, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Created", body["message"])
		assert.Equal(t, map[string]any{"total": float64(1)}, body["meta"])
	})

	t.Run("nil payload is no content", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodDelete, "/empty", ""))

		// Assert
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("business error", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodGet, "/missing", ""))

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, map[string]any{"message": "transaction not found"}, decode(t, rec))
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodGet, "/boom", ""))

		// Assert
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret")
		assert.Equal(t, "Internal server error", decode(t, rec)["message"])
	})

	t.Run("unknown route", func(t *testing.T) {
		// Act
		rec := env.serve(httptest.NewRequest(http.MethodGet, "/nope", nil))

		// Assert
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "endpoint not found", decode(t, rec)["message"])
	})
}

func TestRouter_Authentication(t *testing.T) {
	env := newTestEnv(t, `app: {name: test}`)
	env.router.POST("/login", func(*Request) (any, error) { return payload{Name: "public"}, nil }, Public())
	env.router.GET("/me", func(r *Request) (any, error) {
		return payload{Name: jwt.GetAuth(r.Context()).Subject}, nil
	})

	tests := []struct {
		name   string
		req    func() *http.Request
		status int
	}{
		{
			name:   "public route without token",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodPost, "/login", nil) },
			status: http.StatusOK,
		},
		{
			name:   "protected route without token",
			req:    func() *http.Request { return httptest.NewRequest(http.MethodGet, "/me", nil) },
			status: http.StatusUnauthorized,
		},
		{
			name: "protected route with a bad token",
			req: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/me", nil)
				req.Header.Set("Authorization", "Bearer not-a-jwt")
				return req
			},
			status: http.StatusUnauthorized,
		},
		{
			name:   "protected route with a valid token",
			req:    func() *http.Request { return env.authed(http.MethodGet, "/me", "") },
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			rec := env.serve(tt.req())

			// Assert
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("claims reach the handler", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodGet, "/me", ""))

		// Assert
		assert.Equal(t, map[string]any{"name": "42"}, decode(t, rec)["data"])
	})
}

func TestRouter_Permission(t *testing.T) {
	env := newTestEnv(t, `app: {name: test}`)
	env.router.GET("/reports", func(*Request) (any, error) { return payload{}, nil },
		env.router.Permission("finance:analytics", "read"))

	t.Run("granted", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodGet, "/reports", ""))

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{"42", "finance:analytics", "read"}, env.authz.got)
	})

	t.Run("denied", func(t *testing.T) {
		// Arrange
		env.authz.allow = false

		// Act
		rec := env.serve(env.authed(http.MethodGet, "/reports", ""))

		// Assert
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Account not allowed", decode(t, rec)["message"])
	})

	t.Run("enforcer failure", func(t *testing.T) {
		// Arrange
		env.authz.err = errors.New("policy store down")

		// Act
		rec := env.serve(env.authed(http.MethodGet, "/reports", ""))

		// Assert
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRouter_Middlewares(t *testing.T) {
	env := newTestEnv(t, "app:\n  maintenance:\n    endpoints: [\"/export\"]\n")
	env.router.GET("/panic", func(*Request) (any, error) { panic("boom") }, Public())
	env.router.POST("/export", func(*Request) (any, error) { return payload{}, nil })
	env.router.POST("/echo", func(r *Request) (any, error) {
		var in payload
		if err := r.DecodeBody(&in); err != nil {
			return nil, err
		}
		return in, nil
	})
	env.router.GET("/lang", func(r *Request) (any, error) {
		return payload{Name: i18n.Language(r.Context()).String()}, nil
	}, Public())

	t.Run("panic becomes 500", func(t *testing.T) {
		// Act
		rec := env.serve(httptest.NewRequest(http.MethodGet, "/panic", nil))

		// Assert
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", decode(t, rec)["message"])
	})

	t.Run("maintenance blocks listed routes", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodPost, "/export", ""))

		// Assert
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("correlation id is echoed", func(t *testing.T) {
		// Arrange
		req := env.authed(http.MethodPost, "/echo", `{"name":"x"}`)
		req.Header.Set(HeaderCorrelationID, "  cid-123 ")

		// Act
		rec := env.serve(req)

		// Assert
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cid-123", rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("correlation id is generated when absent", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodPost, "/echo", `{"name":"x"}`))

		// Assert
		assert.NotEmpty(t, rec.Header().Get(HeaderCorrelationID))
	})

	t.Run("body stays readable after logging", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodPost, "/echo", `{"name":"round trip"}`))

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"name": "round trip"}, decode(t, rec)["data"])
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		// Act
		rec := env.serve(env.authed(http.MethodPost, "/echo", `{"name":"x","extra":1}`))

		// Assert
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("accept language selects the request language", func(t *testing.T) {
		// Arrange
		req := httptest.NewRequest(http.MethodGet, "/lang", nil)
		req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.5")

		// Act
		rec := env.serve(req)

		// Assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "id", rec.Header().Get("Content-Language"))
		assert.Equal(t, map[string]any{"name": "id"}, decode(t, rec)["data"])
	})
}

func TestForwardedIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
		ok      bool
	}{
		{name: "true client ip wins", headers: map[string]string{"True-Client-IP": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, want: "1.1.1.1", ok: true},
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": "3.3.3.3, 10.0.0.1"}, want: "3.3.3.3", ok: true},
		{name: "invalid values are skipped", headers: map[string]string{"X-Real-IP": "nope", "X-Forwarded-For": "::1"}, want: "::1", ok: true},
		{name: "nothing usable", headers: map[string]string{"X-Real-IP": "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			// Act
			got, ok := forwardedIP(h)

			// Assert
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequest_Queries(t *testing.T) {
	// Arrange
	req := &Request{Request: httptest.NewRequest(http.MethodGet, "/?page=2&size=x&from=2026-03-01&bad=03/01", nil)}

	// Act
	page, errPage := req.GetQueryInt32("page")
	_, errSize := req.GetQueryInt32("size")
	absent, errAbsent := req.GetQueryInt16("limit")
	from, errFrom := req.GetQueryDate("from", time.DateOnly)
	_, errBad := req.GetQueryDate("bad", time.DateOnly)

	// Assert
	require.NoError(t, errPage)
	assert.Equal(t, int32(2), page)
	assert.Error(t, errSize)
	require.NoError(t, errAbsent)
	assert.Zero(t, absent)
	require.NoError(t, errFrom)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Error(t, errBad)
}
