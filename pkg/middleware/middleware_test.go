package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/rincon/pkg/auth"
	"github.com/shashiranjanraj/rincon/pkg/middleware"
)

type fakeVerifier map[string]*auth.Claims

func (f fakeVerifier) ValidateToken(t string) (*auth.Claims, error) {
	if c, ok := f[t]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

var verifier = fakeVerifier{"good": {UserID: 7, Role: "vendedor"}}

func whoami(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.UserIDFromCtx(r)
		role, _ := middleware.RoleFromCtx(r)
		if ok {
			w.Header().Set("X-User", role)
			assert.Equal(t, uint(7), id)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	h := middleware.Authenticate(verifier)(whoami(t))

	cases := []struct {
		name   string
		header string
		url    string
		ws     bool
		status int
		body   string
	}{
		{name: "missing", url: "/", status: http.StatusUnauthorized, body: `{"error":"Token requerido"}`},
		{name: "wrong scheme", header: "Basic good", url: "/", status: http.StatusUnauthorized, body: `{"error":"Token requerido"}`},
		{name: "invalid", header: "Bearer nope", url: "/", status: http.StatusUnauthorized, body: `{"error":"Token inválido"}`},
		{name: "valid", header: "Bearer good", url: "/", status: http.StatusOK},
		{name: "query ignored without upgrade", url: "/?token=good", status: http.StatusUnauthorized},
		{name: "query on websocket upgrade", url: "/?token=good", ws: true, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.ws {
				req.Header.Set("Upgrade", "websocket")
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.JSONEq(t, tc.body, rec.Body.String())
			}
			if tc.status == http.StatusOK {
				assert.Equal(t, "vendedor", rec.Header().Get("X-User"))
			}
		})
	}
}

func TestOptionalAuthenticate(t *testing.T) {
	h := middleware.OptionalAuthenticate(verifier)(whoami(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/registro", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))

	req := httptest.NewRequest(http.MethodPost, "/registro", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))

	req = httptest.NewRequest(http.MethodPost, "/registro", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "vendedor", rec.Header().Get("X-User"))
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	opts := middleware.DefaultCORSOptions()
	opts.AllowedOrigins = []string{"https://app.rincon.mx"}
	h := middleware.CORS(opts)(next)

	req := httptest.NewRequest(http.MethodOptions, "/productos", nil)
	req.Header.Set("Origin", "https://app.rincon.mx")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.rincon.mx", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/productos", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestRecoveryRepanicsOnAbort(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLoggerPassesStatusThrough(t *testing.T) {
	h := middleware.Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/productos", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
