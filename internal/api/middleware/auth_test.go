package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func authProbe(apiKey string) (http.Handler, *bool) {
	reached := new(bool)
	h := APIKeyAuth(apiKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		w.WriteHeader(http.StatusOK)
	}))
	return h, reached
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		method     string
		header     string
		wantCode   int
		wantPass   bool
	}{
		{"no key configured passes everything", "", http.MethodPost, "", http.StatusOK, true},
		{"valid bearer token", "s3cret", http.MethodPost, "Bearer s3cret", http.StatusOK, true},
		{"case-insensitive scheme", "s3cret", http.MethodPost, "bearer s3cret", http.StatusOK, true},
		{"missing header", "s3cret", http.MethodPost, "", http.StatusUnauthorized, false},
		{"wrong token", "s3cret", http.MethodPost, "Bearer nope", http.StatusUnauthorized, false},
		{"wrong scheme", "s3cret", http.MethodPost, "Basic s3cret", http.StatusUnauthorized, false},
		{"preflight bypasses auth", "s3cret", http.MethodOptions, "", http.StatusOK, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, reached := authProbe(tt.configured)
			req := httptest.NewRequest(tt.method, "/honeypot", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantPass, *reached)
		})
	}
}

func TestAuthenticatedKeyInContext(t *testing.T) {
	var got string
	h := APIKeyAuth("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetAPIKey(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "s3cret", got)
}
