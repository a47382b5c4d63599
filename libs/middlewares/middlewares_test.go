package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated", incoming: ""},
		{name: "propagated", incoming: "abc-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			RequestIDMiddleware(next).ServeHTTP(w, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		requestID    string
		expectedBody string
	}{
		{name: "with request id", requestID: "req-42", expectedBody: `{"error":"internal server error","requestId":"req-42"}`},
		{name: "without request id", expectedBody: `{"error":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/abc/save", nil)
			if tt.requestID != "" {
				req = req.WithContext(WithRequestID(req.Context(), tt.requestID))
			}
			w := httptest.NewRecorder()
			RecoveryMiddleware(zap.NewNop())(next).ServeHTTP(w, req)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestRecoveryMiddleware_AbortHandler(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		RecoveryMiddleware(zap.NewNop())(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name                string
		allowed             []string
		origin              string
		method              string
		requestMethod       string
		expectedStatus      int
		expectedOrigin      string
		expectedCredentials string
		expectedMethods     string
	}{
		{
			name:           "wildcard",
			allowed:        []string{"*"},
			origin:         "https://admin.example",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectedOrigin: "*",
		},
		{
			name:                "listed origin",
			allowed:             []string{"https://admin.example"},
			origin:              "https://ADMIN.example",
			method:              http.MethodGet,
			expectedStatus:      http.StatusOK,
			expectedOrigin:      "https://ADMIN.example",
			expectedCredentials: "true",
		},
		{
			name:           "unlisted origin",
			allowed:        []string{"https://admin.example"},
			origin:         "https://evil.example",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:                "preflight",
			allowed:             []string{"https://admin.example"},
			origin:              "https://admin.example",
			method:              http.MethodOptions,
			requestMethod:       http.MethodPatch,
			expectedStatus:      http.StatusNoContent,
			expectedOrigin:      "https://admin.example",
			expectedCredentials: "true",
			expectedMethods:     corsAllowedMethods,
		},
		{
			name:           "preflight from unlisted origin",
			allowed:        []string{"https://admin.example"},
			origin:         "https://evil.example",
			method:         http.MethodOptions,
			requestMethod:  http.MethodPost,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "options without preflight reaches handler",
			allowed:        []string{"*"},
			origin:         "https://admin.example",
			method:         http.MethodOptions,
			expectedStatus: http.StatusOK,
			expectedOrigin: "*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.requestMethod != "" {
				req.Header.Set("Access-Control-Request-Method", tt.requestMethod)
			}
			w := httptest.NewRecorder()
			CORSMiddleware(tt.allowed)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.expectedCredentials, w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, tt.expectedMethods, w.Header().Get("Access-Control-Allow-Methods"))
			assert.Contains(t, w.Header().Values("Vary"), "Origin")
			if tt.expectedOrigin != "" {
				assert.Equal(t, corsExposedHeaders, w.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequestSizeLimitMiddleware(8, 64)

	tests := []struct {
		name           string
		contentType    string
		body           string
		expectedStatus int
	}{
		{name: "small json", contentType: "application/json", body: "{}", expectedStatus: http.StatusOK},
		{name: "large json", contentType: "application/json", body: strings.Repeat("a", 20), expectedStatus: http.StatusRequestEntityTooLarge},
		{name: "upload within upload limit", contentType: "multipart/form-data; boundary=x", body: strings.Repeat("a", 20), expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			mw(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
