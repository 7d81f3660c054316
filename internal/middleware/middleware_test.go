package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/ratelimit"
)

func whoami(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"user_id": GetUserID(r.Context()), "email": GetEmail(r.Context())})
}

func TestAuthenticate(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	token, err := jwtManager.Generate("alice", "alice@example.com")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	handler := Authenticate(jwtManager)(http.HandlerFunc(whoami))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing token", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if tt.wantStatus == http.StatusOK {
				if body["user_id"] != "alice" || body["email"] != "alice@example.com" {
					t.Errorf("unexpected identity: %v", body)
				}
			} else if body["code"] != "unauthenticated" {
				t.Errorf("code = %q, want unauthenticated", body["code"])
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(0.001, 2)
	handler := RateLimit(limiter, metrics.New())(http.HandlerFunc(whoami))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithUser(req.Context(), "bob", ""))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("request %d: status = %d, want %d", i, statuses[i], want[i])
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code connect.Code
		want int
	}{
		{connect.CodeInvalidArgument, http.StatusBadRequest},
		{connect.CodeUnauthenticated, http.StatusUnauthorized},
		{connect.CodePermissionDenied, http.StatusForbidden},
		{connect.CodeNotFound, http.StatusNotFound},
		{connect.CodeResourceExhausted, http.StatusTooManyRequests},
		{connect.CodeInternal, http.StatusInternalServerError},
		{connect.CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.code); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "client error keeps its message",
			err:         connect.NewError(connect.CodeNotFound, errors.New("group g1: not found")),
			wantStatus:  http.StatusNotFound,
			wantCode:    "not_found",
			wantMessage: "group g1: not found",
		},
		{
			name:        "internal error hides storage detail",
			err:         connect.NewError(connect.CodeInternal, errors.New("failed to list payments: database is locked")),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal",
			wantMessage: "internal error",
		},
		{
			name:        "plain error hides detail",
			err:         errors.New("pq: relation \"expenses\" does not exist"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "unknown",
			wantMessage: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["code"] != tt.wantCode || body["message"] != tt.wantMessage {
				t.Errorf("body = %v, want code %q message %q", body, tt.wantCode, tt.wantMessage)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(connect.NewError(connect.CodeNotFound, errors.New("x"))); got != connect.CodeNotFound {
		t.Errorf("CodeOf(connect error) = %v", got)
	}
	if got := CodeOf(errors.New("plain")); got != connect.CodeUnknown {
		t.Errorf("CodeOf(plain) = %v", got)
	}
}
