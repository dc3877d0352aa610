package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	mw "github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/middleware"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/pkg/auth"
)

const secret = "test-secret"

func protected(t *testing.T, roles ...string) http.Handler {
	t.Helper()

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := mw.Claims(r)
		if claims == nil {
			t.Error("claims missing inside protected handler")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	if len(roles) > 0 {
		handler = mw.RequireRole(roles...)(handler)
	}
	return mw.RequireJWT(secret)(handler)
}

func TestRequireJWT(t *testing.T) {
	token, err := auth.NewToken(1, domain.RoleCitizen, secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		protected(t).ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestRequireJWTRejectsExpired(t *testing.T) {
	token, err := auth.NewToken(1, domain.RoleCitizen, secret, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(t).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	citizen, _ := auth.NewToken(1, domain.RoleCitizen, secret, time.Hour)
	manager, _ := auth.NewToken(2, domain.RoleManager, secret, time.Hour)
	admin, _ := auth.NewToken(3, domain.RoleAdmin, secret, time.Hour)

	staffOnly := protected(t, domain.RoleAdmin, domain.RoleManager)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"citizen blocked", citizen, http.StatusForbidden},
		{"manager allowed", manager, http.StatusNoContent},
		{"admin allowed", admin, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tc.token)
		rec := httptest.NewRecorder()
		staffOnly.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}
