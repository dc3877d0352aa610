package response_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/domain"
	"github.com/LordDigitalis/Sportstaetten-Verwaltung/internal/http/response"
)

func TestWriteDomainErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.ValidationError("bad input"), http.StatusBadRequest},
		{"auth", domain.AuthError("no token"), http.StatusUnauthorized},
		{"forbidden", domain.ForbiddenError("not yours"), http.StatusForbidden},
		{"not found", domain.NotFoundError("booking %d not found", 7), http.StatusNotFound},
		{"conflict", domain.ConflictError("slot taken"), http.StatusConflict},
		{"invalid state", domain.InvalidStateError("only paid bookings can be refunded"), http.StatusBadRequest},
		{"not implemented", domain.NotImplementedError("no refund support"), http.StatusNotImplemented},
		{"external", domain.ExternalError("card payment could not be set up", errors.New("timeout")), http.StatusInternalServerError},
		{"unclassified", errors.New("pq: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		response.WriteDomainError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestWriteDomainErrorNeverLeaksCause(t *testing.T) {
	rec := httptest.NewRecorder()
	response.WriteDomainError(rec, domain.ExternalError("calendar unavailable", errors.New("dial tcp: secret-host refused")))

	body := rec.Body.String()
	if want := "calendar unavailable"; !strings.Contains(body, want) {
		t.Errorf("expected client-safe message %q in body %q", want, body)
	}
	if strings.Contains(body, "secret-host") {
		t.Errorf("underlying cause leaked into response body: %q", body)
	}
}
