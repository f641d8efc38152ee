package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestRequireUser(t *testing.T) {
	e := echo.New()
	cases := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"present", "emp-1042", "emp-1042", true},
		{"trimmed", "  emp-7 ", "emp-7", true},
		{"blank", "   ", "", false},
		{"absent", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/inbox", nil)
			if tc.header != "" {
				req.Header.Set(headerUserID, tc.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())
			got, ok := requireUser(c)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("requireUser = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestMissingUser(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil), rec)
	if err := missingUser(c); err != nil {
		t.Fatalf("missingUser: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing Ax-User-Id") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
