package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lexuanthang19/food-deli-deploy/internal/model"
	"github.com/lexuanthang19/food-deli-deploy/internal/utils"
)

const testSecret = "unit-test-secret"

func runWith(t *testing.T, mw echo.MiddlewareFunc, authorization string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, reached
}

func TestJWTAuthRoundTrip(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleStaff, 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTAuth(testSecret)(func(c echo.Context) error {
		id, ok := UserID(c)
		if !ok || id != 42 {
			t.Fatalf("UserID = %d/%v, want 42/true", id, ok)
		}
		if Role(c) != model.RoleStaff {
			t.Fatalf("Role = %q, want staff", Role(c))
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	tok, _ := utils.NewAccessToken("some-other-secret", 42, model.RoleCustomer, 5)
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + tok.Token},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, reached := runWith(t, JWTAuth(testSecret), tc.header)
			if reached {
				t.Fatal("request must not reach the handler")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(model.RoleStaff, model.RoleManager, model.RoleAdmin)
	cases := []struct {
		role string
		want bool
	}{
		{model.RoleStaff, true},
		{model.RoleManager, true},
		{model.RoleAdmin, true},
		{model.RoleCustomer, false},
		{"", false},
	}
	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if tc.role != "" {
			c.Set("role", tc.role)
		}

		reached := false
		handler := mw(func(c echo.Context) error {
			reached = true
			return c.NoContent(http.StatusOK)
		})
		if err := handler(c); err != nil {
			t.Fatalf("role %q: %v", tc.role, err)
		}
		if reached != tc.want {
			t.Fatalf("role %q reached=%v, want %v", tc.role, reached, tc.want)
		}
		if !tc.want && rec.Code != http.StatusForbidden {
			t.Fatalf("role %q status = %d, want 403", tc.role, rec.Code)
		}
	}
}
