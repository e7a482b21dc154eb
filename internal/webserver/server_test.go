package webserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/config"
	"github.com/nippysky/marobi/internal/app"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type echoPayload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

func init() {
	ApiGET("/test/whoami", func(c echo.Context) error {
		return OK(c, CurrentStaff(c).Username)
	})
	ApiGET("/test/super", func(c echo.Context) error {
		return OK(c, "ok")
	}, RequireLevel(domain.StaffSuper))
	PublicPOST("/test/echo", func(c echo.Context) error {
		var p echoPayload
		if err := c.Bind(&p); err != nil {
			return err
		}
		if err := c.Validate(&p); err != nil {
			return ValidationFailed(c, err)
		}
		return Created(c, p)
	})
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.Web.Secret = testSecret
	return New(app.NewApplication(&cfg)).Echo()
}

func doRequest(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenRoundTrip(t *testing.T) {
	staff := &domain.Staff{ID: 42, Username: "tola", Level: domain.StaffManager}
	token, err := IssueToken(testSecret, staff, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "tola", claims.Username)
	assert.Equal(t, domain.StaffManager, claims.Level)
	assert.Equal(t, int64(42), claims.StaffID())

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	expired, err := IssueToken(testSecret, staff, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/admin/test/whoami", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")

	rec = doRequest(e, http.MethodGet, "/api/v1/admin/test/whoami", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := IssueToken(testSecret, &domain.Staff{ID: 7, Username: "clerk1", Level: domain.StaffClerk}, time.Hour)
	require.NoError(t, err)
	rec = doRequest(e, http.MethodGet, "/api/v1/admin/test/whoami", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":"clerk1"}`, rec.Body.String())

	rec = doRequest(e, http.MethodGet, "/api/v1/admin/test/super", "", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	superToken, err := IssueToken(testSecret, &domain.Staff{ID: 1, Username: "admin", Level: domain.StaffSuper}, time.Hour)
	require.NoError(t, err)
	rec = doRequest(e, http.MethodGet, "/api/v1/admin/test/super", "", superToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicRouteValidation(t *testing.T) {
	e := newTestServer(t)

	rec := doRequest(e, http.MethodPost, "/api/v1/test/echo", `{"name":"Ada","email":"ada@example.com"}`, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"name":"Ada","email":"ada@example.com"}}`, rec.Body.String())

	rec = doRequest(e, http.MethodPost, "/api/v1/test/echo", `{"email":"not-an-email"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	assert.Contains(t, rec.Body.String(), `"name":"required"`)
	assert.Contains(t, rec.Body.String(), `"email":"email"`)

	rec = doRequest(e, http.MethodPost, "/api/v1/test/echo", `{"name":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	e := newTestServer(t)
	rec := doRequest(e, http.MethodGet, "/api/v1/nothing-here", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"Not Found"`)
}
