package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/webserver"
	"github.com/nippysky/marobi/pkg/common"
	"gorm.io/gorm"
)

func registerAuthRoutes() {
	webserver.PublicPOST("/admin/login", login)
	webserver.ApiGET("/me", currentUser)
}

type loginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Staff     *domain.Staff `json:"staff"`
}

func login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var staff domain.Staff
	err := GetDB(c).Where("username = ?", strings.TrimSpace(payload.Username)).First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !common.CheckPassword(staff.Password, payload.Password)) {
		return fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query staff", err.Error())
	}
	if staff.Status != common.ENABLED {
		return fail(c, http.StatusForbidden, "ACCOUNT_DISABLED", "Account is disabled", nil)
	}

	cfg := GetAppContext(c).Config().Web
	ttl := time.Duration(cfg.TokenTTL) * time.Hour
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	token, err := webserver.IssueToken(cfg.Secret, &staff, ttl)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", nil)
	}

	now := time.Now()
	GetDB(c).Model(&domain.Staff{}).Where("id = ?", staff.ID).Update("last_login", now)
	staff.LastLogin = now

	return ok(c, loginResponse{Token: token, ExpiresAt: now.Add(ttl), Staff: &staff})
}

func currentUser(c echo.Context) error {
	id := currentStaffID(c)
	var staff domain.Staff
	if err := GetDB(c).Where("id = ?", *id).First(&staff).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query staff", err.Error())
	}
	return ok(c, staff)
}
