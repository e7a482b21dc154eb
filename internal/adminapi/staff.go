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

func registerStaffRoutes() {
	superOnly := webserver.RequireLevel(domain.StaffSuper)
	webserver.ApiGET("/staff", listStaff, superOnly)
	webserver.ApiGET("/staff/:id", getStaff, superOnly)
	webserver.ApiPOST("/staff", createStaff, superOnly)
	webserver.ApiPUT("/staff/:id", updateStaff, superOnly)
	webserver.ApiDELETE("/staff/:id", deleteStaff, superOnly)
}

type staffPayload struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"omitempty,min=6"`
	Realname string `json:"realname" validate:"max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Mobile   string `json:"mobile" validate:"max=50"`
	Level    string `json:"level" validate:"required,oneof=super manager clerk"`
	Status   string `json:"status" validate:"omitempty,oneof=enabled disabled"`
	Remark   string `json:"remark"`
}

func listStaff(c echo.Context) error {
	page, pageSize := parsePagination(c)
	base := GetDB(c).Model(&domain.Staff{})
	if level := strings.TrimSpace(c.QueryParam("level")); level != "" {
		base = base.Where("level = ?", level)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query staff", err.Error())
	}
	var rows []domain.Staff
	if err := base.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query staff", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getStaff(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid staff ID", nil)
	}
	var s domain.Staff
	if err := GetDB(c).Where("id = ?", id).First(&s).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query staff", err.Error())
	}
	return ok(c, s)
}

func createStaff(c echo.Context) error {
	var payload staffPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse staff parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	if payload.Password == "" {
		return fail(c, http.StatusBadRequest, "MISSING_PASSWORD", "Password is required", nil)
	}

	username := strings.TrimSpace(payload.Username)
	var exists int64
	GetDB(c).Model(&domain.Staff{}).Where("username = ?", username).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "USERNAME_EXISTS", "Username already exists", nil)
	}

	hashed, err := common.HashPassword(payload.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", nil)
	}
	s := domain.Staff{
		Username: username,
		Password: hashed,
		Realname: payload.Realname,
		Email:    payload.Email,
		Mobile:   payload.Mobile,
		Level:    payload.Level,
		Status:   common.IfEmptyStr(payload.Status, common.ENABLED),
		Remark:   payload.Remark,
	}
	if err := GetDB(c).Create(&s).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create staff", err.Error())
	}
	writeAudit(c, "staff.create", s.Username)
	return ok(c, s)
}

func updateStaff(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid staff ID", nil)
	}
	var payload staffPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse staff parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var s domain.Staff
	if err := GetDB(c).Where("id = ?", id).First(&s).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "STAFF_NOT_FOUND", "Staff not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query staff", err.Error())
	}

	username := strings.TrimSpace(payload.Username)
	if username != s.Username {
		var exists int64
		GetDB(c).Model(&domain.Staff{}).Where("username = ? AND id != ?", username, id).Count(&exists)
		if exists > 0 {
			return fail(c, http.StatusConflict, "USERNAME_EXISTS", "Username already exists", nil)
		}
	}

	updates := map[string]interface{}{
		"username":   username,
		"realname":   payload.Realname,
		"email":      payload.Email,
		"mobile":     payload.Mobile,
		"level":      payload.Level,
		"status":     common.IfEmptyStr(payload.Status, s.Status),
		"remark":     payload.Remark,
		"updated_at": time.Now(),
	}
	if payload.Password != "" {
		hashed, err := common.HashPassword(payload.Password)
		if err != nil {
			return fail(c, http.StatusInternalServerError, "HASH_ERROR", "Failed to hash password", nil)
		}
		updates["password"] = hashed
	}
	if err := GetDB(c).Model(&domain.Staff{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update staff", err.Error())
	}
	GetDB(c).Where("id = ?", id).First(&s)
	writeAudit(c, "staff.update", s.Username)
	return ok(c, s)
}

func deleteStaff(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid staff ID", nil)
	}
	if self := currentStaffID(c); self != nil && *self == id {
		return fail(c, http.StatusBadRequest, "CANNOT_DELETE_SELF", "You cannot delete your own account", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Staff{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete staff", err.Error())
	}
	writeAudit(c, "staff.delete", c.Param("id"))
	return ok(c, map[string]interface{}{"id": id})
}
