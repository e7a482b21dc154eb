package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/webserver"
)

func registerSettingsRoutes() {
	superOnly := webserver.RequireLevel(domain.StaffSuper)
	webserver.ApiGET("/settings", listSettings, superOnly)
	webserver.ApiPUT("/settings", saveSettings, superOnly)
}

func listSettings(c echo.Context) error {
	var rows []domain.SysConfig
	if err := GetDB(c).Order("type, sort").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query settings", err.Error())
	}
	return ok(c, rows)
}

// saveSettings takes {"category.name": value}. Checkout settings apply
// after a restart; the rest are read on use.
func saveSettings(c echo.Context) error {
	payload := map[string]interface{}{}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", nil)
	}
	if len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No settings given", nil)
	}
	if err := GetAppContext(c).SaveSettings(payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_SETTING", err.Error(), nil)
	}
	writeAudit(c, "settings.update", "")
	return ok(c, payload)
}
