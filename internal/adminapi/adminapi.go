package adminapi

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/app"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/webserver"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var initOnce sync.Once

// Init registers the back-office routes. Call before webserver.New.
func Init() {
	initOnce.Do(func() {
		registerAuthRoutes()
		registerProductRoutes()
		registerVariantRoutes()
		registerCustomerRoutes()
		registerStaffRoutes()
		registerOrderRoutes()
		registerSalesRoutes()
		registerExportRoutes()
		registerReportRoutes()
		registerReceiptRoutes()
		registerSettingsRoutes()
	})
}

func ok(c echo.Context, data interface{}) error {
	return webserver.OK(c, data)
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return webserver.Paged(c, data, total, page, pageSize)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return webserver.Fail(c, status, code, message, details)
}

func handleValidationError(c echo.Context, err error) error {
	return webserver.ValidationFailed(c, err)
}

func GetAppContext(c echo.Context) app.AppContext {
	return webserver.GetAppContext(c)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB().WithContext(c.Request().Context())
}

func parsePagination(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// sortColumn returns the whitelisted column for the sort query param.
func sortColumn(c echo.Context, allowed map[string]string, def string) string {
	col, ok := allowed[c.QueryParam("sort")]
	if !ok {
		col = def
	}
	order := "DESC"
	if c.QueryParam("order") == "ASC" {
		order = "ASC"
	}
	return col + " " + order
}

func currentStaffID(c echo.Context) *int64 {
	claims := webserver.CurrentStaff(c)
	if claims == nil {
		return nil
	}
	id := claims.StaffID()
	return &id
}

func currentStaffName(c echo.Context) string {
	if claims := webserver.CurrentStaff(c); claims != nil {
		return claims.Username
	}
	return ""
}

// writeAudit records a back-office action; failures are only logged.
func writeAudit(c echo.Context, action, desc string) {
	entry := domain.AuditLog{
		OprName:   currentStaffName(c),
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}
	if err := GetDB(c).Create(&entry).Error; err != nil {
		zap.L().Error("write audit log", zap.String("namespace", "adminapi"), zap.String("action", action), zap.Error(err))
	}
}
