package storeapi

import (
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/webserver"
	"gorm.io/gorm"
)

var initOnce sync.Once

// Init registers the storefront routes. Call before webserver.New.
func Init() {
	initOnce.Do(func() {
		registerCheckoutRoutes()
		registerCatalogRoutes()
		registerShippingRoutes()
	})
}

func ok(c echo.Context, data interface{}) error {
	return webserver.OK(c, data)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return webserver.Fail(c, status, code, message, details)
}

func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetAppContext(c).DB().WithContext(c.Request().Context())
}
