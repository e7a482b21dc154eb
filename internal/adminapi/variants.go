package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/webserver"
	"github.com/nippysky/marobi/pkg/common"
	"gorm.io/gorm"
)

func registerVariantRoutes() {
	webserver.ApiGET("/products/:id/variants", listVariants)
	webserver.ApiPOST("/products/:id/variants", createVariant)
	webserver.ApiPOST("/variants/:vid/restock", restockVariant)
}

type variantPayload struct {
	Color string `json:"color" validate:"max=50"`
	Size  string `json:"size" validate:"max=50"`
	Stock int    `json:"stock" validate:"gte=0"`
}

type restockPayload struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func listVariants(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var rows []domain.Variant
	if err := GetDB(c).Where("product_id = ?", id).Order("id").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query variants", err.Error())
	}
	return ok(c, rows)
}

func normalizeAttr(v string) string {
	if common.IsNA(v) {
		return common.NA
	}
	return strings.TrimSpace(v)
}

func createVariant(c echo.Context) error {
	p, err := findProduct(c)
	if p == nil {
		return err
	}
	var payload variantPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse variant", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	v := domain.Variant{
		ProductID: p.ID,
		Color:     normalizeAttr(payload.Color),
		Size:      normalizeAttr(payload.Size),
		Stock:     payload.Stock,
	}
	var exists int64
	GetDB(c).Model(&domain.Variant{}).
		Where("product_id = ? AND color = ? AND size = ?", v.ProductID, v.Color, v.Size).
		Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "VARIANT_EXISTS", "Variant with this color and size already exists", nil)
	}
	if err := GetDB(c).Create(&v).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create variant", err.Error())
	}
	writeAudit(c, "variant.create", fmt.Sprintf("product %d variant %s/%s stock %d", p.ID, v.Color, v.Size, v.Stock))
	return ok(c, v)
}

// restockVariant only ever adds stock. Decrements belong to order placement.
func restockVariant(c echo.Context) error {
	vid, err := parseIDParam(c, "vid")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid variant ID", nil)
	}
	var payload restockPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse restock request", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	db := GetDB(c)
	res := db.Model(&domain.Variant{}).Where("id = ?", vid).
		UpdateColumn("stock", gorm.Expr("stock + ?", payload.Quantity))
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to restock variant", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "VARIANT_NOT_FOUND", "Variant not found", nil)
	}

	var v domain.Variant
	if err := db.Where("id = ?", vid).First(&v).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query variant", err.Error())
	}
	writeAudit(c, "variant.restock", fmt.Sprintf("variant %d +%d", vid, payload.Quantity))
	return ok(c, v)
}
