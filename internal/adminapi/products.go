package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/webserver"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type productPayload struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Category    string   `json:"category" validate:"max=100"`
	Description string   `json:"description"`
	Images      []string `json:"images" validate:"dive,url"`
	PriceNGN    *string  `json:"price_ngn"`
	PriceUSD    *string  `json:"price_usd"`
	PriceEUR    *string  `json:"price_eur"`
	PriceGBP    *string  `json:"price_gbp"`
}

// prices parses the optional price strings. An empty string clears a price.
func (p productPayload) prices() (domain.Prices, error) {
	var out domain.Prices
	for _, f := range []struct {
		code domain.Currency
		in   *string
		dst  *decimal.NullDecimal
	}{
		{domain.NGN, p.PriceNGN, &out.NGN},
		{domain.USD, p.PriceUSD, &out.USD},
		{domain.EUR, p.PriceEUR, &out.EUR},
		{domain.GBP, p.PriceGBP, &out.GBP},
	} {
		if f.in == nil || strings.TrimSpace(*f.in) == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(*f.in))
		if err != nil || d.IsNegative() {
			return out, fmt.Errorf("invalid %s price %q", f.code, *f.in)
		}
		*f.dst = decimal.NewNullDecimal(d.Round(2))
	}
	return out, nil
}

func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiPOST("/products/:id/archive", archiveProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := GetDB(c)
	query := db.Model(&domain.Product{})

	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") {
			query = query.Where("name ILIKE ?", "%"+q+"%")
		} else {
			query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
		}
	}
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		query = query.Where("category = ?", category)
	}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	orderBy := sortColumn(c, map[string]string{
		"id":         "id",
		"name":       "name",
		"category":   "category",
		"price_ngn":  "price_ngn",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}, "created_at")

	var rows []domain.Product
	if err := query.Preload("Variants").Order(orderBy).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func findProduct(c echo.Context) (*domain.Product, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Preload("Variants").Where("id = ?", id).First(&p).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return nil, fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query product", err.Error())
	}
	return &p, nil
}

func getProduct(c echo.Context) error {
	p, err := findProduct(c)
	if p == nil {
		return err
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	prices, err := payload.prices()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PRICE", err.Error(), nil)
	}

	p := domain.Product{
		Name:        strings.TrimSpace(payload.Name),
		Category:    strings.TrimSpace(payload.Category),
		Description: payload.Description,
		Images:      payload.Images,
		Prices:      prices,
		Status:      domain.ProductActive,
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	writeAudit(c, "product.create", fmt.Sprintf("created product %d %s", p.ID, p.Name))
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	p, err := findProduct(c)
	if p == nil {
		return err
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	prices, err := payload.prices()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_PRICE", err.Error(), nil)
	}

	changes := domain.Product{
		Name:        strings.TrimSpace(payload.Name),
		Category:    strings.TrimSpace(payload.Category),
		Description: payload.Description,
		Images:      payload.Images,
		Prices:      prices,
		UpdatedAt:   time.Now(),
	}
	err = GetDB(c).Model(&domain.Product{ID: p.ID}).
		Select("name", "category", "description", "images", "price_ngn", "price_usd", "price_eur", "price_gbp", "updated_at").
		Updates(&changes).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	writeAudit(c, "product.update", fmt.Sprintf("updated product %d", p.ID))

	p, err = findProduct(c)
	if p == nil {
		return err
	}
	return ok(c, p)
}

// archiveProduct hides a product from the storefront and checkout. Order
// lines keep their snapshots, so products are never deleted.
func archiveProduct(c echo.Context) error {
	p, err := findProduct(c)
	if p == nil {
		return err
	}
	if err := GetDB(c).Model(&domain.Product{}).Where("id = ?", p.ID).
		Updates(map[string]interface{}{"status": domain.ProductArchived, "updated_at": time.Now()}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to archive product", err.Error())
	}
	writeAudit(c, "product.archive", fmt.Sprintf("archived product %d %s", p.ID, p.Name))
	return ok(c, map[string]interface{}{"id": p.ID, "status": domain.ProductArchived})
}
