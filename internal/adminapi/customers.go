package adminapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/webserver"
	"gorm.io/gorm"
)

func registerCustomerRoutes() {
	webserver.ApiGET("/customers", listCustomers)
	webserver.ApiGET("/customers/:id", getCustomer)
	webserver.ApiPOST("/customers", createCustomer)
	webserver.ApiPUT("/customers/:id", updateCustomer)
	webserver.ApiDELETE("/customers/:id", deleteCustomer)
}

type customerPayload struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"max=50"`
	Address    string `json:"address"`
	City       string `json:"city" validate:"max=100"`
	State      string `json:"state" validate:"max=100"`
	Country    string `json:"country" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
}

func listCustomers(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := GetDB(c)
	base := db.Model(&domain.Customer{})

	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		if strings.EqualFold(db.Name(), "postgres") {
			base = base.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", like, like, like)
		} else {
			base = base.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
		}
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err.Error())
	}

	var customers []domain.Customer
	if err := base.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&customers).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customers", err.Error())
	}
	return paged(c, customers, total, page, pageSize)
}

func getCustomer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var cust domain.Customer
	if err := GetDB(c).Where("id = ?", id).First(&cust).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customer", err.Error())
	}
	return ok(c, cust)
}

func (p customerPayload) apply(cust *domain.Customer) {
	cust.FirstName = strings.TrimSpace(p.FirstName)
	cust.LastName = strings.TrimSpace(p.LastName)
	cust.Email = strings.ToLower(strings.TrimSpace(p.Email))
	cust.Phone = strings.TrimSpace(p.Phone)
	cust.Address = strings.TrimSpace(p.Address)
	cust.City = strings.TrimSpace(p.City)
	cust.State = strings.TrimSpace(p.State)
	cust.Country = strings.TrimSpace(p.Country)
	cust.PostalCode = strings.TrimSpace(p.PostalCode)
}

func createCustomer(c echo.Context) error {
	var payload customerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse customer parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var cust domain.Customer
	payload.apply(&cust)

	var exists int64
	GetDB(c).Model(&domain.Customer{}).Where("email = ?", cust.Email).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "DUPLICATE_CUSTOMER", "Customer with this email already exists", nil)
	}
	if err := GetDB(c).Create(&cust).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create customer", err.Error())
	}
	writeAudit(c, "customer.create", cust.Email)
	return ok(c, cust)
}

func updateCustomer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var payload customerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse customer parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var cust domain.Customer
	if err := GetDB(c).Where("id = ?", id).First(&cust).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "Customer not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query customer", err.Error())
	}

	payload.apply(&cust)
	var exists int64
	GetDB(c).Model(&domain.Customer{}).Where("email = ? AND id != ?", cust.Email, id).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "DUPLICATE_CUSTOMER", "Another customer with this email already exists", nil)
	}
	if err := GetDB(c).Save(&cust).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update customer", err.Error())
	}
	writeAudit(c, "customer.update", cust.Email)
	return ok(c, cust)
}

func deleteCustomer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	var orders int64
	GetDB(c).Model(&domain.Order{}).Where("customer_id = ?", id).Count(&orders)
	if orders > 0 {
		return fail(c, http.StatusConflict, "CUSTOMER_HAS_ORDERS", "Customer has orders and cannot be deleted", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Customer{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete customer", err.Error())
	}
	writeAudit(c, "customer.delete", c.Param("id"))
	return ok(c, map[string]interface{}{"id": id})
}
