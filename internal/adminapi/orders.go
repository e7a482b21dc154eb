package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/notify"
	"github.com/nippysky/marobi/internal/webserver"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/:id", getOrder)
	webserver.ApiPUT("/orders/:id/status", updateOrderStatus)
}

// parseRange reads the optional from/to query params in any layout
// dateparse understands. A date-only "to" includes the whole day.
func parseRange(c echo.Context) (from, to time.Time, err error) {
	if s := strings.TrimSpace(c.QueryParam("from")); s != "" {
		if from, err = dateparse.ParseLocal(s); err != nil {
			return from, to, fmt.Errorf("invalid from date %q", s)
		}
	}
	if s := strings.TrimSpace(c.QueryParam("to")); s != "" {
		if to, err = dateparse.ParseLocal(s); err != nil {
			return from, to, fmt.Errorf("invalid to date %q", s)
		}
		if to.Hour() == 0 && to.Minute() == 0 && to.Second() == 0 && to.Nanosecond() == 0 {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return from, to, nil
}

// orderQuery applies the list filters shared by listing and export.
func orderQuery(c echo.Context) (*gorm.DB, error) {
	db := GetDB(c)
	query := db.Model(&domain.Order{})

	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		query = query.Where("status = ?", status)
	}
	if channel := strings.TrimSpace(c.QueryParam("channel")); channel != "" {
		query = query.Where("channel = ?", channel)
	}
	if currency := strings.TrimSpace(c.QueryParam("currency")); currency != "" {
		query = query.Where("currency = ?", strings.ToUpper(currency))
	}
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") {
			query = query.Where("id ILIKE ? OR guest ILIKE ?", "%"+q+"%", "%"+q+"%")
		} else {
			like := "%" + strings.ToLower(q) + "%"
			query = query.Where("LOWER(id) LIKE ? OR LOWER(guest) LIKE ?", like, like)
		}
	}
	from, to, err := parseRange(c)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at <= ?", to)
	}
	return query, nil
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)
	query, err := orderQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_RANGE", err.Error(), nil)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	orderBy := sortColumn(c, map[string]string{
		"created_at": "created_at",
		"total_ngn":  "total_ngn",
		"status":     "status",
	}, "created_at")

	var rows []domain.Order
	if err := query.Preload("Customer").Order(orderBy).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getOrder(c echo.Context) error {
	o, err := notify.NewGormOrderRepository(GetDB(c)).GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}
	return ok(c, o)
}

type orderStatusPayload struct {
	Status string `json:"status" validate:"required,oneof=Processing Shipped Delivered Cancelled"`
}

var errStatusChanged = errors.New("order status changed concurrently")

// updateOrderStatus moves an order along Processing -> Shipped -> Delivered.
// Cancelling puts the ordered quantities back on their variants.
func updateOrderStatus(c echo.Context) error {
	var payload orderStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	db := GetDB(c)
	o, err := notify.NewGormOrderRepository(db).GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order", err.Error())
	}

	next := domain.OrderStatus(payload.Status)
	if !o.Status.CanMoveTo(next) {
		return fail(c, http.StatusConflict, "INVALID_TRANSITION",
			fmt.Sprintf("Cannot move order from %s to %s", o.Status, next), nil)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Order{}).Where("id = ? AND status = ?", o.ID, o.Status).
			Updates(map[string]interface{}{"status": next, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStatusChanged
		}
		if next != domain.OrderCancelled {
			return nil
		}
		for _, it := range o.Items {
			if err := tx.Model(&domain.Variant{}).Where("id = ?", it.VariantID).
				UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errStatusChanged) {
		return fail(c, http.StatusConflict, "STATUS_CHANGED", "Order was updated by someone else, reload and retry", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order", err.Error())
	}

	zap.L().Info("order status changed",
		zap.String("namespace", "adminapi"),
		zap.String("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(next)),
		zap.String("operator", currentStaffName(c)))
	writeAudit(c, "order.status", fmt.Sprintf("%s %s -> %s", o.ID, o.Status, next))

	o.Status = next
	return ok(c, o)
}
