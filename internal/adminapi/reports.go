package adminapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/internal/webserver"
	"github.com/shopspring/decimal"
)

func registerReportRoutes() {
	webserver.ApiGET("/reports/sales", salesSummary, webserver.RequireLevel(domain.StaffSuper, domain.StaffManager))
}

type currencyTotal struct {
	Currency domain.Currency `json:"currency"`
	Orders   int             `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type productTotal struct {
	ProductID int64  `json:"productId,string"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

type salesSummaryResponse struct {
	Orders      int             `json:"orders"`
	RevenueNGN  int64           `json:"revenueNgn"`
	MeanNGN     float64         `json:"meanNgn"`
	MedianNGN   float64         `json:"medianNgn"`
	P90NGN      float64         `json:"p90Ngn"`
	ByChannel   map[string]int  `json:"byChannel"`
	ByCurrency  []currencyTotal `json:"byCurrency"`
	TopProducts []productTotal  `json:"topProducts"`
}

// salesSummary reports on non-cancelled orders in the from/to range. Order
// values are compared in the reference currency.
func salesSummary(c echo.Context) error {
	query, err := orderQuery(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_RANGE", err.Error(), nil)
	}
	query = query.Where("status <> ?", domain.OrderCancelled)

	var orders []domain.Order
	if err := query.Select("id", "currency", "channel", "total_amount", "total_ngn").Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}

	resp := salesSummaryResponse{
		Orders:      len(orders),
		ByChannel:   map[string]int{},
		ByCurrency:  []currencyTotal{},
		TopProducts: []productTotal{},
	}
	values := make(stats.Float64Data, 0, len(orders))
	byCurrency := map[domain.Currency]*currencyTotal{}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		resp.RevenueNGN += o.TotalNGN
		values = append(values, float64(o.TotalNGN))
		resp.ByChannel[string(o.Channel)]++
		ct, ok := byCurrency[o.Currency]
		if !ok {
			ct = &currencyTotal{Currency: o.Currency, Revenue: decimal.Zero}
			byCurrency[o.Currency] = ct
		}
		ct.Orders++
		ct.Revenue = ct.Revenue.Add(o.TotalAmount)
		ids = append(ids, o.ID)
	}
	for _, cur := range domain.Currencies {
		if ct, ok := byCurrency[cur]; ok {
			resp.ByCurrency = append(resp.ByCurrency, *ct)
		}
	}

	if len(values) > 0 {
		resp.MeanNGN, _ = values.Mean()
		resp.MedianNGN, _ = values.Median()
		resp.P90NGN, _ = values.Percentile(90)
		for _, v := range []*float64{&resp.MeanNGN, &resp.MedianNGN, &resp.P90NGN} {
			*v, _ = stats.Round(*v, 2)
		}

		limit, _ := strconv.Atoi(c.QueryParam("top"))
		if limit < 1 || limit > 50 {
			limit = 5
		}
		if err := GetDB(c).Model(&domain.OrderItem{}).
			Select("product_id, name, SUM(quantity) AS quantity").
			Where("order_id IN ?", ids).
			Group("product_id, name").
			Order("quantity DESC").
			Limit(limit).
			Scan(&resp.TopProducts).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order items", err.Error())
		}
	}
	return ok(c, resp)
}
