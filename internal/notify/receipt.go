package notify

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/nippysky/marobi/internal/domain"
	"github.com/nippysky/marobi/pkg/common"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Receipt is a rendered order confirmation.
type Receipt struct {
	Subject string
	Text    string
	HTML    string
}

type receiptLine struct {
	Name    string
	Variant string
	Qty     int
	Unit    string
	Total   string
	SizeMod string
}

type receiptView struct {
	OrderID     string
	Buyer       string
	PlacedAt    string
	Payment     string
	Lines       []receiptLine
	DeliveryFee string
	HasDelivery bool
	Total       string
}

var printer = message.NewPrinter(language.English)

// FormatMoney renders amount with the narrow currency symbol and the currency's precision.
func FormatMoney(c domain.Currency, amount decimal.Decimal) string {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return string(c) + " " + amount.StringFixed(2)
	}
	return printer.Sprint(currency.NarrowSymbol(unit.Amount(amount.InexactFloat64())))
}

func variantLabel(color, size string) string {
	var parts []string
	if !common.IsNA(color) {
		parts = append(parts, color)
	}
	if !common.IsNA(size) {
		parts = append(parts, size)
	}
	return strings.Join(parts, " / ")
}

const receiptText = `Thank you for your order{{if .Buyer}}, {{.Buyer}}{{end}}!

Order: {{.OrderID}}
Placed: {{.PlacedAt}}
Payment: {{.Payment}}

{{range .Lines}}- {{.Name}}{{if .Variant}} ({{.Variant}}){{end}} x{{.Qty}} @ {{.Unit}}{{if .SizeMod}} + {{.SizeMod}} size adjustment{{end}} = {{.Total}}
{{end}}{{if .HasDelivery}}
Delivery: {{.DeliveryFee}}{{end}}
Total: {{.Total}}
`

const receiptHTML = `<html><body>
<h2>Thank you for your order{{if .Buyer}}, {{.Buyer}}{{end}}!</h2>
<p>Order <strong>{{.OrderID}}</strong> placed {{.PlacedAt}} ({{.Payment}})</p>
<table cellpadding="6" style="border-collapse:collapse">
<tr><th align="left">Item</th><th>Qty</th><th align="right">Unit</th><th align="right">Total</th></tr>
{{range .Lines}}<tr><td>{{.Name}}{{if .Variant}}<br><small>{{.Variant}}</small>{{end}}{{if .SizeMod}}<br><small>size adjustment {{.SizeMod}}</small>{{end}}</td><td align="center">{{.Qty}}</td><td align="right">{{.Unit}}</td><td align="right">{{.Total}}</td></tr>
{{end}}{{if .HasDelivery}}<tr><td colspan="3">Delivery</td><td align="right">{{.DeliveryFee}}</td></tr>
{{end}}<tr><td colspan="3"><strong>Total</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr>
</table>
</body></html>
`

var (
	textTpl = texttemplate.Must(texttemplate.New("receipt.txt").Parse(receiptText))
	htmlTpl = htmltemplate.Must(htmltemplate.New("receipt.html").Parse(receiptHTML))
)

// ComposeReceipt renders the confirmation for a persisted order.
func ComposeReceipt(order *domain.Order) (*Receipt, error) {
	view := receiptView{
		OrderID:     order.ID,
		Buyer:       order.BuyerName(),
		PlacedAt:    order.CreatedAt.Format("02 Jan 2006 15:04"),
		Payment:     order.PaymentMethod,
		HasDelivery: order.DeliveryFee.IsPositive(),
		DeliveryFee: FormatMoney(order.Currency, order.DeliveryFee),
		Total:       FormatMoney(order.Currency, order.TotalAmount),
	}
	for _, it := range order.Items {
		line := receiptLine{
			Name:    it.Name,
			Variant: variantLabel(it.Color, it.Size),
			Qty:     it.Quantity,
			Unit:    FormatMoney(it.Currency, it.UnitPrice),
			Total:   FormatMoney(it.Currency, it.LineTotal),
		}
		if it.HasSizeMod && it.SizeModFee.IsPositive() {
			line.SizeMod = FormatMoney(it.Currency, it.SizeModFee)
		}
		view.Lines = append(view.Lines, line)
	}

	var text, html bytes.Buffer
	if err := textTpl.Execute(&text, view); err != nil {
		return nil, err
	}
	if err := htmlTpl.Execute(&html, view); err != nil {
		return nil, err
	}
	return &Receipt{
		Subject: "Your Marobi order " + order.ID,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
