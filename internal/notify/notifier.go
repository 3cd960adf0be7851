package notify

import (
	"bytes"
	"text/template"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/pharmakart/pharmacy-api/internal/domain"
)

// Config is injected at construction; the notifier never reads process
// state.
type Config struct {
	From       string
	AdminEmail string
}

type Notifier struct {
	cfg    Config
	mailer Mailer
	log    zerolog.Logger
}

func New(cfg Config, mailer Mailer, log zerolog.Logger) *Notifier {
	return &Notifier{cfg: cfg, mailer: mailer, log: log}
}

type orderItemContext struct {
	Name      string
	Variant   string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type orderContext struct {
	OrderID         string
	Date            string
	CustomerName    string
	Email           string
	Phone           string
	ShippingAddress string
	PaymentMethod   string
	Total           decimal.Decimal
	Items           []orderItemContext
}

var customerTmpl = template.Must(template.New("customer").Parse(
	`Thank you for your order, {{.CustomerName}}!

Order ID: {{.OrderID}}
Date: {{.Date}}
Total: ${{.Total}}
Payment Method: {{.PaymentMethod}}
Shipping Address: {{.ShippingAddress}}

Items:
{{range .Items}}- {{.Quantity}} x {{.Name}}{{if .Variant}} ({{.Variant}}){{end}} - ${{.UnitPrice}} (line: ${{.LineTotal}})
{{end}}
We will process your order soon.
`))

var adminTmpl = template.Must(template.New("admin").Parse(
	`A new order has been placed.

Order ID: {{.OrderID}}
Date: {{.Date}}
Customer: {{.CustomerName}}
Customer Email: {{.Email}}
Phone: {{.Phone}}
Total: ${{.Total}}
Payment Method: {{.PaymentMethod}}
Shipping Address: {{.ShippingAddress}}

Items:
{{range .Items}}- {{.Quantity}} x {{.Name}}{{if .Variant}} ({{.Variant}}){{end}} - ${{.UnitPrice}} (line: ${{.LineTotal}})
{{end}}`))

var prescriptionTmpl = template.Must(template.New("prescription").Parse(
	`A prescription request has been submitted.

Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}

Message:
{{.Message}}
`))

// OrderPlaced sends the customer confirmation and the admin notification.
// Each send is attempted independently and failures are only logged: the
// order is already committed and its outcome must not depend on mail.
func (n *Notifier) OrderPlaced(order *domain.Order, customerName string) {
	octx := buildOrderContext(order, customerName)

	customerBody, err := render(customerTmpl, octx)
	if err != nil {
		n.log.Error().Err(err).Str("order", order.UniqueOrderID).Msg("render customer email")
		return
	}
	adminBody, err := render(adminTmpl, octx)
	if err != nil {
		n.log.Error().Err(err).Str("order", order.UniqueOrderID).Msg("render admin email")
		return
	}

	var g errgroup.Group
	g.Go(func() error {
		n.send(order.Email, "Order Confirmation - Order "+order.UniqueOrderID, customerBody)
		return nil
	})
	g.Go(func() error {
		n.send(n.cfg.AdminEmail, "New Order Notification - Order "+order.UniqueOrderID, adminBody)
		return nil
	})
	_ = g.Wait()
}

func (n *Notifier) send(to, subject, body string) {
	if err := n.mailer.Send([]string{to}, subject, body); err != nil {
		nerr := &domain.NotificationError{Recipient: to, Err: err}
		n.log.Error().Err(nerr).Msg("email send")
	}
}

// PrescriptionRequest carries the free-form intake form. It is mailed to the
// admin recipient and never persisted.
type PrescriptionRequest struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

func (n *Notifier) Prescription(req PrescriptionRequest) error {
	body, err := render(prescriptionTmpl, req)
	if err != nil {
		return err
	}
	if err := n.mailer.Send([]string{n.cfg.AdminEmail}, "New Prescription Request", body); err != nil {
		nerr := &domain.NotificationError{Recipient: n.cfg.AdminEmail, Err: err}
		n.log.Error().Err(nerr).Msg("prescription email send")
		return nerr
	}
	return nil
}

func buildOrderContext(order *domain.Order, customerName string) orderContext {
	if customerName == "" {
		customerName = "Guest"
	}
	octx := orderContext{
		OrderID:         order.UniqueOrderID,
		Date:            order.CreatedAt.Format("2006-01-02 15:04"),
		CustomerName:    customerName,
		Email:           order.Email,
		Phone:           order.Phone,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		Total:           order.TotalPrice,
	}
	for _, it := range order.Items {
		octx.Items = append(octx.Items, orderItemContext{
			Name:      it.ProductName,
			Variant:   it.VariantName,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			LineTotal: it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return octx
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
