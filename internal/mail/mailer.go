package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/spectralabs/spectra-backend/internal/models"
	gomail "gopkg.in/gomail.v2"
)

// Dispatcher sends transactional email. Delivery is best-effort: callers
// log failures and continue, the parent transaction is never rolled back.
type Dispatcher interface {
	SendAccessCode(email, code, sku string) error
	SendBuyConfirmation(order *models.Order, paymentLink string) error
	SendSellConfirmation(order *models.Order) error
	SendPaymentReceipt(order *models.Order) error
	SendSubscriptionConfirmation(sub *models.Subscription, product *models.Submission) error
}

const baseTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <div style="background-color:#f8f9fa;padding:20px;text-align:center;"><h1>{{.Subject}}</h1></div>
  <div style="padding:20px;">{{.Body}}</div>
  <div style="background-color:#f8f9fa;padding:20px;text-align:center;font-size:12px;">
    <p>&copy; Spectra Metal Transactions. All rights reserved.</p>
  </div>
</body>
</html>`

var tmpl = template.Must(template.New("email").Parse(baseTemplate))

// SMTPDispatcher sends mail through a single SMTP dialer, BCCing the admin
// address on every message.
type SMTPDispatcher struct {
	dialer     *gomail.Dialer
	from       string
	adminEmail string
}

func NewSMTPDispatcher(host string, port int, user, pass, from, adminEmail string) *SMTPDispatcher {
	return &SMTPDispatcher{
		dialer:     gomail.NewDialer(host, port, user, pass),
		from:       from,
		adminEmail: adminEmail,
	}
}

func (d *SMTPDispatcher) send(to, subject string, body template.HTML) error {
	var html bytes.Buffer
	if err := tmpl.Execute(&html, struct {
		Subject string
		Body    template.HTML
	}{subject, body}); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", to)
	m.SetHeader("Bcc", d.adminEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html.String())

	return d.dialer.DialAndSend(m)
}

func (d *SMTPDispatcher) SendAccessCode(email, code, sku string) error {
	body := fmt.Sprintf("<p>Your verification code for SKU <b>%s</b> is:</p><h2>%s</h2><p>This code expires in 10 minutes.</p>",
		template.HTMLEscapeString(sku), template.HTMLEscapeString(code))
	return d.send(email, "Verification Code for SKU Access", template.HTML(body))
}

func (d *SMTPDispatcher) SendBuyConfirmation(order *models.Order, paymentLink string) error {
	body := fmt.Sprintf(
		"<p>Thank you %s, your order <b>%s</b> for %.2fg of %s has been received.</p><p>Total: %s</p><p><a href=\"%s\">Complete your payment</a></p>",
		template.HTMLEscapeString(order.Name), order.OrderNumber, order.Grams,
		template.HTMLEscapeString(order.Metal), template.HTMLEscapeString(order.CalculatedPrice),
		paymentLink)
	return d.send(order.Email, "Your Metal Purchase Order Confirmation", template.HTML(body))
}

func (d *SMTPDispatcher) SendSellConfirmation(order *models.Order) error {
	body := fmt.Sprintf(
		"<p>Thank you %s, your sell order <b>%s</b> for %.2fg of %s has been recorded.</p><p>Quoted: %s</p>",
		template.HTMLEscapeString(order.Name), order.OrderNumber, order.Grams,
		template.HTMLEscapeString(order.Metal), template.HTMLEscapeString(order.CalculatedPrice))
	return d.send(order.Email, "Your Metal Sell Order Confirmation", template.HTML(body))
}

func (d *SMTPDispatcher) SendPaymentReceipt(order *models.Order) error {
	receiptLine := ""
	if order.ReceiptURL != "" {
		receiptLine = fmt.Sprintf("<p><a href=\"%s\">Download your receipt</a></p>", order.ReceiptURL)
	}
	body := fmt.Sprintf(
		"<p>We received your payment of $%.2f for order <b>%s</b>.</p>%s",
		order.PriceNumeric, order.OrderNumber, receiptLine)
	return d.send(order.Email, "Payment Receipt", template.HTML(body))
}

func (d *SMTPDispatcher) SendSubscriptionConfirmation(sub *models.Subscription, product *models.Submission) error {
	productLine := ""
	if product != nil {
		productLine = fmt.Sprintf("<p>Covered item: %s (%.2fg of %s)</p>",
			template.HTMLEscapeString(product.Description), product.Grams,
			template.HTMLEscapeString(product.Metal))
	}
	body := fmt.Sprintf(
		"<p>Your %s protection plan for SKU <b>%s</b> is confirmed.</p>%s<p>Current period ends %s.</p>",
		template.HTMLEscapeString(sub.Plan), template.HTMLEscapeString(sub.SKU),
		productLine, sub.CurrentPeriodEnd.Format("January 2, 2006"))
	return d.send(sub.Email, "Protection Plan Confirmation", template.HTML(body))
}
