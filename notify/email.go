package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/ashkan-django/bookstore-api/models"
	"gopkg.in/gomail.v2"
)

// EmailSender mails the buyer a payment confirmation.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailSender returns a sender that only logs when SMTP credentials are missing.
func NewEmailSender(host string, port int, user, pass, from string) *EmailSender {
	if user == "" || pass == "" {
		log.Println("SMTP credentials not set. Confirmation emails will be logged only.")
		return &EmailSender{from: from}
	}
	return &EmailSender{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

// OrderPaidMessage builds the confirmation email.
func (es *EmailSender) OrderPaidMessage(order models.Order) *gomail.Message {
	body := fmt.Sprintf(`
		<h2>Payment received</h2>
		<p>Dear %s,</p>
		<p>Your payment for order #%d was successful.</p>
		<p>Items: %d<br>Total: %s</p>
		<br>
		<p>Thank you for shopping with us.</p>
	`, order.FirstName, order.ID, order.TotalQuantity(), order.TotalCost().StringFixed(2))

	m := gomail.NewMessage()
	m.SetHeader("From", es.from)
	m.SetHeader("To", order.Email)
	m.SetHeader("Subject", fmt.Sprintf("Order #%d - payment confirmation", order.ID))
	m.SetBody("text/html", body)
	return m
}

func (es *EmailSender) SendOrderPaid(_ context.Context, order models.Order) error {
	if order.Email == "" {
		return nil
	}
	if es.dialer == nil {
		log.Printf("Email disabled. Payment confirmation for order %d to %s", order.ID, order.Email)
		return nil
	}
	if err := es.dialer.DialAndSend(es.OrderPaidMessage(order)); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	log.Printf("Payment confirmation sent for order %d", order.ID)
	return nil
}
