package paymentControllers

import (
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOrderNotFound = errors.New("Order not found")

// CompletedSession is the part of a checkout.session.completed event we act on.
type CompletedSession struct {
	EventID       string
	OrderID       uint
	PaymentIntent string
	Paid          bool
}

// ParseCompletedSession reports ok=false for events that do not complete a paid checkout.
func ParseCompletedSession(event stripe.Event) (CompletedSession, bool, error) {
	if event.Type != stripe.EventTypeCheckoutSessionCompleted || event.Data == nil {
		return CompletedSession{}, false, nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return CompletedSession{}, false, err
	}
	if sess.Mode != stripe.CheckoutSessionModePayment || sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return CompletedSession{}, false, nil
	}

	orderID, err := strconv.ParseUint(sess.ClientReferenceID, 10, 64)
	if err != nil || orderID == 0 {
		return CompletedSession{}, false, ErrOrderNotFound
	}
	out := CompletedSession{EventID: event.ID, OrderID: uint(orderID), Paid: true}
	if sess.PaymentIntent != nil {
		out.PaymentIntent = sess.PaymentIntent.ID
	}
	return out, true, nil
}

// FulfillOrder marks the order paid, takes its items out of stock and empties the
// buyer's cart. It returns applied=false when the order was already paid or the
// event was seen before.
func FulfillOrder(db *gorm.DB, done CompletedSession) (models.Order, bool, error) {
	var order models.Order
	applied := false

	err := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, done.OrderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if order.Paid {
			return nil
		}
		if done.EventID != "" {
			var seen int64
			if err := tx.Model(&models.WebhookEvent{}).Where("event_id = ?", done.EventID).Count(&seen).Error; err != nil {
				return err
			}
			if seen > 0 {
				return nil
			}
		}

		if err := tx.Model(&order).Updates(map[string]interface{}{
			"paid":      true,
			"stripe_id": done.PaymentIntent,
		}).Error; err != nil {
			return err
		}
		order.Paid = true
		order.StripeID = done.PaymentIntent

		if err := tx.Where("order_id = ?", order.ID).Order("id").Find(&order.Items).Error; err != nil {
			return err
		}
		for _, item := range order.Items {
			var book models.Book
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&book, item.BookID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			stock := book.Stock - item.Quantity
			if stock < 0 {
				log.Printf("stock for book %d would go negative (%d), clamping at 0 for order %d", book.ID, stock, order.ID)
				stock = 0
			}
			if err := tx.Model(&book).Update("stock", stock).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("cart_id IN (?)",
			tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", order.UserID),
		).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		if done.EventID != "" {
			if err := tx.Create(&models.WebhookEvent{
				EventID:     done.EventID,
				EventType:   string(stripe.EventTypeCheckoutSessionCompleted),
				OrderID:     order.ID,
				ProcessedAt: time.Now(),
			}).Error; err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	return order, applied, err
}
