package paymentControllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/notify"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// POST /payment/webhook
func StripeWebhookHandler(db *gorm.DB, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, ok := middleware.StripeEvent(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing verified event"})
			return
		}

		done, act, err := ParseCompletedSession(event)
		if errors.Is(err, ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed checkout session"})
			return
		}
		if !act {
			c.JSON(http.StatusOK, gin.H{"message": "Event ignored"})
			return
		}

		order, applied, err := FulfillOrder(db, done)
		if errors.Is(err, ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			log.Printf("webhook %s: fulfill order %d: %v", done.EventID, done.OrderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fulfill order"})
			return
		}
		if !applied {
			log.Printf("webhook %s: order %d already fulfilled", done.EventID, order.ID)
			c.JSON(http.StatusOK, gin.H{"message": "Order already paid"})
			return
		}

		notifier.OrderPaid(order)
		log.Printf("webhook %s: order %d paid", done.EventID, order.ID)
		c.JSON(http.StatusOK, gin.H{"message": "Order paid"})
	}
}

// GET /payment/completed
func Completed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Payment Completed"})
}

// GET /payment/canceled
func Canceled(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "canceled", "message": "Payment Canceled"})
}
