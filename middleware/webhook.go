package middleware

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	ctxStripeEvent  = "stripe_event"
	maxWebhookBytes = int64(65536)
)

// StripeWebhookAuth verifies the Stripe-Signature header over the raw body.
func StripeWebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}

		event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), secret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			log.Printf("webhook signature rejected: %v", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			return
		}

		c.Set(ctxStripeEvent, event)
		c.Next()
	}
}

// StripeEvent returns the event verified by StripeWebhookAuth.
func StripeEvent(c *gin.Context) (stripe.Event, bool) {
	v, ok := c.Get(ctxStripeEvent)
	if !ok {
		return stripe.Event{}, false
	}
	event, ok := v.(stripe.Event)
	return event, ok
}
