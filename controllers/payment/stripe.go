package paymentControllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var hundred = decimal.NewFromInt(100)

type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CheckoutRequest is a provider-neutral checkout session request.
type CheckoutRequest struct {
	OrderID    uint
	Email      string
	Currency   string
	SuccessURL string
	CancelURL  string
	Lines      []LineItem
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Provider opens hosted checkout sessions and can expire one that must not be paid.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	ExpireCheckoutSession(ctx context.Context, id string) error
}

// MinorUnits converts a price to the smallest currency unit, rounding half away from zero.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}

// BuildCheckoutRequest needs order.Items with Book preloaded for line names.
func BuildCheckoutRequest(order models.Order, currency, successURL, cancelURL string) CheckoutRequest {
	req := CheckoutRequest{
		OrderID:    order.ID,
		Email:      order.Email,
		Currency:   currency,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Lines:      make([]LineItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		req.Lines = append(req.Lines, LineItem{
			Name:       item.Book.Title,
			UnitAmount: MinorUnits(item.Price),
			Quantity:   int64(item.Quantity),
		})
	}
	return req
}

// StripeProvider creates Stripe Checkout sessions.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, nil)}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(req.OrderID), 10)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	for _, line := range req.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(line.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}
	if sess.URL == "" {
		return CheckoutSession{}, errors.New("stripe returned empty checkout URL")
	}
	return CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) ExpireCheckoutSession(ctx context.Context, id string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := p.api.CheckoutSessions.Expire(id, params); err != nil {
		return fmt.Errorf("stripe expire session %s: %w", id, err)
	}
	return nil
}
