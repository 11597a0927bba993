package orderControllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	paymentControllers "github.com/ashkan-django/bookstore-api/controllers/payment"
	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyCart       = errors.New("Your cart is empty!")
	ErrOrderNotFound   = errors.New("Order not found")
	ErrPaymentProvider = errors.New("payment provider unavailable")
)

// -------- Request Structs --------
type CreateOrderRequest struct {
	FirstName string `json:"first_name" binding:"max=50"`
	LastName  string `json:"last_name" binding:"max=50"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// CheckoutConfig carries the provider settings used for every session.
type CheckoutConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// -------- Core Logic --------

// Checkout turns the user's cart into an unpaid order and opens a payment
// session for it. The cart row stays locked for the whole transaction and is
// left intact; it is emptied once the payment is confirmed. A provider failure
// rolls everything back.
func Checkout(ctx context.Context, db *gorm.DB, provider paymentControllers.Provider, cfg CheckoutConfig, userID uint, req CreateOrderRequest) (models.Order, paymentControllers.CheckoutSession, error) {
	var order models.Order
	var session paymentControllers.CheckoutSession

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&cart).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}

		var items []models.CartItem
		if err := tx.Preload("Book").Where("cart_id = ?", cart.ID).Order("id").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}
		for _, item := range items {
			if err := item.Book.CheckQuantity(item.Quantity); err != nil {
				return err
			}
		}

		email := strings.TrimSpace(req.Email)
		if email == "" {
			var user models.User
			if err := tx.Select("email").First(&user, userID).Error; err != nil {
				return err
			}
			email = user.Email
		}

		order = models.Order{
			UserID:    userID,
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     email,
		}
		if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
			return err
		}

		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			orderItems = append(orderItems, models.OrderItem{
				OrderID:  order.ID,
				BookID:   item.BookID,
				Price:    item.Book.Price,
				Quantity: item.Quantity,
			})
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return err
		}
		for i := range orderItems {
			orderItems[i].Book = items[i].Book
		}
		order.Items = orderItems

		checkoutReq := paymentControllers.BuildCheckoutRequest(order, cfg.Currency, cfg.SuccessURL, cfg.CancelURL)
		session, err = provider.CreateCheckoutSession(ctx, checkoutReq)
		if err != nil {
			log.Printf("checkout: order %d for user %d: %v", order.ID, userID, err)
			return fmt.Errorf("%w: %v", ErrPaymentProvider, err)
		}
		return nil
	})
	if err != nil && session.ID != "" {
		// The session exists but the order it references was rolled back.
		log.Printf("checkout: commit failed after session %s for user %d: %v", session.ID, userID, err)
		if expErr := provider.ExpireCheckoutSession(context.WithoutCancel(ctx), session.ID); expErr != nil {
			log.Printf("checkout: could not expire session %s: %v", session.ID, expErr)
		}
		return models.Order{}, paymentControllers.CheckoutSession{}, err
	}
	return order, session, err
}

// -------- Responses --------

type OrderItemResponse struct {
	ID       uint               `json:"id"`
	Book     models.BookSummary `json:"book"`
	Price    decimal.Decimal    `json:"price"`
	Quantity int                `json:"quantity"`
}

type OrderResponse struct {
	ID            uint                `json:"id"`
	UserID        uint                `json:"user_id"`
	FirstName     string              `json:"first_name"`
	LastName      string              `json:"last_name"`
	Email         string              `json:"email"`
	Paid          bool                `json:"paid"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	TotalQuantity int                 `json:"total_quantity"`
	TotalCost     decimal.Decimal     `json:"total_cost"`
	Items         []OrderItemResponse `json:"items"`
}

func NewOrderResponse(order models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		summary := item.Book.Summary()
		summary.ID = item.BookID
		items = append(items, OrderItemResponse{ID: item.ID, Book: summary, Price: item.Price, Quantity: item.Quantity})
	}
	return OrderResponse{
		ID:            order.ID,
		UserID:        order.UserID,
		FirstName:     order.FirstName,
		LastName:      order.LastName,
		Email:         order.Email,
		Paid:          order.Paid,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		TotalQuantity: order.TotalQuantity(),
		TotalCost:     order.TotalCost(),
		Items:         items,
	}
}

func orderResponses(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).Preload("Items.Book")
}

// -------- Handlers --------

// POST /orders
func CreateOrderHandler(db *gorm.DB, provider paymentControllers.Provider, cfg CheckoutConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		userID, _ := middleware.UserID(c)

		order, session, err := Checkout(c.Request.Context(), db, provider, cfg, userID, req)
		var stockErr *models.StockError
		switch {
		case err == nil:
		case errors.Is(err, ErrEmptyCart), errors.Is(err, models.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.As(err, &stockErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": stockErr.Error(), "book_id": stockErr.BookID})
			return
		case errors.Is(err, ErrPaymentProvider):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider is unavailable, please try again"})
			return
		default:
			log.Printf("checkout for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success":      "Your order has been created.",
			"order_id":     order.ID,
			"checkout_url": session.URL,
		})
	}
}

// GET /orders
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		var orders []models.Order
		if err := withItems(db).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orderResponses(orders))
	}
}

// GET /orders/:id
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrOrderNotFound.Error()})
			return
		}

		var order models.Order
		if err := withItems(db).Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": ErrOrderNotFound.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			return
		}
		c.JSON(http.StatusOK, NewOrderResponse(order))
	}
}

// GET /admin/orders
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := withItems(db).Order("created_at DESC").Order("id DESC")
		switch c.Query("paid") {
		case "true":
			query = query.Where("paid = ?", true)
		case "false":
			query = query.Where("paid = ?", false)
		}
		var orders []models.Order
		if err := query.Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orderResponses(orders))
	}
}
