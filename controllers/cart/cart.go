package cartControllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartItemInput struct {
	BookID   uint        `json:"book_id" binding:"required"`
	Quantity json.Number `json:"quantity" binding:"required"`
}

type CartItemResponse struct {
	ID        uint               `json:"id"`
	Book      models.BookSummary `json:"book"`
	Quantity  int                `json:"quantity"`
	Cost      decimal.Decimal    `json:"cost"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type CartResponse struct {
	ID            uint               `json:"id"`
	Items         []CartItemResponse `json:"items"`
	TotalCost     decimal.Decimal    `json:"total_cost"`
	TotalQuantity int                `json:"total_quantity"`
}

func NewCartResponse(cart models.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemResponse{
			ID:        item.ID,
			Book:      item.Book.Summary(),
			Quantity:  item.Quantity,
			Cost:      item.Cost(),
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return CartResponse{ID: cart.ID, Items: items, TotalCost: cart.TotalCost(), TotalQuantity: cart.TotalQuantity()}
}

func addedMessage(title string, quantity int) string {
	return fmt.Sprintf("%s has been added to your cart. Quantity: %d", title, quantity)
}

// cartError maps cart failures to a status and message.
func cartError(c *gin.Context, err error) {
	var stockErr *models.StockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": stockErr.Error()})
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrCartExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrCartNotFound), errors.Is(err, ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("cart: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
	}
}

func bindItem(c *gin.Context) (CartItemInput, int, bool) {
	var input CartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return input, 0, false
	}
	quantity, err := ParseQuantity(input.Quantity.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return input, 0, false
	}
	return input, quantity, true
}

// GET /cart
func GetUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		cart, err := LoadCart(db, userID)
		if err != nil {
			cartError(c, err)
			return
		}
		c.JSON(http.StatusOK, NewCartResponse(cart))
	}
}

// POST /cart
func CreateUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		if _, err := CreateCart(db, userID); err != nil {
			cartError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": "The cart has been created. Now you can add an item to your cart."})
	}
}

// POST /cart/add-item
func AddCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		input, quantity, ok := bindItem(c)
		if !ok {
			return
		}

		item, err := AddItem(db, userID, input.BookID, quantity)
		if err != nil {
			cartError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": addedMessage(item.Book.Title, item.Quantity)})
	}
}

// DELETE /cart/items/:id
func DeleteCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		itemID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrItemNotFound.Error()})
			return
		}

		if err := DeleteItem(db, userID, uint(itemID)); err != nil {
			cartError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted"})
	}
}

// DELETE /cart
func ClearUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		if err := ClearCart(db, userID); err != nil {
			cartError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
	}
}

// GET /cart/count
func CountUserCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.UserID(c)
		count, err := CountItems(db, userID)
		if err != nil {
			cartError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}
