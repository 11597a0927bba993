package cartControllers

import (
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/models"
	"github.com/ashkan-django/bookstore-api/session"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GuestCartLine struct {
	Book     models.BookSummary `json:"book"`
	Quantity int                `json:"quantity"`
	Cost     decimal.Decimal    `json:"cost"`
}

type GuestCartResponse struct {
	Items         []GuestCartLine `json:"items"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalQuantity int             `json:"total_quantity"`
}

func loadSession(c *gin.Context, store session.Store) (*models.Session, bool) {
	key, ok := middleware.SessionKey(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	sess, err := store.Load(c.Request.Context(), key)
	if err != nil {
		log.Printf("session load %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return nil, false
	}
	return sess, true
}

func saveSession(c *gin.Context, store session.Store, sess *models.Session) bool {
	if err := store.Save(c.Request.Context(), sess); err != nil {
		log.Printf("session save %s: %v", sess.Key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return false
	}
	return true
}

// GET /guest/cart
func GetGuestCart(db *gorm.DB, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadSession(c, store)
		if !ok {
			return
		}

		entries := sess.Cart().Entries()
		ids := make([]uint, 0, len(entries))
		for id := range entries {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		var books []models.Book
		if len(ids) > 0 {
			if err := db.Where("id IN ?", ids).Order("id").Find(&books).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
				return
			}
		}

		resp := GuestCartResponse{Items: make([]GuestCartLine, 0, len(books)), TotalCost: decimal.Zero}
		for _, book := range books {
			q := entries[book.ID]
			cost := book.Price.Mul(decimal.NewFromInt(int64(q)))
			resp.Items = append(resp.Items, GuestCartLine{Book: book.Summary(), Quantity: q, Cost: cost})
			resp.TotalCost = resp.TotalCost.Add(cost)
			resp.TotalQuantity += q
		}
		c.JSON(http.StatusOK, resp)
	}
}

// POST /guest/cart/add-item
func AddGuestCartItem(db *gorm.DB, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		input, quantity, ok := bindItem(c)
		if !ok {
			return
		}
		sess, ok := loadSession(c, store)
		if !ok {
			return
		}

		book, total, err := AddGuestItem(db, sess.Cart(), input.BookID, quantity)
		if err != nil {
			cartError(c, err)
			return
		}
		if !saveSession(c, store, sess) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": addedMessage(book.Title, total)})
	}
}

// DELETE /guest/cart/:book_id
func DeleteGuestCartItem(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookID, err := strconv.ParseUint(c.Param("book_id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrItemNotFound.Error()})
			return
		}
		sess, ok := loadSession(c, store)
		if !ok {
			return
		}
		if !sess.Cart().Remove(uint(bookID)) {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrItemNotFound.Error()})
			return
		}
		if !saveSession(c, store, sess) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cart item deleted"})
	}
}

// GET /guest/cart/count
func CountGuestCart(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := loadSession(c, store)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": sess.Cart().TotalItems()})
	}
}
