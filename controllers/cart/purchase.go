package cartControllers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/session"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// POST /books/:id/purchase
//
// Adds one copy to the caller's cart. Repeating the same purchase before the
// catalog is listed again is reported instead of applied.
func QuickPurchase(db *gorm.DB, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrBookNotFound.Error()})
			return
		}
		sess, ok := loadSession(c, store)
		if !ok {
			return
		}

		current := fmt.Sprintf("%s-%d", sess.Key, bookID)
		if sess.LastPurchase == current && sess.PreventDoublePurchase {
			c.JSON(http.StatusOK, gin.H{"duplicate": true, "message": "You've already added this item!"})
			return
		}

		var title string
		var total int
		if userID, isUser := middleware.UserID(c); isUser {
			item, err := AddItem(db, userID, uint(bookID), 1)
			if err != nil {
				cartError(c, err)
				return
			}
			title, total = item.Book.Title, item.Quantity
		} else {
			book, q, err := AddGuestItem(db, sess.Cart(), uint(bookID), 1)
			if err != nil {
				cartError(c, err)
				return
			}
			title, total = book.Title, q
		}

		sess.LastPurchase = current
		sess.PreventDoublePurchase = true
		if !saveSession(c, store, sess) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"duplicate": false, "success": addedMessage(title, total)})
	}
}

// ResetPurchaseGuard re-arms quick purchase for the caller's session.
func ResetPurchaseGuard(c *gin.Context, store session.Store) {
	key, ok := middleware.SessionKey(c)
	if !ok {
		return
	}
	sess, err := store.Load(c.Request.Context(), key)
	if err != nil || !sess.PreventDoublePurchase {
		return
	}
	sess.PreventDoublePurchase = false
	if err := store.Save(c.Request.Context(), sess); err != nil {
		log.Printf("purchase guard: save session %s: %v", key, err)
	}
}
