package auth

import (
	"net/http"

	"github.com/ashkan-django/bookstore-api/session"
	"github.com/ashkan-django/bookstore-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /auth/guest
func CreateGuestUser(tokens *utils.TokenIssuer, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		guestID := "guest_" + uuid.NewString()

		token, expiresAt, err := tokens.Guest(guestID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		sess, err := store.Load(c.Request.Context(), session.GuestKey(guestID))
		if err == nil {
			err = store.Save(c.Request.Context(), sess)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"guest_id":   guestID,
			"token":      token,
			"expires_at": expiresAt,
		})
	}
}
