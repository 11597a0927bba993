package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	cartControllers "github.com/ashkan-django/bookstore-api/controllers/cart"
	"github.com/ashkan-django/bookstore-api/database"
	"github.com/ashkan-django/bookstore-api/models"
	"github.com/ashkan-django/bookstore-api/session"
	"github.com/ashkan-django/bookstore-api/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MergeNoGuestCart = "no-guest-cart"
	MergeSuccess     = "merged-success"
	MergeEmpty       = "guest-cart-empty"
	MergeFailed      = "merge-failed"
)

type RegisterInput struct {
	Email     string `json:"email" binding:"required,email"`
	FullName  string `json:"full_name"`
	Password  string `json:"password" binding:"required,min=8"`
	Password2 string `json:"password2" binding:"required"`
}

type LoginInput struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	GuestToken string `json:"guest_token"`
}

type RefreshInput struct {
	Refresh string `json:"refresh" binding:"required"`
}

// POST /auth/register
func Register(db *gorm.DB, tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if input.Password != input.Password2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "The two password fields didn't match."})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}

		user := models.User{
			Email:    strings.ToLower(strings.TrimSpace(input.Email)),
			FullName: strings.TrimSpace(input.FullName),
			Password: string(hash),
			Provider: models.ProviderPassword,
		}
		if err := db.Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "A user with that email already exists."})
				return
			}
			log.Printf("register %s: %v", user.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}

		pair, err := tokens.Pair(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": user, "access": pair.Access, "refresh": pair.Refresh})
	}
}

// POST /auth/token
func Login(db *gorm.DB, tokens *utils.TokenIssuer, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var user models.User
		err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if err != nil || user.Password == "" ||
			bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No active account found with the given credentials"})
			return
		}

		pair, err := tokens.Pair(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access":       pair.Access,
			"refresh":      pair.Refresh,
			"merge_status": mergeGuestSession(c.Request.Context(), db, tokens, store, input.GuestToken, user.ID),
		})
	}
}

// POST /auth/token/refresh
func Refresh(db *gorm.DB, tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RefreshInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		claims, err := tokens.Validate(input.Refresh, utils.TokenRefresh)
		if err != nil || claims.IsGuest() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		access, err := tokens.Access(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access": access})
	}
}

// mergeGuestSession moves the cart held by a guest token's session into the
// user's cart and clears the session cart. Failures never block the login.
func mergeGuestSession(ctx context.Context, db *gorm.DB, tokens *utils.TokenIssuer, store session.Store, guestToken string, userID uint) string {
	if guestToken == "" {
		return MergeNoGuestCart
	}
	claims, err := tokens.Validate(guestToken, utils.TokenAccess)
	if err != nil || !claims.IsGuest() {
		return MergeNoGuestCart
	}

	sess, err := store.Load(ctx, session.GuestKey(claims.GuestID))
	if err != nil {
		log.Printf("merge: load guest session %s: %v", claims.GuestID, err)
		return MergeFailed
	}

	merged, err := cartControllers.MergeGuestCart(db, userID, sess.Cart())
	if err != nil {
		log.Printf("merge: guest %s into user %d: %v", claims.GuestID, userID, err)
		return MergeFailed
	}

	sess.ClearCart()
	if err := store.Save(ctx, sess); err != nil {
		log.Printf("merge: clear guest session %s: %v", claims.GuestID, err)
	}
	if !merged {
		return MergeEmpty
	}
	return MergeSuccess
}
