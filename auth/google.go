package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	firebase "firebase.google.com/go"
	fbauth "firebase.google.com/go/auth"
	"github.com/ashkan-django/bookstore-api/models"
	"github.com/ashkan-django/bookstore-api/session"
	"github.com/ashkan-django/bookstore-api/utils"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// GoogleIdentity is what a verified Google ID token tells us about the caller.
type GoogleIdentity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (GoogleIdentity, error)
}

// FirebaseVerifier checks Google ID tokens with the Firebase Admin SDK.
type FirebaseVerifier struct {
	client    *fbauth.Client
	projectID string
}

func NewFirebaseVerifier(ctx context.Context, credentialsJSON, projectID string) (*FirebaseVerifier, error) {
	opt := option.WithCredentialsJSON([]byte(credentialsJSON))
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client, projectID: projectID}, nil
}

func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (GoogleIdentity, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return GoogleIdentity{}, err
	}
	if token.Audience != v.projectID {
		return GoogleIdentity{}, errors.New("invalid token audience")
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return GoogleIdentity{}, errors.New("token has no email")
	}
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)
	return GoogleIdentity{UID: token.UID, Email: email, Name: name, Picture: picture}, nil
}

// POST /auth/google
func GoogleUserLogin(db *gorm.DB, tokens *utils.TokenIssuer, store session.Store, verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDToken    string `json:"idToken" binding:"required"`
			GuestToken string `json:"guest_token"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		identity, err := verifier.VerifyIDToken(c.Request.Context(), req.IDToken)
		if err != nil {
			log.Printf("google login rejected: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Firebase ID token"})
			return
		}

		var user models.User
		email := strings.ToLower(identity.Email)
		err = db.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Email:    email,
				FullName: identity.Name,
				Picture:  identity.Picture,
				Provider: models.ProviderGoogle,
			}
			if err := db.Create(&user).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
				return
			}
		case err == nil:
			if err := db.Model(&user).Updates(models.User{FullName: identity.Name, Picture: identity.Picture}).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
				return
			}
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		pair, err := tokens.Pair(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "Login successful",
			"merge_status": mergeGuestSession(c.Request.Context(), db, tokens, store, req.GuestToken, user.ID),
			"user":         user,
			"firebase_id":  identity.UID,
			"access":       pair.Access,
			"refresh":      pair.Refresh,
		})
	}
}
