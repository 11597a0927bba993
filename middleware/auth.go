package middleware

import (
	"net/http"
	"strings"

	"github.com/ashkan-django/bookstore-api/session"
	"github.com/ashkan-django/bookstore-api/utils"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID  = "user_id"
	ctxGuestID = "guest_id"
	ctxRole    = "role"
)

func bearer(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func setClaims(c *gin.Context, claims *utils.JWTClaim) {
	c.Set(ctxRole, claims.Role)
	if claims.IsGuest() {
		c.Set(ctxGuestID, claims.GuestID)
		return
	}
	c.Set(ctxUserID, claims.UserID)
}

func parse(c *gin.Context, issuer *utils.TokenIssuer) (*utils.JWTClaim, bool) {
	tokenString := bearer(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
		return nil, false
	}
	claims, err := issuer.Validate(tokenString, utils.TokenAccess)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return nil, false
	}
	return claims, true
}

// ValidateToken admits registered users only.
func ValidateToken(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parse(c, issuer)
		if !ok {
			return
		}
		if claims.IsGuest() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// ValidateGuestToken admits guest tokens only.
func ValidateGuestToken(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parse(c, issuer)
		if !ok {
			return
		}
		if !claims.IsGuest() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Guest token required"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// ValidateVisitor admits either a user or a guest token.
func ValidateVisitor(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parse(c, issuer)
		if !ok {
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalToken identifies the caller when a token is sent and lets anonymous requests through.
func OptionalToken(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bearer(c) == "" {
			c.Next()
			return
		}
		claims, ok := parse(c, issuer)
		if !ok {
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// StaffRequired must run after ValidateToken.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != utils.RoleStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff only"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

func GuestID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxGuestID)
	return id, id != ""
}

// SessionKey maps the caller to its session store key.
func SessionKey(c *gin.Context) (string, bool) {
	if id, ok := UserID(c); ok {
		return session.UserKey(id), true
	}
	if id, ok := GuestID(c); ok {
		return session.GuestKey(id), true
	}
	return "", false
}
