package utils

import (
	"errors"
	"time"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"

	RoleGuest = "guest"
	RoleStaff = "staff"
)

// JWTClaim is carried by every token the API issues.
type JWTClaim struct {
	UserID  uint   `json:"user_id,omitempty"`
	GuestID string `json:"guest_id,omitempty"`
	Role    string `json:"role"`
	Type    string `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *JWTClaim) IsGuest() bool { return c.Role == RoleGuest }

// TokenIssuer signs and validates HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	guestTTL   time.Duration
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL, guestTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL, guestTTL: guestTTL}
}

// TokenPair is returned by login and registration.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (i *TokenIssuer) Pair(user models.User) (TokenPair, error) {
	access, err := i.sign(user.ID, "", user.Role(), TokenAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(user.ID, "", user.Role(), TokenRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (i *TokenIssuer) Access(user models.User) (string, error) {
	return i.sign(user.ID, "", user.Role(), TokenAccess, i.accessTTL)
}

// Guest issues an access token for an anonymous visitor.
func (i *TokenIssuer) Guest(guestID string) (string, time.Time, error) {
	expires := time.Now().Add(i.guestTTL)
	token, err := i.sign(0, guestID, RoleGuest, TokenAccess, i.guestTTL)
	return token, expires, err
}

func (i *TokenIssuer) sign(userID uint, guestID, role, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaim{
		UserID:  userID,
		GuestID: guestID,
		Role:    role,
		Type:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Validate parses a signed token and checks its type.
func (i *TokenIssuer) Validate(signed, kind string) (*JWTClaim, error) {
	token, err := jwt.ParseWithClaims(signed, &JWTClaim{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JWTClaim)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Type != kind {
		return nil, errors.New("wrong token type")
	}
	if !claims.IsGuest() && claims.UserID == 0 {
		return nil, errors.New("token has no subject")
	}
	if claims.IsGuest() && claims.GuestID == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
