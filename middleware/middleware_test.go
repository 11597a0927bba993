package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/ashkan-django/bookstore-api/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

func init() { gin.SetMode(gin.TestMode) }

var issuer = utils.NewTokenIssuer("test-secret", time.Hour, time.Hour, time.Hour)

func echoRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		key, _ := SessionKey(c)
		c.JSON(http.StatusOK, gin.H{"session": key, "role": c.GetString(ctxRole)})
	})
	r.GET("/", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateToken(t *testing.T) {
	r := echoRouter(ValidateToken(issuer))
	userToken, err := issuer.Access(models.User{ID: 3})
	require.NoError(t, err)
	guestToken, _, err := issuer.Guest("g")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, guestToken).Code)

	w := get(r, userToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session":"user:3"`)
}

func TestValidateGuestToken(t *testing.T) {
	r := echoRouter(ValidateGuestToken(issuer))
	userToken, _ := issuer.Access(models.User{ID: 3})
	guestToken, _, _ := issuer.Guest("g")

	assert.Equal(t, http.StatusForbidden, get(r, userToken).Code)
	w := get(r, guestToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session":"guest:g"`)
}

func TestOptionalToken(t *testing.T) {
	r := echoRouter(OptionalToken(issuer))

	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session":""`)

	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)
}

func TestStaffRequired(t *testing.T) {
	r := echoRouter(ValidateToken(issuer), StaffRequired())
	user, _ := issuer.Access(models.User{ID: 1})
	staff, _ := issuer.Access(models.User{ID: 2, IsStaff: true})

	assert.Equal(t, http.StatusForbidden, get(r, user).Code)
	assert.Equal(t, http.StatusOK, get(r, staff).Code)
}

func TestValidateAPIKey(t *testing.T) {
	r := gin.New()
	r.GET("/", ValidateAPIKey("k1"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req.Header.Set("X-API-KEY", "k1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStripeWebhookAuth(t *testing.T) {
	const secret = "whsec_test"
	r := gin.New()
	r.POST("/hook", StripeWebhookAuth(secret), func(c *gin.Context) {
		event, ok := StripeEvent(c)
		require.True(t, ok)
		c.String(http.StatusOK, string(event.Type))
	})

	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}},"created":%d}`, time.Now().Unix()))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret})

	req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", signed.Header)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "checkout.session.completed", w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(string(payload)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
