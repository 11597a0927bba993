package routes

import (
	"net/http"

	"github.com/ashkan-django/bookstore-api/auth"
	"github.com/ashkan-django/bookstore-api/config"
	paymentControllers "github.com/ashkan-django/bookstore-api/controllers/payment"
	"github.com/ashkan-django/bookstore-api/notify"
	"github.com/ashkan-django/bookstore-api/recommend"
	"github.com/ashkan-django/bookstore-api/session"
	"github.com/ashkan-django/bookstore-api/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services are the shared dependencies handed to every route group.
type Services struct {
	Config      config.Config
	DB          *gorm.DB
	Sessions    session.Store
	Tokens      *utils.TokenIssuer
	Payments    paymentControllers.Provider
	Notifier    notify.Notifier
	Hub         *notify.Hub
	Recommender recommend.Recommender
	Google      auth.TokenVerifier // nil disables /auth/google
}

// SetupRoutes is the single entry point that wires up every route group.
func SetupRoutes(r *gin.Engine, s Services) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SetupAuthRoutes(r, s)
	SetupUserRoutes(r, s)
	SetupBookRoutes(r, s)
	SetupOrderRoutes(r, s)
	SetupPaymentRoutes(r, s)
	SetupAdminRoutes(r, s)
}
