package cartControllers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/session"
	"github.com/ashkan-django/bookstore-api/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(db *gorm.DB, store session.Store) *gin.Engine {
	r := gin.New()
	user := r.Group("/", middleware.ValidateToken(testutil.Issuer))
	user.GET("/cart", GetUserCart(db))
	user.POST("/cart", CreateUserCart(db))
	user.POST("/cart/add-item", AddCartItem(db))
	user.DELETE("/cart/items/:id", DeleteCartItem(db))
	user.DELETE("/cart", ClearUserCart(db))
	user.GET("/cart/count", CountUserCart(db))

	guest := r.Group("/guest", middleware.ValidateGuestToken(testutil.Issuer))
	guest.GET("/cart", GetGuestCart(db, store))
	guest.POST("/cart/add-item", AddGuestCartItem(db, store))
	guest.DELETE("/cart/:book_id", DeleteGuestCartItem(store))
	guest.GET("/cart/count", CountGuestCart(store))

	r.POST("/books/:id/purchase", middleware.ValidateVisitor(testutil.Issuer), QuickPurchase(db, store))
	return r
}

func TestUserCartFlow(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, session.NewGormStore(db, time.Hour))
	user := testutil.CreateUser(t, db, "a@example.com")
	token := testutil.UserToken(t, user)
	book := testutil.CreateBook(t, db, "Dune", "12.50", 5)

	w := testutil.Do(r, http.MethodGet, "/cart", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.Do(r, http.MethodPost, "/cart", token, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = testutil.Do(r, http.MethodPost, "/cart", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already has a cart.", testutil.Decode(t, w)["error"])

	w = testutil.Do(r, http.MethodPost, "/cart/add-item", token, gin.H{"book_id": book.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Dune has been added to your cart. Quantity: 2", testutil.Decode(t, w)["success"])

	w = testutil.Do(r, http.MethodPost, "/cart/add-item", token, gin.H{"book_id": book.ID, "quantity": "4"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, testutil.Decode(t, w)["error"], "Available: 5")

	w = testutil.Do(r, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := testutil.Decode(t, w)
	assert.Equal(t, "25", body["total_cost"])
	assert.Equal(t, float64(2), body["total_quantity"])

	w = testutil.Do(r, http.MethodGet, "/cart/count", token, nil)
	assert.Equal(t, float64(2), testutil.Decode(t, w)["count"])

	w = testutil.Do(r, http.MethodDelete, "/cart", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutil.Do(r, http.MethodGet, "/cart/count", token, nil)
	assert.Equal(t, float64(0), testutil.Decode(t, w)["count"])
}

func TestAddItemRejectsBadQuantity(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, session.NewGormStore(db, time.Hour))
	user := testutil.CreateUser(t, db, "a@example.com")
	token := testutil.UserToken(t, user)
	book := testutil.CreateBook(t, db, "Dune", "12.50", 5)

	for _, body := range []string{
		fmt.Sprintf(`{"book_id": %d, "quantity": 0}`, book.ID),
		fmt.Sprintf(`{"book_id": %d, "quantity": -2}`, book.ID),
		fmt.Sprintf(`{"book_id": %d, "quantity": "abc"}`, book.ID),
		fmt.Sprintf(`{"book_id": %d, "quantity": 1.5}`, book.ID),
	} {
		w := testutil.Do(r, http.MethodPost, "/cart/add-item", token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Equal(t, 0, itemQuantity(t, db, user.ID, book.ID))

	w := testutil.Do(r, http.MethodPost, "/cart/add-item", token, gin.H{"book_id": book.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = testutil.Do(r, http.MethodPost, "/cart/add-item", token,
		fmt.Sprintf(`{"book_id": %d, "quantity": 9223372036854775807}`, book.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, itemQuantity(t, db, user.ID, book.ID))
}

func TestDeleteOtherUsersItemIsNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, session.NewGormStore(db, time.Hour))
	owner := testutil.CreateUser(t, db, "owner@example.com")
	intruder := testutil.CreateUser(t, db, "intruder@example.com")
	book := testutil.CreateBook(t, db, "Dune", "12.50", 5)
	testutil.CreateCart(t, db, owner.ID, map[uint]int{book.ID: 1})

	var itemID uint
	require.NoError(t, db.Table("cart_items").Select("id").Scan(&itemID).Error)

	w := testutil.Do(r, http.MethodDelete, fmt.Sprintf("/cart/items/%d", itemID), testutil.UserToken(t, intruder), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, itemQuantity(t, db, owner.ID, book.ID))

	w = testutil.Do(r, http.MethodDelete, fmt.Sprintf("/cart/items/%d", itemID), testutil.UserToken(t, owner), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuestCartFlow(t *testing.T) {
	db := testutil.NewDB(t)
	store := session.NewGormStore(db, time.Hour)
	r := newRouter(db, store)
	token := testutil.GuestToken(t, "g1")
	book := testutil.CreateBook(t, db, "Dune", "3.00", 4)

	w := testutil.Do(r, http.MethodPost, "/guest/cart/add-item", token, gin.H{"book_id": book.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = testutil.Do(r, http.MethodPost, "/guest/cart/add-item", token, gin.H{"book_id": book.ID, "quantity": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sess, err := store.Load(context.Background(), session.GuestKey("g1"))
	require.NoError(t, err)
	assert.Equal(t, 3, sess.Cart().Quantity(book.ID))

	w = testutil.Do(r, http.MethodGet, "/guest/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9", testutil.Decode(t, w)["total_cost"])

	w = testutil.Do(r, http.MethodGet, "/guest/cart/count", token, nil)
	assert.Equal(t, float64(3), testutil.Decode(t, w)["count"])

	w = testutil.Do(r, http.MethodDelete, fmt.Sprintf("/guest/cart/%d", book.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutil.Do(r, http.MethodDelete, fmt.Sprintf("/guest/cart/%d", book.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGuestRoutesRejectUserToken(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, session.NewGormStore(db, time.Hour))
	user := testutil.CreateUser(t, db, "a@example.com")

	w := testutil.Do(r, http.MethodGet, "/guest/cart", testutil.UserToken(t, user), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestQuickPurchaseGuard(t *testing.T) {
	db := testutil.NewDB(t)
	store := session.NewGormStore(db, time.Hour)
	r := newRouter(db, store)
	user := testutil.CreateUser(t, db, "a@example.com")
	token := testutil.UserToken(t, user)
	book := testutil.CreateBook(t, db, "Dune", "3.00", 4)
	path := fmt.Sprintf("/books/%d/purchase", book.ID)

	w := testutil.Do(r, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, testutil.Decode(t, w)["duplicate"])

	w = testutil.Do(r, http.MethodPost, path, token, nil)
	assert.Equal(t, true, testutil.Decode(t, w)["duplicate"])
	assert.Equal(t, 1, itemQuantity(t, db, user.ID, book.ID))

	rearm := gin.New()
	rearm.GET("/books", middleware.ValidateVisitor(testutil.Issuer), func(c *gin.Context) {
		ResetPurchaseGuard(c, store)
		c.Status(http.StatusOK)
	})
	testutil.Do(rearm, http.MethodGet, "/books", token, nil)

	w = testutil.Do(r, http.MethodPost, path, token, nil)
	assert.Equal(t, false, testutil.Decode(t, w)["duplicate"])
	assert.Equal(t, 2, itemQuantity(t, db, user.ID, book.ID))
}

func TestQuickPurchaseAsGuest(t *testing.T) {
	db := testutil.NewDB(t)
	store := session.NewGormStore(db, time.Hour)
	r := newRouter(db, store)
	book := testutil.CreateBook(t, db, "Dune", "3.00", 4)

	w := testutil.Do(r, http.MethodPost, fmt.Sprintf("/books/%d/purchase", book.ID), testutil.GuestToken(t, "g2"), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	sess, err := store.Load(context.Background(), session.GuestKey("g2"))
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Cart().Quantity(book.ID))
	assert.True(t, sess.PreventDoublePurchase)
}
