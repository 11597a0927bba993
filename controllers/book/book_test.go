package bookcontroller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ashkan-django/bookstore-api/middleware"
	"github.com/ashkan-django/bookstore-api/models"
	"github.com/ashkan-django/bookstore-api/recommend"
	"github.com/ashkan-django/bookstore-api/session"
	"github.com/ashkan-django/bookstore-api/testutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeRecommender struct {
	ids []uint
	err error
}

func (f fakeRecommender) Recommend(context.Context, uint, int) ([]uint, error) { return f.ids, f.err }

func newRouter(db *gorm.DB, rec recommend.Recommender) *gin.Engine {
	r := gin.New()
	store := session.NewGormStore(db, time.Hour)
	public := r.Group("/", middleware.OptionalToken(testutil.Issuer))
	public.GET("/books", GetBooks(db, store))
	public.GET("/books/:id", GetBookByID(db))

	user := r.Group("/", middleware.ValidateToken(testutil.Issuer))
	user.POST("/books/:id/rate", RateBook(db))
	user.POST("/books/:id/favorite", FavoriteBook(db))
	user.GET("/favorites", GetFavorites(db))
	user.GET("/recommendations", GetRecommendations(db, rec))

	staff := user.Group("/", middleware.StaffRequired())
	staff.POST("/books", CreateBook(db))
	staff.PUT("/books/:id", UpdateBook(db))
	staff.PATCH("/books/:id/stock", UpdateStock(db))
	staff.DELETE("/books/:id", DeleteBook(db))
	return r
}

func TestListBooksWithRatingsAndFavorites(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, recommend.Noop{})
	alice := testutil.CreateUser(t, db, "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob@example.com")
	dune := testutil.CreateBook(t, db, "Dune", "10.00", 3)
	testutil.CreateBook(t, db, "Emma", "7.00", 30)

	_, err := UpsertRating(db, alice.ID, dune.ID, 4, "")
	require.NoError(t, err)
	_, err = UpsertRating(db, bob.ID, dune.ID, 5, "")
	require.NoError(t, err)
	require.NoError(t, AddFavorite(db, alice.ID, dune.ID))

	w := testutil.Do(r, http.MethodGet, "/books?sort_by=title&order=asc", testutil.UserToken(t, alice), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var books []BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, 4.5, books[0].AverageRate)
	assert.Equal(t, int64(2), books[0].RateNumbers)
	assert.True(t, books[0].IsFavorite)
	assert.True(t, books[0].LowStock)
	assert.False(t, books[1].IsFavorite)
	assert.Equal(t, int64(0), books[1].RateNumbers)

	w = testutil.Do(r, http.MethodGet, "/books", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	for _, b := range books {
		assert.False(t, b.IsFavorite)
	}
}

func TestListBooksFilters(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, recommend.Noop{})
	testutil.CreateBook(t, db, "Dune", "10.00", 3)
	testutil.CreateBook(t, db, "Dune Messiah", "25.00", 3)
	testutil.CreateBook(t, db, "Emma", "7.00", 30)

	var books []BookResponse
	w := testutil.Do(r, http.MethodGet, "/books?search=dune&max_price=20", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	w = testutil.Do(r, http.MethodGet, "/books?sort_by=title;drop", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBooksSearchIsLiteral(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, recommend.Noop{})
	testutil.CreateBook(t, db, "Dune", "10.00", 3)
	testutil.CreateBook(t, db, "100% Cotton_Tales", "10.00", 3)

	for search, want := range map[string]int{"%25": 1, "_": 1, "0%25%20c": 1, "o_t": 0, "d%25e": 0} {
		var books []BookResponse
		w := testutil.Do(r, http.MethodGet, "/books?search="+search, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
		assert.Len(t, books, want, search)
	}
}

type saveFailingStore struct{ session.Store }

func (saveFailingStore) Save(context.Context, *models.Session) error {
	return errors.New("session table unavailable")
}

func TestListBooksSurvivesGuardSaveFailure(t *testing.T) {
	db := testutil.NewDB(t)
	store := session.NewGormStore(db, time.Hour)
	user := testutil.CreateUser(t, db, "a@example.com")
	testutil.CreateBook(t, db, "Dune", "10.00", 3)

	sess, err := store.Load(context.Background(), session.UserKey(user.ID))
	require.NoError(t, err)
	sess.PreventDoublePurchase = true
	require.NoError(t, store.Save(context.Background(), sess))

	r := gin.New()
	r.GET("/books", middleware.OptionalToken(testutil.Issuer), GetBooks(db, saveFailingStore{store}))
	w := testutil.Do(r, http.MethodGet, "/books", testutil.UserToken(t, user), nil)
	require.Equal(t, http.StatusOK, w.Code)

	again, err := store.Load(context.Background(), session.UserKey(user.ID))
	require.NoError(t, err)
	assert.True(t, again.PreventDoublePurchase)
}

func TestGetBook(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, recommend.Noop{})
	book := testutil.CreateBook(t, db, "Dune", "10.00", 3)

	w := testutil.Do(r, http.MethodGet, fmt.Sprintf("/books/%d", book.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dune", testutil.Decode(t, w)["title"])

	w = testutil.Do(r, http.MethodGet, "/books/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaffWrites(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, recommend.Noop{})
	staff := testutil.UserToken(t, testutil.CreateStaff(t, db, "staff@example.com"))
	user := testutil.UserToken(t, testutil.CreateUser(t, db, "user@example.com"))

	body := gin.H{"title": "Dune", "author": "Herbert", "price": "9.99", "stock": 4}
	w := testutil.Do(r, http.MethodPost, "/books", user, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Do(r, http.MethodPost, "/books", staff, gin.H{"title": "Dune", "author": "Herbert", "price": -1, "stock": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(r, http.MethodPost, "/books", staff, gin.H{"title": "Dune", "author": "Herbert", "price": "1000000", "stock": 4})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(r, http.MethodPost, "/books", staff, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := uint(testutil.Decode(t, w)["id"].(float64))

	w = testutil.Do(r, http.MethodPut, fmt.Sprintf("/books/%d", id), staff, gin.H{"price": "12.50"})
	require.Equal(t, http.StatusOK, w.Code)
	var book models.Book
	require.NoError(t, db.First(&book, id).Error)
	assert.True(t, decimal.RequireFromString("12.50").Equal(book.Price))
	assert.Equal(t, "Herbert", book.Author)

	w = testutil.Do(r, http.MethodPut, fmt.Sprintf("/books/%d", id), staff, gin.H{"price": "10.005"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10.01", testutil.Decode(t, w)["price"])
	require.NoError(t, db.First(&book, id).Error)
	assert.True(t, decimal.RequireFromString("10.01").Equal(book.Price))

	w = testutil.Do(r, http.MethodPatch, fmt.Sprintf("/books/%d/stock", id), staff, gin.H{"stock": -3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = testutil.Do(r, http.MethodPatch, fmt.Sprintf("/books/%d/stock", id), staff, gin.H{"stock": 40})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 40, testutil.Stock(t, db, id))

	w = testutil.Do(r, http.MethodDelete, fmt.Sprintf("/books/%d", id), staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = testutil.Do(r, http.MethodDelete, fmt.Sprintf("/books/%d", id), staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateBookUpserts(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, recommend.Noop{})
	user := testutil.CreateUser(t, db, "a@example.com")
	token := testutil.UserToken(t, user)
	book := testutil.CreateBook(t, db, "Dune", "10.00", 3)
	path := fmt.Sprintf("/books/%d/rate", book.ID)

	w := testutil.Do(r, http.MethodPost, path, token, gin.H{"rate": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(r, http.MethodPost, path, token, gin.H{"rate": 3, "review": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = testutil.Do(r, http.MethodPost, path, token, gin.H{"rate": 5, "review": "great"})
	require.Equal(t, http.StatusOK, w.Code)

	var ratings []models.Rating
	require.NoError(t, db.Find(&ratings).Error)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5.0, ratings[0].Rate)
	assert.Equal(t, "great", ratings[0].Review)
}

func TestFavoriteToggle(t *testing.T) {
	db := testutil.NewDB(t)
	r := newRouter(db, recommend.Noop{})
	user := testutil.CreateUser(t, db, "a@example.com")
	token := testutil.UserToken(t, user)
	book := testutil.CreateBook(t, db, "Dune", "10.00", 3)
	path := fmt.Sprintf("/books/%d/favorite", book.ID)

	w := testutil.Do(r, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, testutil.Decode(t, w)["is_favorite"])

	w = testutil.Do(r, http.MethodGet, "/favorites", token, nil)
	var favs []BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &favs))
	require.Len(t, favs, 1)
	assert.True(t, favs[0].IsFavorite)

	w = testutil.Do(r, http.MethodPost, path, token, nil)
	assert.Equal(t, false, testutil.Decode(t, w)["is_favorite"])

	w = testutil.Do(r, http.MethodPost, "/books/999/favorite", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecommendations(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "a@example.com")
	a := testutil.CreateBook(t, db, "A", "1.00", 1)
	b := testutil.CreateBook(t, db, "B", "1.00", 1)

	r := newRouter(db, fakeRecommender{ids: []uint{b.ID, 999, a.ID}})
	w := testutil.Do(r, http.MethodGet, "/recommendations", testutil.UserToken(t, user), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var books []BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &books))
	require.Len(t, books, 2)
	assert.Equal(t, "B", books[0].Title)
	assert.Equal(t, "A", books[1].Title)

	r = newRouter(db, fakeRecommender{err: errors.New("down")})
	w = testutil.Do(r, http.MethodGet, "/recommendations", testutil.UserToken(t, user), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestExcelRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	existing := testutil.CreateBook(t, db, "Dune", "10.00", 3)

	existing.Stock = 9
	file, err := BuildBooksWorkbook([]models.Book{existing, {Title: "Emma", Author: "Austen", Price: decimal.RequireFromString("4.50"), Stock: 2}})
	require.NoError(t, err)
	row := file.Sheets[0].AddRow()
	row.AddCell().SetString("")
	row.AddCell().SetString("")

	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))
	parsed, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	result := ImportBooks(db, parsed)
	assert.Equal(t, ImportResult{Created: 1, Updated: 1, Skipped: 1}, result)
	assert.Equal(t, 9, testutil.Stock(t, db, existing.ID))

	var emma models.Book
	require.NoError(t, db.First(&emma, "title = ?", "Emma").Error)
	assert.True(t, decimal.RequireFromString("4.5").Equal(emma.Price))
}
