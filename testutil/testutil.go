// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ashkan-django/bookstore-api/models"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// CreateUser inserts a password user; the plain password is "pw".
func CreateUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := models.User{Email: email, FullName: "Test User", Password: string(hash), Provider: models.ProviderPassword}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func CreateStaff(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := CreateUser(t, db, email)
	if err := db.Model(&user).Update("is_staff", true).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	user.IsStaff = true
	return user
}

func CreateBook(t *testing.T, db *gorm.DB, title, price string, stock int) models.Book {
	t.Helper()
	book := models.Book{
		Title:       title,
		Author:      "Test Author",
		Description: "Test Description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
	}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("create book: %v", err)
	}
	return book
}

func CreateCart(t *testing.T, db *gorm.DB, userID uint, items map[uint]int) models.Cart {
	t.Helper()
	cart := models.Cart{UserID: userID}
	if err := db.Create(&cart).Error; err != nil {
		t.Fatalf("create cart: %v", err)
	}
	for bookID, q := range items {
		if err := db.Create(&models.CartItem{CartID: cart.ID, BookID: bookID, Quantity: q}).Error; err != nil {
			t.Fatalf("create cart item: %v", err)
		}
	}
	return cart
}

// Stock re-reads a book's stock.
func Stock(t *testing.T, db *gorm.DB, bookID uint) int {
	t.Helper()
	var book models.Book
	if err := db.First(&book, bookID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	return book.Stock
}
