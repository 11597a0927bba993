package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrStockExceeded   = errors.New("requested quantity exceeds stock")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// MaxPrice is the first value the numeric(8,2) price column cannot hold.
var MaxPrice = decimal.NewFromInt(1000000)

// StockError names the book whose stock cannot cover a request.
type StockError struct {
	BookID    uint
	Title     string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Not enough stock for %s. Available: %d, Requested: %d", e.Title, e.Available, e.Requested)
}

func (e *StockError) Is(target error) bool { return target == ErrStockExceeded }

type Book struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Title       string          `gorm:"size:264;not null;index" json:"title"`
	Author      string          `gorm:"size:264;not null" json:"author"`
	Description string          `gorm:"type:text" json:"description"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Ratings   []Rating   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Favorites []Favorite `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Validate enforces the catalog invariants before a write.
func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(b.Author) == "" {
		return errors.New("author is required")
	}
	if b.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	if b.Price.GreaterThanOrEqual(MaxPrice) {
		return errors.New("price must be less than 1000000")
	}
	if b.Stock < 0 {
		return errors.New("stock cannot be negative")
	}
	return nil
}

func (b Book) StockLowerThan10() bool {
	return b.Stock < 10
}

// NormalizePrice rounds the price to the two decimals the column stores.
func (b *Book) NormalizePrice() {
	b.Price = b.Price.Round(2)
}

// CheckQuantity fails with ErrInvalidQuantity for non-positive quantities and
// with a *StockError when quantity exceeds the stock.
func (b Book) CheckQuantity(quantity int) error {
	return b.CheckAdd(0, quantity)
}

// CheckAdd checks adding quantity to current copies already held. The
// comparison is done without forming current+quantity so it cannot overflow.
func (b Book) CheckAdd(current, quantity int) error {
	if quantity <= 0 || current < 0 {
		return ErrInvalidQuantity
	}
	if quantity > b.Stock-current {
		requested := math.MaxInt
		if quantity <= math.MaxInt-current {
			requested = current + quantity
		}
		return &StockError{BookID: b.ID, Title: b.Title, Available: b.Stock, Requested: requested}
	}
	return nil
}

// BookSummary is the short book shape embedded in cart and order payloads.
type BookSummary struct {
	ID    uint            `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

func (b Book) Summary() BookSummary {
	return BookSummary{ID: b.ID, Title: b.Title, Price: b.Price}
}

const (
	MinRate = 1.0
	MaxRate = 5.0
)

var ErrRateOutOfRange = fmt.Errorf("rate must be between %.1f and %.1f", MinRate, MaxRate)

// Rating is unique per (user, book); rating again updates the row.
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_rating_user_book" json:"user_id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_rating_user_book" json:"book_id"`
	Rate      float64   `gorm:"not null" json:"rate"`
	Review    string    `gorm:"type:text" json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidateRate(rate float64) error {
	if rate < MinRate || rate > MaxRate {
		return ErrRateOutOfRange
	}
	return nil
}

// Favorite exists while the user has the book favorited.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_book" json:"user_id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_book" json:"book_id"`
	Book      Book      `json:"book"`
	CreatedAt time.Time `json:"created_at"`
}
