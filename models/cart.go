package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"` // one cart per user
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem rows are unique per (cart, book); adds update the quantity in place.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_cart_book" json:"cart_id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_cart_book" json:"book_id"`
	Book      Book      `gorm:"constraint:OnDelete:CASCADE" json:"book"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cost needs Book preloaded.
func (i CartItem) Cost() decimal.Decimal {
	return i.Book.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c Cart) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Cost())
	}
	return total
}

func (c Cart) TotalQuantity() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
