package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a buyer snapshot taken at checkout. Only Paid and StripeID change afterwards.
type Order struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"not null;index" json:"user_id"`
	FirstName string      `gorm:"size:50" json:"first_name"`
	LastName  string      `gorm:"size:50" json:"last_name"`
	Email     string      `gorm:"size:254" json:"email"`
	Paid      bool        `gorm:"not null;index" json:"paid"`
	StripeID  string      `gorm:"size:250" json:"stripe_id"`
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem freezes the book price at order creation.
type OrderItem struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	OrderID  uint            `gorm:"not null;index" json:"order_id"`
	BookID   uint            `gorm:"not null;index" json:"book_id"`
	Book     Book            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Price    decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"price"`
	Quantity int             `gorm:"not null" json:"quantity"`
}

func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (o Order) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Cost())
	}
	return total
}

func (o Order) TotalQuantity() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// WebhookEvent records provider events already applied, keyed by the provider's event id.
type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:128" json:"event_id"`
	EventType   string    `gorm:"size:64;index" json:"event_type"`
	OrderID     uint      `gorm:"index" json:"order_id"`
	ProcessedAt time.Time `json:"processed_at"`
}
