package models

import (
	"strconv"
	"time"
)

// GuestCart maps a book id (decimal string) to a quantity.
type GuestCart map[string]int

func guestKey(bookID uint) string {
	return strconv.FormatUint(uint64(bookID), 10)
}

func (g GuestCart) Quantity(bookID uint) int {
	return g[guestKey(bookID)]
}

func (g GuestCart) Set(bookID uint, quantity int) {
	g[guestKey(bookID)] = quantity
}

// Remove reports whether the book was in the cart.
func (g GuestCart) Remove(bookID uint) bool {
	key := guestKey(bookID)
	if _, ok := g[key]; !ok {
		return false
	}
	delete(g, key)
	return true
}

func (g GuestCart) TotalItems() int {
	n := 0
	for _, q := range g {
		n += q
	}
	return n
}

func (g GuestCart) IsEmpty() bool { return len(g) == 0 }

// Entries returns the parsed (book id, quantity) pairs; malformed keys are skipped.
func (g GuestCart) Entries() map[uint]int {
	out := make(map[uint]int, len(g))
	for key, q := range g {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil || q <= 0 {
			continue
		}
		out[uint(id)] = q
	}
	return out
}

// Session is the per-visitor state kept by the session store.
type Session struct {
	Key                   string    `gorm:"column:session_key;primaryKey;size:80" json:"key"`
	GuestCart             GuestCart `gorm:"type:text;serializer:json" json:"cart"`
	LastPurchase          string    `gorm:"size:80" json:"last_purchase"`
	PreventDoublePurchase bool      `json:"prevent_double_purchase"`
	ExpiresAt             time.Time `gorm:"index" json:"expires_at"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Cart returns the guest cart, allocating it on first use.
func (s *Session) Cart() GuestCart {
	if s.GuestCart == nil {
		s.GuestCart = GuestCart{}
	}
	return s.GuestCart
}

func (s *Session) ClearCart() {
	s.GuestCart = GuestCart{}
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// All lists the tables managed by AutoMigrate, parents first.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Book{},
		&Rating{},
		&Favorite{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&WebhookEvent{},
		&Session{},
	}
}
