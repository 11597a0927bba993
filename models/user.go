package models

import "time"

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName   string    `json:"full_name"`
	Password   string    `json:"-"`
	Picture    string    `json:"picture,omitempty"`
	Provider   string    `gorm:"size:20;not null" json:"provider"`
	IsStaff    bool      `gorm:"not null" json:"is_staff"`
	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`

	Cart   *Cart   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"cart,omitempty"`
	Orders []Order `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"orders,omitempty"`
}

// Role is the value carried in access tokens.
func (u User) Role() string {
	if u.IsStaff {
		return "staff"
	}
	return "user"
}
