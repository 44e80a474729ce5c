package models

import (
	"time"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:320;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`                           // Hash
	Role      string    `gorm:"size:20;default:'user';not null" json:"role"` // user, admin
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAuthenticated is false for nil and for inactive accounts.
func (u *User) IsAuthenticated() bool {
	return u != nil && u.ID != 0 && u.IsActive
}

func (u *User) IsAdmin() bool {
	return u.IsAuthenticated() && u.Role == "admin"
}
