package models

import (
	"time"

	"neurothrive/internal/auth"
)

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName       string    `gorm:"size:255;not null" json:"full_name"`
	HashedPassword string    `gorm:"size:255;not null" json:"-"`
	Role           auth.Role `gorm:"size:20;not null" json:"role"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) CheckPassword(password string) bool {
	return auth.CheckPassword(u.HashedPassword, password)
}
