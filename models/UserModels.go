package models

import (
	"time"

	"github.com/lib/pq"
)

// User is an API account. Permissions is a flat list of named grants checked
// by the permission middleware (e.g. manage_users).
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null"`
	Password    string         `json:"-" gorm:"not null"`
	Role        string         `json:"role" gorm:"default:user"`
	Permissions pq.StringArray `json:"permissions" gorm:"type:text[]"`
	FCMToken    string         `json:"-"`
	Suspended   bool           `json:"suspended" gorm:"default:false"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// LoginRequest is the credential body for /api/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token pair.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// CreateUserRequest is the admin body for creating accounts.
type CreateUserRequest struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required"`
	Password    string   `json:"password" binding:"required"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}
