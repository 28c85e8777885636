// Package model defines database models
package model

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID              string     `gorm:"primaryKey;size:16" json:"id"`
	Name            string     `gorm:"not null" json:"name"`
	Mobile          string     `gorm:"not null" json:"mobile"`
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash    string     `gorm:"not null" json:"-"`
	IsEmailVerified bool       `gorm:"default:false;not null" json:"isEmailVerified"`
	OTP             *string    `gorm:"column:otp" json:"-"`
	OTPExpiry       *time.Time `gorm:"column:otp_expiry" json:"-"`
	Points          int64      `gorm:"default:0;not null" json:"points"`
	Role            Role       `gorm:"default:USER;not null" json:"role"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	Reports []Report `gorm:"foreignKey:UserID" json:"-"`
}

// PublicUser is the only shape of a user that leaves the service. It never
// carries the password hash or OTP state.
type PublicUser struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Mobile          string    `json:"mobile"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	Points          int64     `json:"points"`
	Role            Role      `json:"role"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Name:            u.Name,
		Mobile:          u.Mobile,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
		Points:          u.Points,
		Role:            u.Role,
		CreatedAt:       u.CreatedAt,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
