package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an operator allowed to use the dashboard
type User struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Email               string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password            string  `gorm:"not null" json:"-"`
	Name                string  `gorm:"size:200;not null" json:"name"`
	AssignedPhoneNumber *string `gorm:"size:32;uniqueIndex" json:"phoneNumber"`
	Role                string  `gorm:"size:10;not null;default:user" json:"role"`
}

// BeforeCreate hook to generate UUID and normalize fields
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Email = NormalizeEmail(u.Email)
	if u.AssignedPhoneNumber != nil {
		phone := strings.TrimSpace(*u.AssignedPhoneNumber)
		if phone == "" {
			u.AssignedPhoneNumber = nil
		} else {
			u.AssignedPhoneNumber = &phone
		}
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// PhoneNumber returns the assigned number or an empty string
func (u *User) PhoneNumber() string {
	if u.AssignedPhoneNumber == nil {
		return ""
	}
	return *u.AssignedPhoneNumber
}

// IsValidRole checks if the role is valid
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
