package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a public contact-form submission
type Contact struct {
	ID          string    `gorm:"type:uuid;primarykey" json:"id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Email       string    `gorm:"size:255;not null;index" json:"email"`
	PhoneNumber string    `gorm:"size:32;not null" json:"phoneNumber"`
	Message     *string   `gorm:"type:text" json:"message"`
	SubmittedAt time.Time `gorm:"not null;index" json:"submittedAt"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Email = NormalizeEmail(c.Email)
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = time.Now()
	}
	return nil
}

func (Contact) TableName() string {
	return "contacts"
}

// All returns every model the application migrates
func All() []interface{} {
	return []interface{}{
		&User{},
		&Call{},
		&Appointment{},
		&Contact{},
	}
}
