package services

import (
	"fmt"
	"strings"

	"call_center_app_go/models"

	"gorm.io/gorm"
)

// ContactInput is a public contact-form submission
type ContactInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Message     string
}

// CreateContact stores a sanitized contact submission
func CreateContact(db *gorm.DB, input ContactInput) (*models.Contact, error) {
	contact := &models.Contact{
		Name:        SanitizeText(input.Name),
		Email:       strings.TrimSpace(input.Email),
		PhoneNumber: SanitizeText(input.PhoneNumber),
	}
	if msg := SanitizeText(input.Message); msg != "" {
		contact.Message = &msg
	}

	if contact.Name == "" || contact.Email == "" || contact.PhoneNumber == "" {
		return nil, fmt.Errorf("name, email and phone number are required")
	}

	if err := db.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}
	return contact, nil
}
