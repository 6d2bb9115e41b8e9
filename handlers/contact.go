package handlers

import (
	"log"
	"net/http"

	"call_center_app_go/db"
	"call_center_app_go/services"

	"github.com/labstack/echo/v4"
)

type contactRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=200"`
	Email       string `json:"email" form:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" form:"phoneNumber" validate:"required,max=32"`
	Message     string `json:"message" form:"message" validate:"max=5000"`
}

// ContactHandler stores a public contact-form submission and forwards it to staff
func ContactHandler(c echo.Context) error {
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, validationMessage(err))
	}

	contact, err := services.CreateContact(db.DB, services.ContactInput{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Message:     req.Message,
	})
	if err != nil {
		log.Printf("Error saving contact submission: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to submit contact form")
	}

	cfg := getConfig(c)
	services.NotifyStaff(cfg, func(to []string) *services.Email {
		return services.BuildContactEmail(to, contact)
	})

	return c.JSON(http.StatusCreated, map[string]string{
		"message":   "Contact form submitted successfully",
		"contactId": contact.ID,
	})
}
