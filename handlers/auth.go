package handlers

import (
	"errors"
	"log"
	"net/http"

	"call_center_app_go/db"
	"call_center_app_go/middleware"
	"call_center_app_go/models"
	"call_center_app_go/services"

	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Name                string `json:"name" validate:"required"`
	Email               string `json:"email" validate:"required"`
	Password            string `json:"password" validate:"required"`
	AssignedPhoneNumber string `json:"assignedPhoneNumber"`
	Role                string `json:"role" validate:"omitempty,oneof=user admin"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the public view of an operator
type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber(),
		Role:        u.Role,
	}
}

// RegisterHandler creates an operator account
func RegisterHandler(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		if req.Name == "" || req.Email == "" || req.Password == "" {
			return errorJSON(c, http.StatusBadRequest, "Name, email, and password are required")
		}
		return errorJSON(c, http.StatusBadRequest, validationMessage(err))
	}

	user, err := services.RegisterUser(db.DB, services.RegisterInput{
		Name:                req.Name,
		Email:               req.Email,
		Password:            req.Password,
		AssignedPhoneNumber: req.AssignedPhoneNumber,
		Role:                req.Role,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return errorJSON(c, http.StatusBadRequest, "User with this email already exists")
		}
		log.Printf("Registration failed for %s: %v", req.Email, err)
		return errorJSON(c, http.StatusInternalServerError, "Registration failed")
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

// LoginHandler verifies credentials and issues a bearer token
func LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Email and password are required")
	}

	user, err := services.AuthenticateUser(db.DB, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			if services.Monitor != nil {
				services.Monitor.RecordFailure(c.RealIP(), req.Email)
			}
			return errorJSON(c, http.StatusUnauthorized, "Invalid email or password")
		}
		log.Printf("Login failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Login failed")
	}

	cfg := getConfig(c)
	token, err := services.IssueToken(user, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Printf("Failed to issue token for %s: %v", user.ID, err)
		return errorJSON(c, http.StatusInternalServerError, "Login failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  newUserResponse(user),
	})
}

// VerifyHandler confirms the bearer token still belongs to a known user
func VerifyHandler(c echo.Context) error {
	claims := middleware.GetCurrentClaims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{"valid": false, "error": "Access denied - No token provided"})
	}

	user, err := services.GetUserByID(db.DB, claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{"valid": false, "error": "User not found"})
		}
		log.Printf("Token verification failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"valid": false, "error": "Verification failed"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"valid": true,
		"user":  newUserResponse(user),
	})
}

// MeHandler returns the authenticated user without the password hash
func MeHandler(c echo.Context) error {
	claims := middleware.GetCurrentClaims(c)
	if claims == nil {
		return errorJSON(c, http.StatusUnauthorized, "Access denied - No token provided")
	}

	user, err := services.GetUserByID(db.DB, claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return errorJSON(c, http.StatusNotFound, "User not found")
		}
		log.Printf("Failed to fetch user %s: %v", claims.UserID, err)
		return errorJSON(c, http.StatusInternalServerError, "Failed to fetch user info")
	}

	return c.JSON(http.StatusOK, user)
}
