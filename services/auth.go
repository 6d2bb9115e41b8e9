package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"call_center_app_go/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10
	// DefaultTokenDuration is how long an issued bearer token stays valid
	DefaultTokenDuration = 24 * time.Hour
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrPhoneTaken         = errors.New("user with this phone number already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims is the identity carried by a bearer token
type Claims struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// VerifyPassword verifies a password against a bcrypt hash
func VerifyPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// IssueToken signs an HS256 token for the user
func IssueToken(user *models.User, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenDuration
	}
	now := time.Now()
	claims := Claims{
		UserID:      user.ID,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber(),
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates signature, algorithm and expiry and returns the claims
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RegisterInput holds the fields accepted when creating a user
type RegisterInput struct {
	Name                string
	Email               string
	Password            string
	AssignedPhoneNumber string
	Role                string
}

// RegisterUser creates a user after checking email and phone uniqueness.
// The unique index on the phone column still backs the check.
func RegisterUser(db *gorm.DB, input RegisterInput) (*models.User, error) {
	email := models.NormalizeEmail(input.Email)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	phone := strings.TrimSpace(input.AssignedPhoneNumber)
	if phone != "" {
		taken, err := PhoneNumberTaken(db, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check phone number: %w", err)
		}
		if taken {
			return nil, ErrPhoneTaken
		}
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if !models.IsValidRole(role) {
		role = models.RoleUser
	}

	user := &models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: hashed,
		Role:     role,
	}
	if phone != "" {
		user.AssignedPhoneNumber = &phone
	}

	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// PhoneNumberTaken reports whether an operator already owns the number
func PhoneNumberTaken(db *gorm.DB, phone string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Where("assigned_phone_number = ?", strings.TrimSpace(phone)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var dummyHash, _ = HashPassword("dummy_password_for_timing_mitigation")

// AuthenticateUser checks credentials and returns the matching user
func AuthenticateUser(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown emails still pay for one bcrypt comparison
			VerifyPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUserByID loads a user by id
func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
