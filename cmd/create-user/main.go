package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"call_center_app_go/config"
	"call_center_app_go/db"
	"call_center_app_go/models"
	"call_center_app_go/services"

	"golang.org/x/term"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Open(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	// Get operator details
	fmt.Println("=== Create New Operator ===")
	fmt.Println()

	email := prompt(reader, "Email: ")

	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := string(passwordBytes)
	fmt.Println() // New line after password input

	name := prompt(reader, "Name: ")
	phone := prompt(reader, "Assigned phone number (optional): ")
	admin := strings.EqualFold(prompt(reader, "Admin? (y/N): "), "y")

	// Validate inputs
	if name == "" || email == "" || password == "" {
		log.Fatal("Name, email, and password are required")
	}

	role := models.RoleUser
	if admin {
		role = models.RoleAdmin
	}

	user, err := services.RegisterUser(db.DB, services.RegisterInput{
		Name:                name,
		Email:               email,
		Password:            password,
		AssignedPhoneNumber: phone,
		Role:                role,
	})
	if errors.Is(err, services.ErrPhoneTaken) {
		log.Fatalf("A user with phone number %s already exists", phone)
	}
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Println()
	fmt.Println("✓ User created successfully!")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Name: %s\n", user.Name)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Phone: %s\n", user.PhoneNumber())
	fmt.Printf("  Role: %s\n", user.Role)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}
