package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meetingminutes/backend/internal/domain/entities"
	"github.com/meetingminutes/backend/internal/infrastructure/database"
	"github.com/meetingminutes/backend/pkg/config"
	pkgjwt "github.com/meetingminutes/backend/pkg/jwt"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply migrations and exit")
	flag.Parse()

	if *migrateOnly {
		runMigrations()
		return
	}

	log.Println("🚀 Starting test users creation...")

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	log.Println("✅ Database connected successfully")

	// Initialize JWT manager
	jwtManager := pkgjwt.NewManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// Define test users
	testUsers := []struct {
		Email    string
		Name     string
		Password string
	}{
		{Email: "alice@test.local", Name: "Alice", Password: "alice-password"},
		{Email: "bob@test.local", Name: "Bob", Password: "bob-password"},
		{Email: "charlie@test.local", Name: "Charlie", Password: "charlie-password"},
		{Email: "diana@test.local", Name: "Diana", Password: "diana-password"},
		{Email: "eve@test.local", Name: "Eve", Password: "eve-password"},
	}

	log.Println("🗑️  Cleaning up existing test users...")
	db.Where("email LIKE ?", "%@test.local").Delete(&entities.User{})

	log.Println("🔑 Creating test users and tokens...")

	// Create users and tokens
	for i, testUser := range testUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(testUser.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("❌ Failed to hash password for %s: %v", testUser.Email, err)
			continue
		}
		passwordHash := string(hash)

		user := &entities.User{
			ID:           uuid.New(),
			Email:        testUser.Email,
			Name:         testUser.Name,
			IsActive:     true,
			PasswordHash: &passwordHash,
			Timezone:     "UTC",
			Language:     "en",
		}

		if err := db.Create(user).Error; err != nil {
			log.Printf("❌ Failed to create user %s: %v", testUser.Email, err)
			continue
		}

		// Generate access token (with default expiry)
		accessToken, err := jwtManager.GenerateAccessToken(user.ID, user.Email)
		if err != nil {
			log.Printf("❌ Failed to generate access token for %s: %v", testUser.Email, err)
			continue
		}

		// Generate refresh token
		refreshToken, err := jwtManager.GenerateRefreshToken(user.ID)
		if err != nil {
			log.Printf("❌ Failed to generate refresh token for %s: %v", testUser.Email, err)
			continue
		}

		fmt.Printf("═══════════════════════════════════════════════════════\n")
		fmt.Printf("🟢 User %d: %s\n", i+1, testUser.Name)
		fmt.Printf("📧 Email: %s\n", user.Email)
		fmt.Printf("🔐 Password: %s\n", testUser.Password)
		fmt.Printf("🪪 Access Token (expiry %v):\n%s\n", cfg.JWT.AccessExpiry, accessToken)
		fmt.Printf("♻️  Refresh Token:\n%s\n", refreshToken)
	}

	fmt.Printf("═══════════════════════════════════════════════════════\n")
	log.Println("✅ Test users created")
}
