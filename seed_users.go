package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// 로컬 개발용 데모 유저 시딩 스크립트: go run seed_users.go
func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}

	// Get database URL from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set in environment")
	}

	// Connect to database
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	demoUsers := []struct {
		username string
		email    string
		balance  int64
	}{
		{"demo1", "demo1@reveelbox.local", 10000},
		{"demo2", "demo2@reveelbox.local", 10000},
		{"highroller", "highroller@reveelbox.local", 100000},
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	for _, u := range demoUsers {
		_, err := db.Exec(`
			INSERT INTO users (id, username, email, password_hash, balance)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING
		`, uuid.New().String(), u.username, u.email, string(hash), u.balance)
		if err != nil {
			log.Fatal("Failed to insert user:", err)
		}
		fmt.Printf("Seeded user %s (%s)\n", u.username, u.email)
	}

	fmt.Println("Done!")
}
