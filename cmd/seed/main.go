package main

import (
	"errors"
	"log"
	"os"
	"strings"

	"knowledge-workspace/internal/model"
	"knowledge-workspace/pkg/database"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var sampleDocuments = []model.Document{
	{
		Title:    "Onboarding Guide",
		Category: "HR",
		Summary:  "First week checklist for new hires.",
		Content:  "Day one covers laptop setup, account access and a walkthrough of the knowledge workspace. Day two pairs the new hire with a buddy.",
	},
	{
		Title:    "Expense Policy",
		Category: "Finance",
		Summary:  "How to submit and approve expenses.",
		Content:  "Expenses under 50 EUR need no receipt. Everything else must be submitted within 30 days with a scanned receipt and manager approval.",
	},
	{
		Title:    "Incident Runbook",
		Category: "Engineering",
		Summary:  "Steps to follow during a production incident.",
		Content:  "Page the on-call engineer, open an incident channel, assign a commander and post status updates every 30 minutes until resolved.",
	},
	{
		Title:    "Remote Work Guidelines",
		Category: "HR",
		Summary:  "Expectations for distributed teams.",
		Content:  "Core hours are 10:00 to 15:00 local time. Cameras are optional in meetings. Home office equipment can be expensed once per year.",
	},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding admin user...")
	seedAdmin(db)

	log.Println("Seeding sample documents...")
	seedDocuments(db)

	log.Println("Seeding completed!")
}

func seedAdmin(db *gorm.DB) {
	email := strings.ToLower(getEnv("SEED_ADMIN_EMAIL", "admin@example.com"))
	password := getEnv("SEED_ADMIN_PASSWORD", "change-me-now")

	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Printf("Admin '%s' already exists, skipping...", email)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Error looking up admin: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error hashing password: %v", err)
	}

	admin := model.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Workspace Admin",
		Role:         "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Error creating admin: %v", err)
	}
	log.Printf("Created admin: %s", email)
}

func seedDocuments(db *gorm.DB) {
	for _, doc := range sampleDocuments {
		var existing model.Document
		if err := db.Where("title = ?", doc.Title).First(&existing).Error; err == nil {
			log.Printf("Document '%s' already exists, skipping...", doc.Title)
			continue
		}

		d := doc
		if err := db.Create(&d).Error; err != nil {
			log.Printf("Error creating document '%s': %v", doc.Title, err)
		} else {
			log.Printf("Created document: %s (%d)", d.Title, d.Id)
		}
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
