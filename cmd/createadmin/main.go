package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/avaliaedu/portal/database"
	"github.com/avaliaedu/portal/model"
	"github.com/avaliaedu/portal/utils/auth"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	name := flag.String("name", "Administrator", "admin display name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("email and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	db := store.GetDB().(*gorm.DB)

	var existing model.User
	if err := db.Where("email = ?", *email).First(&existing).Error; err == nil {
		if existing.IsAdmin() {
			fmt.Printf("Admin %s already exists\n", *email)
			return
		}
		if err := db.Model(&existing).Update("role", "admin").Error; err != nil {
			log.Fatalf("Failed to promote user: %v", err)
		}
		fmt.Printf("Promoted %s to admin\n", *email)
		return
	}

	hashed, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := model.User{
		Name:         *name,
		Email:        *email,
		PasswordHash: hashed,
		AnonymizedID: uuid.New().String(),
		Role:         "admin",
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Printf("Admin %s created (id %d)\n", admin.Email, admin.ID)
}
