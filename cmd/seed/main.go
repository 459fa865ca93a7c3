package main

import (
	"log"
	"os"

	"bookmarkhub-be/internal/model"
	"bookmarkhub-be/pkg/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

// Seeds a demo account with a handful of bookmarks for local development.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	seedDemoUser(db)
}

func seedDemoUser(db *gorm.DB) {
	demo := model.User{
		Email:         "demo@bookmarkhub.local",
		FullName:      "Demo User",
		Role:          "user",
		Status:        "active",
		EmailVerified: true,
	}

	var existing model.User
	err := db.Where("email = ?", demo.Email).First(&existing).Error
	if err == nil {
		log.Printf("Demo user already exists (%s), skipping", existing.Id)
		return
	}
	if err != gorm.ErrRecordNotFound {
		log.Fatal("Error: Failed to check demo user:", err)
	}

	if err := db.Create(&demo).Error; err != nil {
		log.Fatal("Error: Failed to create demo user:", err)
	}

	bookmarks := []model.Bookmark{
		{Title: "Go Documentation", TargetURL: "https://go.dev/doc/", UserId: demo.Id},
		{Title: "Fiber Framework", TargetURL: "https://gofiber.io/", UserId: demo.Id},
		{Title: "NATS JetStream", TargetURL: "https://docs.nats.io/nats-concepts/jetstream", UserId: demo.Id},
	}

	for _, b := range bookmarks {
		if err := db.Create(&b).Error; err != nil {
			log.Printf("Warn: Failed to seed bookmark %q: %v", b.Title, err)
		}
	}

	log.Printf("Seeded demo user %s with %d bookmarks", demo.Id, len(bookmarks))
}
