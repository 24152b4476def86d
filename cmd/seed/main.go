package main

import (
	"context"
	"errors"
	"log"
	"os"

	"gorm.io/gorm"

	"authgate/internal/config"
	"authgate/internal/db"
	"authgate/internal/model"
	"authgate/internal/repository"
)

// Bootstraps the first administrator so a fresh deployment has a way into
// the role-gated endpoints. Idempotent: an existing admin with the same
// email is left untouched.
func main() {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	if name == "" {
		name = "Administrator"
	}

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(gormDB)
	ctx := context.Background()

	existing, err := userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("lookup admin: %v", err)
	}
	if existing != nil {
		log.Printf("admin %s already exists, nothing to do", email)
		return
	}

	admin := &model.User{
		Name:       name,
		Email:      email,
		Password:   password,
		Role:       model.RoleAdmin,
		Active:     true,
		BcryptCost: cfg.BcryptCost,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}

	log.Printf("admin %s created (id %s)", admin.Email, admin.ID)
}
