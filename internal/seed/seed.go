package seed

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/supplier-portal/assistant-backend/internal/repos"
	"github.com/supplier-portal/assistant-backend/internal/types"
)

// SeedAll makes sure the bootstrap admin account exists. Credentials come
// from SEED_ADMIN_USERNAME / SEED_ADMIN_PASSWORD / SEED_ADMIN_EMAIL; when
// the password is unset nothing is seeded.
func SeedAll(db *gorm.DB, userRepo repos.UserRepo) error {
	ctx := context.Background()

	username := os.Getenv("SEED_ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		fmt.Println("SEED_ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@supplier-portal.ru"
	}

	fmt.Println("Running SeedAll... seeding admin account")

	exists, err := userRepo.UsernameExists(ctx, db, username)
	if err != nil {
		return fmt.Errorf("failed checking admin existence: %w", err)
	}
	if exists {
		fmt.Println("SeedAll Complete! (admin already present)")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := &types.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     types.RoleAdmin,
		IsActive: true,
	}
	if _, err := userRepo.Create(ctx, db, []*types.User{admin}); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	fmt.Println("SeedAll Complete!")
	return nil
}
