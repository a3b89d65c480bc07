// Command createadmin creates or repairs a super_admin account. It is meant
// to be run on the host during first deployment:
//
//	createadmin <username> <password> [email]
//
// If the username already exists the account is promoted to super_admin,
// re-activated and its password reset.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shutsugan-server/internal/authz"
	"shutsugan-server/internal/model"
	"shutsugan-server/pkg/config"
	"shutsugan-server/pkg/database"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: createadmin <username> <password> [email]")
	}
	username := strings.TrimSpace(args[0])
	password := args[1]
	if len(username) < 2 {
		return errors.New("username must be at least 2 characters")
	}
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	email := username + "@admin.local"
	if len(args) == 3 {
		email = strings.ToLower(strings.TrimSpace(args[2]))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := database.Initialize(&cfg.DB); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	db := database.GetDB()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var user model.User
	result := db.Where("username = ?", username).First(&user)
	switch {
	case result.Error == nil:
		updates := map[string]interface{}{
			"password": string(hashed),
			"role":     string(authz.RoleSuperAdmin),
			"status":   authz.StatusActive,
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		fmt.Printf("account %q repaired: role %s, password reset\n", username, authz.RoleSuperAdmin)
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		user = model.User{
			Username: username,
			Email:    email,
			Password: string(hashed),
			Role:     string(authz.RoleSuperAdmin),
			Status:   authz.StatusActive,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		fmt.Printf("account %q created with role %s\n", username, authz.RoleSuperAdmin)
	default:
		return fmt.Errorf("lookup account: %w", result.Error)
	}
	return nil
}
