package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"salesadmin/internal/config"
	"salesadmin/internal/database"
	"salesadmin/internal/logger"
	"salesadmin/internal/model"
	"salesadmin/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	username := flag.String("username", "", "Login name")
	password := flag.String("password", "", "Initial password (defaults to DEFAULT_INITIAL_PASSWORD)")
	role := flag.String("role", model.RoleAdmin, "Role: admin, sales_viewer or user")
	brands := flag.String("brands", "", "Comma separated brands for non-admin roles")
	mustChange := flag.Bool("must-change", false, "Require a password change at first login")
	flag.Parse()

	if err := run(*username, *password, *role, *brands, *mustChange); err != nil {
		fmt.Fprintln(os.Stderr, "create-user:", err)
		os.Exit(1)
	}
}

func run(username, password, role, brands string, mustChange bool) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("-username is required")
	}
	if !model.ValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if password == "" {
		password = cfg.Auth.DefaultInitialPassword
		mustChange = true
	}

	var allowed []string
	if role != model.RoleAdmin {
		for _, b := range strings.Split(brands, ",") {
			if b = strings.TrimSpace(b); b != "" {
				allowed = append(allowed, b)
			}
		}
	}

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	repo := repository.NewUserRepository(db)

	ctx := context.Background()
	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return fmt.Errorf("user %q already exists", username)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &model.User{
		Username:           username,
		Password:           string(hashed),
		Role:               role,
		AllowedBrands:      allowed,
		MustChangePassword: mustChange,
	}
	if err := repo.Create(ctx, user); err != nil {
		return err
	}

	log.Info("user created", zap.String("username", user.Username), zap.String("role", user.Role), zap.Strings("brands", allowed))
	return nil
}
