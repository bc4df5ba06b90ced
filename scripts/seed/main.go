package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hrms/internal/app"
	"github.com/odyssey-erp/odyssey-hrms/internal/auth"
	"github.com/odyssey-erp/odyssey-hrms/internal/platform/db"
)

// Seeds a small HR team for local development. Admin accounts are not
// created here.
func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	service := app.NewAuthService(cfg, pool, logger)

	fmt.Println("→ Seeding HR staff...")
	lead, err := seed(ctx, service, auth.NewUser{
		Email: "hr@odyssey.local", Password: "hr-password", FirstName: "Rina", LastName: "Hartono", Role: auth.RoleHR,
	}, nil)
	if err != nil {
		log.Fatalf("seed hr: %v", err)
	}

	fmt.Println("→ Seeding employees...")
	employees := []auth.NewUser{
		{Email: "budi@odyssey.local", Password: "employee-password", FirstName: "Budi", LastName: "Santoso", Role: auth.RoleEmployee},
		{Email: "sari@odyssey.local", Password: "employee-password", FirstName: "Sari", LastName: "Wulandari", Role: auth.RoleEmployee, EmploymentStatus: "probation"},
		{Email: "dewi@odyssey.local", Password: "employee-password", FirstName: "Dewi", LastName: "Pratama", Role: auth.RoleEmployee},
	}
	for i := range employees {
		if _, err := seed(ctx, service, employees[i], lead); err != nil {
			log.Fatalf("seed %s: %v", employees[i].Email, err)
		}
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

// seed creates in unless the email is already registered. It returns the
// new profile id, or nil when the account existed.
func seed(ctx context.Context, service *auth.Service, in auth.NewUser, manager *uuid.UUID) (*uuid.UUID, error) {
	in.ReportingManagerID = manager
	created, err := service.CreateUser(ctx, in)
	if errors.Is(err, auth.ErrEmailTaken) {
		fmt.Println("  exists:", in.Email)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fmt.Println("  created:", in.Email)
	return &created.ProfileID, nil
}
