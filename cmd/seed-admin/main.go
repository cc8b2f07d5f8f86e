// seed-admin creates a tenant with its admin user, or resets the admin
// password of an existing tenant.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/seed-admin -tenant "Acme SRL" -username acme-admin -password 'changeme123'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/models"
	"github.com/contaflow/expenses_backend/utils"
	"gorm.io/gorm"
)

func main() {
	tenantName := flag.String("tenant", "", "Tenant name. Created when no tenant with this name exists.")
	username := flag.String("username", "", "Admin username")
	password := flag.String("password", "", "Admin password (min 8 characters)")
	flag.Parse()

	if strings.TrimSpace(*tenantName) == "" || strings.TrimSpace(*username) == "" || len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "usage: seed-admin -tenant <name> -username <username> -password <min 8 chars>")
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	var tenant models.Tenant
	err := db.WithContext(ctx).Where("name = ?", strings.TrimSpace(*tenantName)).First(&tenant).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup tenant: %v\n", err)
			os.Exit(1)
		}
		created, err := models.CreateTenant(ctx, &models.NewTenant{Name: strings.TrimSpace(*tenantName)})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create tenant: %v\n", err)
			os.Exit(1)
		}
		tenant = *created
		fmt.Printf("created tenant %s (%s)\n", tenant.Name, tenant.ID)
	}

	hashed, err := utils.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	uname := strings.ToLower(strings.TrimSpace(*username))
	var existing models.User
	err = db.WithContext(ctx).Where("username = ?", uname).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		user := models.User{
			TenantId: tenant.ID,
			Username: uname,
			Name:     strings.TrimSpace(*username),
			Password: string(hashed),
			Role:     models.UserRoleAdmin,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %s for tenant %s\n", uname, tenant.Name)
		return
	}

	if existing.TenantId != tenant.ID {
		fmt.Fprintf(os.Stderr, "user %s belongs to another tenant\n", uname)
		os.Exit(1)
	}
	err = db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"Password": hashed,
		"Role":     models.UserRoleAdmin,
		"IsActive": true,
	}).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("reset admin password for %s\n", uname)
}
