// generate-monthly materializes the month's recurring obligations for every
// active tenant. Run it from a scheduler at the start of each month; reruns
// are harmless since generation is idempotent.
//
// Usage:
//   go run ./cmd/generate-monthly                 # current month, all tenants
//   go run ./cmd/generate-monthly -period 2026-09 # explicit month
//   go run ./cmd/generate-monthly -tenant-id <id> # one tenant only
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/models"
	"github.com/contaflow/expenses_backend/utils"
)

func main() {
	period := flag.String("period", "", "Accounting period YYYY-MM (default: current month)")
	tenantID := flag.String("tenant-id", "", "Optional: generate for one tenant only")
	flag.Parse()

	target := strings.TrimSpace(*period)
	if target == "" {
		target = models.PeriodOf(time.Now().UTC())
	}
	if _, _, err := models.ParsePeriod(target); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx := context.Background()

	var tenants []models.Tenant
	query := db.WithContext(ctx).Where("is_active = ?", true)
	if strings.TrimSpace(*tenantID) != "" {
		query = query.Where("id = ?", strings.TrimSpace(*tenantID))
	}
	if err := query.Find(&tenants).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list tenants: %v\n", err)
		os.Exit(1)
	}
	if len(tenants) == 0 {
		fmt.Fprintln(os.Stderr, "no tenants found")
		return
	}

	failures := 0
	for _, tenant := range tenants {
		tenantCtx := utils.SetTenantIdInContext(ctx, tenant.ID)
		summary, err := models.GenerateMonthlyObligations(tenantCtx, target)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "tenant %s: %v\n", tenant.ID, err)
			continue
		}
		fmt.Printf("tenant %s period %s: created=%d existed=%d ineligible=%d\n",
			tenant.ID, target, summary.Created, summary.AlreadyExisted, summary.Ineligible)
	}
	if failures > 0 {
		os.Exit(1)
	}
}
