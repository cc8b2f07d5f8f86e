package models

import (
	"log"

	"github.com/contaflow/expenses_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Tenant{}, &User{},
		&Category{},
		&RecurringTemplate{}, &RecurringInstance{},
		&LedgerExpense{},
		&MonthlyRevenue{}, &AnnualBudget{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
