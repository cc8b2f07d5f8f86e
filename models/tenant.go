package models

import (
	"context"
	"errors"
	"time"

	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/utils"
	"github.com/google/uuid"
)

// Tenant is one company's books. Every other row in the system hangs off a
// tenant id and never crosses it.
type Tenant struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	Name      string    `gorm:"index;size:255;not null" json:"name" binding:"required"`
	Cui       string    `gorm:"size:32" json:"cui"`
	Currency  string    `gorm:"size:3;not null;default:RON" json:"currency"`
	Timezone  string    `gorm:"size:50" json:"timezone"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTenant struct {
	Name     string `json:"name" binding:"required"`
	Cui      string `json:"cui"`
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
}

func CreateTenant(ctx context.Context, input *NewTenant) (*Tenant, error) {

	if input.Currency == "" {
		input.Currency = "RON"
	}

	tenant := Tenant{
		ID:       uuid.New().String(),
		Name:     input.Name,
		Cui:      input.Cui,
		Currency: input.Currency,
		Timezone: input.Timezone,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&tenant).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}

func GetTenant(ctx context.Context, id string) (*Tenant, error) {

	db := config.GetDB()
	var tenant Tenant
	err := db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func GetCurrentTenant(ctx context.Context) (*Tenant, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	return GetTenant(ctx, tenantId)
}
