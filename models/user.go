package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/utils"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index;not null" json:"tenant_id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     *string   `gorm:"size:100;unique" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"password"`
	Role      UserRole  `gorm:"size:20;not null;default:member" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Email    *string  `json:"email"`
	Password string   `json:"password" binding:"required"`
	Role     UserRole `json:"role"`
}

func (user User) GetTenantId() string {
	return user.TenantId
}

func (result *User) PrepareGive() {
	result.Password = ""
}

type LoginInfo struct {
	Token      string `json:"token"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	TenantId   string `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error
	if err != nil {
		return nil, errors.New("invalid username or password")
	}

	err = utils.ComparePassword(user.Password, password)
	if err != nil && err == bcrypt.ErrMismatchedHashAndPassword {
		return nil, errors.New("invalid username or password")
	}
	if user.IsActive == nil || !*user.IsActive {
		return nil, errors.New("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, user.TenantId, string(user.Role))
	if err != nil {
		return nil, err
	}

	tenant, err := GetTenant(ctx, user.TenantId)
	if err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token:      token,
		Name:       user.Name,
		Role:       string(user.Role),
		TenantId:   tenant.ID,
		TenantName: tenant.Name,
	}, nil
}

// CreateUser registers a user in the caller's tenant. Admin only.
func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if isAdmin, _ := utils.GetIsAdminFromContext(ctx); !isAdmin {
		return nil, errors.New("only an admin may create users")
	}

	if input.Role == "" {
		input.Role = UserRoleMember
	}
	if !input.Role.Valid() {
		return nil, utils.NewValidationError("invalid user role")
	}
	if len(input.Password) < 8 {
		return nil, utils.NewValidationError("password must be at least 8 characters")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		TenantId: tenantId,
		Username: strings.ToLower(strings.TrimSpace(input.Username)),
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		Role:     input.Role,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	user.PrepareGive()
	return &user, nil
}

func GetUsers(ctx context.Context) ([]*User, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	results, err := utils.FetchAllModels[User](ctx, tenantId)
	if err != nil {
		return nil, err
	}
	for _, user := range results {
		user.PrepareGive()
	}
	return results, nil
}
