package models

import (
	"context"
	"errors"
	"time"

	"github.com/contaflow/expenses_backend/config"
	"github.com/contaflow/expenses_backend/utils"
)

// Category is one node of a tenant's chart of expense accounts. The tree is
// at most two levels deep: a category either has no parent or its parent is
// a root of the same tenant and type. Categories are never deleted, only
// deactivated.
type Category struct {
	ID           int          `gorm:"primary_key" json:"id"`
	TenantId     string       `gorm:"index;not null" json:"tenant_id"`
	ParentId     *int         `gorm:"index" json:"parent_id"`
	Name         string       `gorm:"index;size:100;not null" json:"name" binding:"required"`
	SortOrder    int          `gorm:"not null;default:0" json:"sort_order"`
	IsActive     *bool        `gorm:"not null;default:true" json:"is_active"`
	CategoryType CategoryType `gorm:"size:20;not null;default:expense" json:"category_type"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Category) GetTenantId() string {
	return c.TenantId
}

type NewCategory struct {
	Name         string       `json:"name" binding:"required"`
	ParentId     *int         `json:"parent_id"`
	SortOrder    int          `json:"sort_order"`
	CategoryType CategoryType `json:"category_type"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewCategory) validate(ctx context.Context, tenantId string, id int) error {
	if input.CategoryType == "" {
		input.CategoryType = CategoryTypeExpense
	}
	if id > 0 && input.ParentId != nil && *input.ParentId == id {
		return utils.NewValidationError("self-parent not allowed")
	}
	if err := utils.ValidateUnique[Category](ctx, tenantId, "name", input.Name, id); err != nil {
		return utils.NewValidationError(err.Error())
	}
	if input.ParentId != nil && *input.ParentId > 0 {
		parent, err := utils.FetchModel[Category](ctx, tenantId, *input.ParentId)
		if err != nil {
			return utils.NewValidationError("parent not found")
		}
		// the parent of the same tenant & type, and never a child itself
		if parent.CategoryType != input.CategoryType {
			return utils.NewValidationError("parent has a different category type")
		}
		if parent.ParentId != nil && *parent.ParentId > 0 {
			return utils.NewValidationError("categories nest at most two levels")
		}
	}
	return nil
}

func CreateCategory(ctx context.Context, input *NewCategory) (*Category, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	if err := input.validate(ctx, tenantId, 0); err != nil {
		return nil, err
	}

	category := Category{
		TenantId:     tenantId,
		Name:         input.Name,
		ParentId:     input.ParentId,
		SortOrder:    input.SortOrder,
		CategoryType: input.CategoryType,
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}

	return &category, nil
}

func UpdateCategory(ctx context.Context, id int, input *NewCategory) (*Category, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	if err := input.validate(ctx, tenantId, id); err != nil {
		return nil, err
	}

	category, err := utils.FetchModel[Category](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&category).Updates(map[string]interface{}{
		"Name":      input.Name,
		"ParentId":  input.ParentId,
		"SortOrder": input.SortOrder,
	}).Error
	if err != nil {
		return nil, err
	}
	return category, nil
}

func GetCategory(ctx context.Context, id int) (*Category, error) {

	return GetResource[Category](ctx, id)
}

func GetCategories(ctx context.Context, categoryType *CategoryType) ([]*Category, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("tenant_id = ?", tenantId)
	if categoryType != nil && *categoryType != "" {
		dbCtx = dbCtx.Where("category_type = ?", *categoryType)
	}
	var results []*Category
	if err := dbCtx.Order("sort_order, name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ToggleActiveCategory deactivates (or reactivates) a category together
// with its children; rows stay in place so historic expenses keep their
// category resolution.
func ToggleActiveCategory(ctx context.Context, id int, isActive bool) (*Category, error) {
	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}

	category, err := utils.FetchModel[Category](ctx, tenantId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&category).Updates(map[string]interface{}{
		"is_active": isActive,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&Category{}).
		Where("tenant_id = ? AND parent_id = ?", tenantId, id).
		Updates(map[string]interface{}{"is_active": isActive}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	InvalidateReportCache(tenantId)
	return category, nil
}

// CategoryNode is a parent category with its children, as consumed by the
// aggregation engine.
type CategoryNode struct {
	Category *Category
	Children []*Category
}

// BuildCategoryTree groups categories into parents and their children,
// keeping the stored sort order. Orphans whose parent is missing are
// dropped rather than promoted.
func BuildCategoryTree(categories []*Category) []*CategoryNode {
	var roots []*CategoryNode
	index := make(map[int]*CategoryNode)
	for _, c := range categories {
		if c.ParentId == nil || *c.ParentId == 0 {
			node := &CategoryNode{Category: c}
			index[c.ID] = node
			roots = append(roots, node)
		}
	}
	for _, c := range categories {
		if c.ParentId != nil && *c.ParentId > 0 {
			if parent, ok := index[*c.ParentId]; ok {
				parent.Children = append(parent.Children, c)
			}
		}
	}
	return roots
}
