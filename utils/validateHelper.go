package utils

import (
	"context"
	"errors"

	"github.com/contaflow/expenses_backend/config"
)

// check if id exists, using ctx's tenant_id in WHERE, return RecordNotFound error
func ValidateResourceId[T any](ctx context.Context, tenantId string, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, tenantId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// count tenant-scoped rows matching cond
func ResourceCountWhere[T any](ctx context.Context, tenantId string, cond string, values ...interface{}) (int64, error) {

	db := config.GetDB()
	var model T
	var count int64
	err := db.WithContext(ctx).Model(&model).
		Where("tenant_id = ?", tenantId).
		Where(cond, values...).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// reject duplicated field values within a tenant (id > 0 excludes the row being updated)
func ValidateUnique[T any](ctx context.Context, tenantId string, field string, value string, id int) error {

	db := config.GetDB()
	var model T
	var count int64
	dbCtx := db.WithContext(ctx).Model(&model).
		Where("tenant_id = ?", tenantId).
		Where(field+" = ?", value)
	if id > 0 {
		dbCtx = dbCtx.Where("id != ?", id)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New(field + " already exists")
	}
	return nil
}
