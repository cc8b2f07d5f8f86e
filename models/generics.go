package models

import (
	"context"
	"errors"

	"github.com/contaflow/expenses_backend/utils"
)

type Resource interface {
	GetTenantId() string
}

// first find in redis, then in db, using ctx's tenant_id in WHERE, cache result
// (may return RecordNotFound error)
func GetResource[T Resource](ctx context.Context, id int, associations ...string) (*T, error) {

	tenantId, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenantId == "" {
		return nil, errors.New("tenant id is required")
	}
	// find in redis
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		return nil, err
	}
	// if not found in redis
	if result == nil {
		// fetch from db
		result, err = utils.FetchModel[T](ctx, tenantId, id, associations...)
		if err != nil {
			return nil, err
		}

		// store in redis
		if err := utils.StoreRedis[T](result, id); err != nil {
			return nil, err
		}
	} else {
		// check if tenant ids match
		if (*result).GetTenantId() != tenantId {
			return nil, errors.New("cannot access resource owned by other tenant")
		}
	}

	return result, nil
}
