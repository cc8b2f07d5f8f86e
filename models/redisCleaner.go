package models

import (
	"fmt"

	"github.com/contaflow/expenses_backend/config"
)

// Report cache keys. Aggregates are cached per tenant per base year; every
// key is also registered in the tenant's tag set so that any write to that
// tenant's books can drop all of its cached reports with one call.

func ReportCacheKey(tenantId string, baseYear int) string {
	return fmt.Sprintf("pnl:%s:%d", tenantId, baseYear)
}

func reportTagSetKey(tenantId string) string {
	return fmt.Sprintf("pnl:tags:%s", tenantId)
}

func RegisterReportCacheKey(tenantId string, key string) error {
	return config.AddRedisSet(reportTagSetKey(tenantId), key)
}

// InvalidateReportCache drops every cached report for the tenant. Failures
// are swallowed: the cache is an optimization, the books are the truth.
func InvalidateReportCache(tenantId string) {
	keys, err := config.GetRedisSetMembers(reportTagSetKey(tenantId))
	if err != nil || len(keys) == 0 {
		return
	}
	keys = append(keys, reportTagSetKey(tenantId))
	_ = config.RemoveRedisKey(keys...)
}
