package main

import (
	"github.com/contaflow/expenses_backend/middlewares"
	"github.com/gin-gonic/gin"
)

func registerRoutes(r *gin.Engine) {

	r.POST("/login", loginHandler)

	api := r.Group("/api", middlewares.RequireAuth())

	api.GET("/categories", listCategoriesHandler)
	api.POST("/categories", createCategoryHandler)
	api.PUT("/categories/:id", updateCategoryHandler)
	api.POST("/categories/:id/toggle-active", toggleCategoryHandler)

	api.GET("/recurring-templates", listTemplatesHandler)
	api.POST("/recurring-templates", createTemplateHandler)
	api.GET("/recurring-templates/:id", getTemplateHandler)
	api.PUT("/recurring-templates/:id", updateTemplateHandler)
	api.POST("/recurring-templates/:id/revise", reviseTemplateHandler)
	api.POST("/recurring-templates/:id/deactivate", deactivateTemplateHandler)
	api.POST("/recurring-templates/:id/reactivate", reactivateTemplateHandler)
	api.DELETE("/recurring-templates/:id", deleteTemplateHandler)
	api.GET("/recurring-templates/:id/history", templateHistoryHandler)
	api.POST("/recurring-templates/:id/skip", skipMonthHandler)
	api.POST("/recurring-templates/:id/unskip", unskipMonthHandler)

	api.GET("/recurring-instances", listInstancesHandler)
	api.POST("/recurring-instances/:id/convert", convertInstanceHandler)
	api.POST("/recurring-generation", generateMonthlyHandler)

	api.POST("/expenses", createExpenseHandler)
	api.GET("/expenses/:id", getExpenseHandler)
	api.PUT("/expenses/:id", updateExpenseHandler)
	api.DELETE("/expenses/:id", deleteExpenseHandler)

	api.PUT("/revenues", upsertRevenueHandler)
	api.PUT("/budgets", upsertBudgetHandler)

	api.GET("/reports/pnl", pnlReportHandler)
	api.GET("/reports/pnl/summary", pnlSummaryHandler)
	api.GET("/reports/pnl/expenses", pnlDrilldownHandler)

	admin := api.Group("", middlewares.RequireAdmin())
	admin.POST("/users", createUserHandler)
	admin.GET("/users", listUsersHandler)
	admin.POST("/tenants", createTenantHandler)
	api.GET("/tenant", currentTenantHandler)
}
