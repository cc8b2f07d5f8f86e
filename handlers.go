package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/contaflow/expenses_backend/models"
	"github.com/contaflow/expenses_backend/models/reports"
	"github.com/contaflow/expenses_backend/utils"
	"github.com/gin-gonic/gin"
)

// abortWithError maps model errors onto HTTP statuses: missing rows are
// 404, lifecycle conflicts 409, bad input 400, everything else 500.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case utils.IsInvalidState(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

/* auth */

func loginHandler(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := models.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

/* categories */

func listCategoriesHandler(c *gin.Context) {
	var categoryType *models.CategoryType
	if v := c.Query("type"); v != "" {
		t := models.CategoryType(v)
		categoryType = &t
	}
	categories, err := models.GetCategories(c.Request.Context(), categoryType)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BuildCategoryTree(categories))
}

func createCategoryHandler(c *gin.Context) {
	var input models.NewCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := models.CreateCategory(c.Request.Context(), &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func updateCategoryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := models.UpdateCategory(c.Request.Context(), id, &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func toggleCategoryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := models.ToggleActiveCategory(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

/* recurring templates */

func listTemplatesHandler(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	templates, err := models.GetRecurringTemplates(c.Request.Context(), activeOnly)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func createTemplateHandler(c *gin.Context) {
	var input models.NewRecurringTemplate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	template, err := models.CreateRecurringTemplate(c.Request.Context(), &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

func getTemplateHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	template, err := models.GetRecurringTemplate(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func updateTemplateHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewRecurringTemplate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	template, err := models.UpdateRecurringTemplate(c.Request.Context(), id, &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func reviseTemplateHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewRecurringTemplate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	template, err := models.ReviseRecurringTemplate(c.Request.Context(), id, &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

func deactivateTemplateHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	template, err := models.DeactivateRecurringTemplate(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func reactivateTemplateHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	template, err := models.ReactivateRecurringTemplate(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func deleteTemplateHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	template, err := models.DeleteRecurringTemplate(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func templateHistoryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	chain, err := models.GetTemplateVersionHistory(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chain)
}

/* recurring instances */

func listInstancesHandler(c *gin.Context) {
	instances, err := models.GetRecurringInstances(c.Request.Context(),
		c.Query("period"), models.InstanceStatus(c.Query("status")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, instances)
}

func convertInstanceHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.ConvertRecurringInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := models.ConvertRecurringInstance(c.Request.Context(), id, &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if result.RequiresConfirmation {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

type skipMonthInput struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required,min=1,max=12"`
}

func skipMonthHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input skipMonthInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	instance, err := models.SkipRecurringMonth(c.Request.Context(), id, input.Year, time.Month(input.Month))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, instance)
}

func unskipMonthHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input skipMonthInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	instance, err := models.UnskipRecurringMonth(c.Request.Context(), id, input.Year, time.Month(input.Month))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, instance)
}

func generateMonthlyHandler(c *gin.Context) {
	period := c.Query("period")
	if period == "" {
		period = models.PeriodOf(time.Now().UTC())
	}
	ctx, span := tracer.Start(c.Request.Context(), "generate-monthly")
	defer span.End()
	summary, err := models.GenerateMonthlyObligations(ctx, period)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

/* expenses */

func createExpenseHandler(c *gin.Context) {
	var input models.NewLedgerExpense
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	expense, err := models.CreateLedgerExpense(c.Request.Context(), &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func getExpenseHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	expense, err := models.GetLedgerExpense(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func updateExpenseHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewLedgerExpense
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	expense, err := models.UpdateLedgerExpense(c.Request.Context(), id, &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func deleteExpenseHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	expense, err := models.SoftDeleteLedgerExpense(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

/* revenues & budgets */

func upsertRevenueHandler(c *gin.Context) {
	var input models.NewMonthlyRevenue
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	revenue, err := models.UpsertManualRevenue(c.Request.Context(), &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, revenue)
}

func upsertBudgetHandler(c *gin.Context) {
	var input models.NewAnnualBudget
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	budget, err := models.UpsertAnnualBudget(c.Request.Context(), &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

/* reports */

func baseYearQuery(c *gin.Context) int {
	if v := c.Query("base_year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			return year
		}
	}
	return 0
}

func pnlReportHandler(c *gin.Context) {
	aggregate, err := reports.GetPnlReport(c.Request.Context(), baseYearQuery(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, aggregate)
}

func pnlSummaryHandler(c *gin.Context) {
	summary, err := reports.GetPnlSummary(c.Request.Context(), baseYearQuery(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func pnlDrilldownHandler(c *gin.Context) {
	label := c.Query("category")
	period := c.Query("period")
	if label == "" || period == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category and period are required"})
		return
	}
	items, err := reports.GetExpensesForCategoryMonth(c.Request.Context(), label, period)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

/* tenants & users */

func createUserHandler(c *gin.Context) {
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func listUsersHandler(c *gin.Context) {
	users, err := models.GetUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func createTenantHandler(c *gin.Context) {
	var input models.NewTenant
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tenant, err := models.CreateTenant(c.Request.Context(), &input)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func currentTenantHandler(c *gin.Context) {
	tenant, err := models.GetCurrentTenant(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}
