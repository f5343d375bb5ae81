package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"atelier/internal/constants"
	"atelier/internal/logger"
	"atelier/pkg/errors"
)

type BaseHandler struct {
	Service Service
	Logger  logger.Logger
}

func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

type Handler struct {
	BaseHandler
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		rules := v1.Group("/rules/logic")
		{
			rules.GET("", h.ListRules)
			rules.POST("", h.CreateRule)
			rules.GET("/:id", h.GetRule)
			rules.PUT("/:id", h.UpdateRule)
			rules.DELETE("/:id", h.DeleteRule)
			rules.GET("/:id/versions", h.GetRuleVersions)
			rules.GET("/:id/audit", h.GetRuleAuditLogs)
		}

		audit := v1.Group("/audit")
		{
			audit.GET("/logs", h.GetAuditLogs)
		}
	}
}

// ListRules godoc
// @Summary      List logic rules
// @Description  Get logic rules, optionally filtered by product ID
// @Tags         logic-rules
// @Accept       json
// @Produce      json
// @Param        product_id  query     string  false  "Filter by product ID"
// @Success      200  {array}    LogicRule
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/logic [get]
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.Service.ListLogicRules(c.Request.Context(), c.Query("product_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// CreateRule godoc
// @Summary      Create a new logic rule
// @Description  Create a new logic rule with the provided data
// @Tags         logic-rules
// @Accept       json
// @Produce      json
// @Param        rule  body       CreateLogicRuleRequest  true  "Logic rule data"
// @Success      201   {object}   LogicRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      409   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules/logic [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req CreateLogicRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.CreateLogicRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetRule godoc
// @Summary      Get a logic rule by ID
// @Description  Get a specific logic rule by its ID
// @Tags         logic-rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}   LogicRule
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/logic/{id} [get]
func (h *Handler) GetRule(c *gin.Context) {
	id := c.Param("id")
	rule, err := h.Service.GetLogicRule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// UpdateRule godoc
// @Summary      Update a logic rule
// @Description  Update an existing logic rule by ID
// @Tags         logic-rules
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Rule ID"
// @Param        rule  body       UpdateLogicRuleRequest  true  "Updated rule data"
// @Success      200   {object}   LogicRule
// @Failure      400   {object}  errors.ErrorResponse
// @Failure      404   {object}  errors.ErrorResponse
// @Failure      500   {object}  errors.ErrorResponse
// @Router       /rules/logic/{id} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	id := c.Param("id")
	var req UpdateLogicRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	rule, err := h.Service.UpdateLogicRule(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule godoc
// @Summary      Delete a logic rule
// @Description  Delete a logic rule by ID
// @Tags         logic-rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/logic/{id} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	id := c.Param("id")
	err := h.Service.DeleteLogicRule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetRuleVersions godoc
// @Summary      Get rule version history
// @Description  Get version history for a specific logic rule
// @Tags         logic-rules
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {array}   RuleVersion
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /rules/logic/{id}/versions [get]
func (h *Handler) GetRuleVersions(c *gin.Context) {
	id := c.Param("id")
	versions, err := h.Service.GetRuleVersions(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

// GetRuleAuditLogs godoc
// @Summary      Get audit logs for a rule
// @Description  Get audit logs for a specific logic rule
// @Tags         logic-rules
// @Accept       json
// @Produce      json
// @Param        id     path      string  true   "Rule ID"
// @Param        limit  query     int     false  "Maximum number of logs to return (1-1000)" default(100)
// @Success      200    {array}   AuditLog
// @Failure      404    {object}  errors.ErrorResponse
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /rules/logic/{id}/audit [get]
func (h *Handler) GetRuleAuditLogs(c *gin.Context) {
	id := c.Param("id")
	limit := parseLimit(c.Query("limit"))

	logs, err := h.Service.GetAuditLogs(c.Request.Context(), &id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetAuditLogs godoc
// @Summary      Get audit logs
// @Description  Get audit logs with optional filtering by rule ID
// @Tags         audit
// @Accept       json
// @Produce      json
// @Param        rule_id  query     string  false  "Filter by rule ID"
// @Param        limit    query     int     false  "Maximum number of logs to return (1-1000)" default(100)
// @Success      200      {array}   AuditLog
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /audit/logs [get]
func (h *Handler) GetAuditLogs(c *gin.Context) {
	ruleID := c.Query("rule_id")
	limit := parseLimit(c.Query("limit"))

	var ruleIDPtr *string
	if ruleID != "" {
		ruleIDPtr = &ruleID
	}

	logs, err := h.Service.GetAuditLogs(c.Request.Context(), ruleIDPtr, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func parseLimit(limitStr string) int {
	if limitStr == "" {
		return constants.DefaultLimit
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > constants.MaxLimit {
		return constants.DefaultLimit
	}
	return parsed
}

type ProductHandler struct {
	BaseHandler
}

func NewProductHandler(service Service, log logger.Logger) *ProductHandler {
	return &ProductHandler{
		BaseHandler: BaseHandler{
			Service: service,
			Logger:  log,
		},
	}
}

func (h *ProductHandler) RegisterProductRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", h.ListProductConfigs)
			products.POST("", h.CreateProductConfig)
			products.GET("/:id", h.GetProductConfig)
			products.PUT("/:id", h.UpdateProductConfig)
			products.DELETE("/:id", h.DeleteProductConfig)
		}
	}
}

// ListProductConfigs godoc
// @Summary      List product configurations
// @Description  Get a list of all product configurations
// @Tags         products
// @Accept       json
// @Produce      json
// @Success      200  {array}    ProductConfig
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /products [get]
func (h *ProductHandler) ListProductConfigs(c *gin.Context) {
	configs, err := h.Service.ListProductConfigs(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

// CreateProductConfig godoc
// @Summary      Create a product configuration
// @Description  Create a new product configuration with settings and options
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        product  body       CreateProductConfigRequest  true  "Product configuration data"
// @Success      201      {object}   ProductConfig
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      409      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /products [post]
func (h *ProductHandler) CreateProductConfig(c *gin.Context) {
	var req CreateProductConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	cfg, err := h.Service.CreateProductConfig(c.Request.Context(), req)
	if err != nil {
		if errors.IsValidation(err) {
			response := errors.ToErrorResponse(err)
			if err.Error() != "" {
				response["message"] = err.Error()
			}
			c.JSON(http.StatusBadRequest, response)
			return
		}
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cfg)
}

// GetProductConfig godoc
// @Summary      Get a product configuration by ID
// @Description  Get a specific product configuration by its ID
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}   ProductConfig
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) GetProductConfig(c *gin.Context) {
	id := c.Param("id")
	cfg, err := h.Service.GetProductConfig(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// UpdateProductConfig godoc
// @Summary      Update a product configuration
// @Description  Update an existing product configuration by ID
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Product ID"
// @Param        product  body       UpdateProductConfigRequest  true  "Updated configuration data"
// @Success      200      {object}   ProductConfig
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      404      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /products/{id} [put]
func (h *ProductHandler) UpdateProductConfig(c *gin.Context) {
	id := c.Param("id")
	var req UpdateProductConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	cfg, err := h.Service.UpdateProductConfig(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// DeleteProductConfig godoc
// @Summary      Delete a product configuration
// @Description  Delete a product configuration by ID
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /products/{id} [delete]
func (h *ProductHandler) DeleteProductConfig(c *gin.Context) {
	id := c.Param("id")
	err := h.Service.DeleteProductConfig(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
