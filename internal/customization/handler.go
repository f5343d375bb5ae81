package customization

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/logger"
	"atelier/pkg/errors"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products/:id")
		{
			products.POST("/resolve", h.Resolve)
			products.POST("/quote", h.Quote)
			products.POST("/variant", h.Variant)
			products.POST("/summary", h.Summary)
		}
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

func (h *Handler) bindRequest(c *gin.Context) (CustomizeRequest, bool) {
	var req CustomizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return req, false
	}
	return req, true
}

// Resolve godoc
// @Summary      Resolve a selection against a product's logic rules
// @Description  Apply the product's logic rules to the selection and return the computed view, adjusted selection and diagnostics
// @Tags         customization
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Product ID"
// @Param        request  body      CustomizeRequest  true  "Selection to resolve"
// @Success      200      {object}  ResolveResponse
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      404      {object}  errors.ErrorResponse
// @Router       /products/{id}/resolve [post]
func (h *Handler) Resolve(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	resp, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Quote godoc
// @Summary      Price a selection
// @Description  Resolve the selection and return a price quote in minor currency units, with per-setting lines and unmet requirements
// @Tags         customization
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Product ID"
// @Param        request  body      CustomizeRequest  true  "Selection to price"
// @Success      200      {object}  QuoteResponse
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      404      {object}  errors.ErrorResponse
// @Router       /products/{id}/quote [post]
func (h *Handler) Quote(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	resp, err := h.service.Quote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Variant godoc
// @Summary      Resolve the image variant for a selection
// @Description  Build the deterministic variant key for the selection and look up whether a matching asset exists
// @Tags         customization
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Product ID"
// @Param        request  body      CustomizeRequest  true  "Selection to resolve"
// @Success      200      {object}  VariantResponse
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      404      {object}  errors.ErrorResponse
// @Router       /products/{id}/variant [post]
func (h *Handler) Variant(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	resp, err := h.service.Variant(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary      Format a human-readable selection summary
// @Description  Resolve the selection and return a single-line summary of the visible chosen options
// @Tags         customization
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Product ID"
// @Param        request  body      CustomizeRequest  true  "Selection to summarize"
// @Success      200      {object}  SummaryResponse
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      404      {object}  errors.ErrorResponse
// @Router       /products/{id}/summary [post]
func (h *Handler) Summary(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	resp, err := h.service.Summary(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
