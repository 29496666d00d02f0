package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	apperrors "github.com/ikkim/udonggeum-checkout/internal/errors"
	"github.com/ikkim/udonggeum-checkout/internal/middleware"
)

type VariantController struct {
	shoppingService service.ShoppingService
}

func NewVariantController(shoppingService service.ShoppingService) *VariantController {
	return &VariantController{
		shoppingService: shoppingService,
	}
}

type SelectOptionRequest struct {
	DimensionID string `json:"dimension_id" binding:"required"`
	OptionID    string `json:"option_id" binding:"required"`
}

type QuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetVariant returns the shopper's current selection for a product
// GET /api/v1/products/:id/variants
func (ctrl *VariantController) GetVariant(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	view, err := ctrl.shoppingService.VariantState(c.Request.Context(), shopperID, c.Param("id"))
	if err != nil {
		respondError(c, err, "get variant")
		return
	}
	c.JSON(http.StatusOK, gin.H{"variant": view})
}

// SelectOption chooses one option of a dimension
// POST /api/v1/products/:id/variants/select
func (ctrl *VariantController) SelectOption(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	var req SelectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid select option request", map[string]interface{}{
			"shopper_id": shopperID,
			"error":      err.Error(),
		})
		apperrors.RespondWithValidationError(c, apperrors.BindingFields(err))
		return
	}

	view, err := ctrl.shoppingService.SelectOption(c.Request.Context(), shopperID, c.Param("id"), req.DimensionID, req.OptionID)
	if err != nil {
		respondError(c, err, "select option")
		return
	}
	c.JSON(http.StatusOK, gin.H{"variant": view})
}

// DeselectOption clears the choice of one dimension
// DELETE /api/v1/products/:id/variants/:dimension
func (ctrl *VariantController) DeselectOption(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	view, err := ctrl.shoppingService.DeselectOption(c.Request.Context(), shopperID, c.Param("id"), c.Param("dimension"))
	if err != nil {
		respondError(c, err, "deselect option")
		return
	}
	c.JSON(http.StatusOK, gin.H{"variant": view})
}

// SetQuantity sets the quantity to add; out-of-range values are clamped
// PUT /api/v1/products/:id/variants/quantity
func (ctrl *VariantController) SetQuantity(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithValidationError(c, apperrors.BindingFields(err))
		return
	}

	view, err := ctrl.shoppingService.SetVariantQuantity(c.Request.Context(), shopperID, c.Param("id"), *req.Quantity)
	if err != nil {
		respondError(c, err, "set variant quantity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"variant": view})
}

// AddToCart commits the current selection to the cart
// POST /api/v1/products/:id/variants/cart
func (ctrl *VariantController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	lineID, view, err := ctrl.shoppingService.AddToCart(c.Request.Context(), shopperID, c.Param("id"))
	if err != nil {
		respondError(c, err, "add to cart")
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"shopper_id": shopperID,
		"product_id": c.Param("id"),
		"line_id":    lineID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"line_id": lineID,
		"cart":    view,
	})
}
