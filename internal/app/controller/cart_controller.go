package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	apperrors "github.com/ikkim/udonggeum-checkout/internal/errors"
)

type CartController struct {
	shoppingService service.ShoppingService
}

func NewCartController(shoppingService service.ShoppingService) *CartController {
	return &CartController{
		shoppingService: shoppingService,
	}
}

type SelectAllRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

// GetCart returns the shopper's cart grouped by store with a pricing preview
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	view, err := ctrl.shoppingService.GetCart(shopperID)
	if err != nil {
		respondError(c, err, "get cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

// ToggleLine flips the selected flag of one line
// POST /api/v1/cart/lines/:id/toggle
func (ctrl *CartController) ToggleLine(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	view, err := ctrl.shoppingService.ToggleLine(shopperID, c.Param("id"))
	if err != nil {
		respondError(c, err, "toggle cart line")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

// UpdateQuantity sets a line quantity; out-of-range values are clamped
// PUT /api/v1/cart/lines/:id
func (ctrl *CartController) UpdateQuantity(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithValidationError(c, apperrors.BindingFields(err))
		return
	}

	view, err := ctrl.shoppingService.SetLineQuantity(shopperID, c.Param("id"), *req.Quantity)
	if err != nil {
		respondError(c, err, "update cart line")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

// RemoveLine deletes a line. Removing an unknown line succeeds.
// DELETE /api/v1/cart/lines/:id
func (ctrl *CartController) RemoveLine(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	view, err := ctrl.shoppingService.RemoveLine(shopperID, c.Param("id"))
	if err != nil {
		respondError(c, err, "delete cart line")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

// ToggleStore selects every line of a store, or deselects them when all are selected
// POST /api/v1/cart/stores/:storeId/toggle
func (ctrl *CartController) ToggleStore(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	view, err := ctrl.shoppingService.ToggleStore(shopperID, c.Param("storeId"))
	if err != nil {
		respondError(c, err, "toggle cart store")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}

// SelectAll selects or deselects every line
// POST /api/v1/cart/select-all
func (ctrl *CartController) SelectAll(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	var req SelectAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithValidationError(c, apperrors.BindingFields(err))
		return
	}

	view, err := ctrl.shoppingService.SelectAll(shopperID, *req.Selected)
	if err != nil {
		respondError(c, err, "select all cart lines")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": view})
}
