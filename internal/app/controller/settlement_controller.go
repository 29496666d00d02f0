package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	apperrors "github.com/ikkim/udonggeum-checkout/internal/errors"
	"github.com/ikkim/udonggeum-checkout/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SettlementController struct {
	settlementService service.SettlementService
}

func NewSettlementController(settlementService service.SettlementService) *SettlementController {
	return &SettlementController{
		settlementService: settlementService,
	}
}

// Begin opens a settlement over the selected cart lines
// POST /api/v1/settlements
func (ctrl *SettlementController) Begin(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	view, err := ctrl.settlementService.Begin(shopperID)
	if err != nil {
		respondError(c, err, "create settlement")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"settlement": view})
}

// GET /api/v1/settlements/:id
func (ctrl *SettlementController) Get(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	view, err := ctrl.settlementService.Get(shopperID, c.Param("id"))
	if err != nil {
		respondError(c, err, "get settlement")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlement": view})
}

// AdjustQuantity changes a line quantity inside the settlement only
// PUT /api/v1/settlements/:id/lines/:lineId
func (ctrl *SettlementController) AdjustQuantity(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithValidationError(c, apperrors.BindingFields(err))
		return
	}

	view, err := ctrl.settlementService.AdjustQuantity(shopperID, c.Param("id"), c.Param("lineId"), *req.Quantity)
	if err != nil {
		respondError(c, err, "update settlement line")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlement": view})
}

// Cancel discards the settlement
// DELETE /api/v1/settlements/:id
func (ctrl *SettlementController) Cancel(c *gin.Context) {
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	ctrl.settlementService.Cancel(shopperID, c.Param("id"))
	c.Status(http.StatusNoContent)
}

// Export downloads the settlement as an XLSX workbook
// GET /api/v1/settlements/:id/export
func (ctrl *SettlementController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	shopperID, ok := requireShopper(c)
	if !ok {
		return
	}

	settlementID := c.Param("id")
	data, err := ctrl.settlementService.Export(shopperID, settlementID)
	if err != nil {
		respondError(c, err, "export settlement")
		return
	}

	log.Info("Settlement exported", map[string]interface{}{
		"shopper_id":    shopperID,
		"settlement_id": settlementID,
		"bytes":         len(data),
	})
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="settlement-%s.xlsx"`, settlementID))
	c.Data(http.StatusOK, xlsxContentType, data)
}
