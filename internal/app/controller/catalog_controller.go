package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-checkout/internal/app/service"
	apperrors "github.com/ikkim/udonggeum-checkout/internal/errors"
	"github.com/ikkim/udonggeum-checkout/internal/middleware"
)

const maxCatalogBodySize = 1 << 20

type CatalogController struct {
	catalogService service.CatalogService
}

func NewCatalogController(catalogService service.CatalogService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
	}
}

type catalogSummary struct {
	ProductID   string `json:"product_id"`
	StoreID     string `json:"store_id"`
	Title       string `json:"title"`
	Dimensions  int    `json:"dimensions"`
	MaxQuantity int    `json:"max_quantity"`
}

func summarize(product *service.ProductCatalog) catalogSummary {
	return catalogSummary{
		ProductID:   product.Catalog.ProductID(),
		StoreID:     product.StoreID,
		Title:       product.Catalog.Title(),
		Dimensions:  len(product.Catalog.Dimensions()),
		MaxQuantity: product.Catalog.MaxQuantity(),
	}
}

// PutCatalog stores a JSON or YAML catalog document, chosen by Content-Type
// PUT /api/v1/admin/catalogs/:id
func (ctrl *CatalogController) PutCatalog(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	productID := c.Param("id")

	format, err := service.NormalizeCatalogFormat(c.ContentType())
	if err != nil {
		respondError(c, err, "import catalog")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCatalogBodySize))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "요청 본문을 읽을 수 없습니다")
		return
	}
	doc, err := service.DecodeCatalogDocument(body, format)
	if err != nil {
		log.Warn("Invalid catalog document", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "옵션 문서 형식이 올바르지 않습니다")
		return
	}
	if doc.ProductID == "" {
		doc.ProductID = productID
	}
	if doc.ProductID != productID {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "상품 ID가 일치하지 않습니다")
		return
	}

	product, err := ctrl.catalogService.Import(c.Request.Context(), doc, format)
	if err != nil {
		respondError(c, err, "import catalog")
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalog": summarize(product)})
}

// ImportWorkbook imports every product of an uploaded XLSX workbook. Products that fail are
// reported and do not stop the others.
// POST /api/v1/admin/catalogs/workbook
func (ctrl *CatalogController) ImportWorkbook(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "엑셀 파일을 첨부해주세요")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err, "import catalog workbook")
		return
	}
	defer file.Close()

	docs, err := service.ReadCatalogWorkbook(file)
	if err != nil {
		log.Warn("Invalid catalog workbook", map[string]interface{}{
			"filename": fileHeader.Filename,
			"error":    err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "엑셀 파일 형식이 올바르지 않습니다")
		return
	}

	imported := make([]catalogSummary, 0, len(docs))
	failed := make(map[string]string)
	for _, doc := range docs {
		product, err := ctrl.catalogService.Import(c.Request.Context(), doc, "json")
		if err != nil {
			failed[doc.ProductID] = apperrors.ParseError(err, "import catalog").Message
			continue
		}
		imported = append(imported, summarize(product))
	}

	log.Info("Catalog workbook imported", map[string]interface{}{
		"filename": fileHeader.Filename,
		"imported": len(imported),
		"failed":   len(failed),
	})
	c.JSON(http.StatusOK, gin.H{
		"imported": imported,
		"failed":   failed,
	})
}

// InvalidateCatalog drops the cached catalog so the next read reloads it
// DELETE /api/v1/admin/catalogs/:id/cache
func (ctrl *CatalogController) InvalidateCatalog(c *gin.Context) {
	ctrl.catalogService.Invalidate(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}
