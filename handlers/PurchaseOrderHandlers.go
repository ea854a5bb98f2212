package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetPurchaseOrdersByJob godoc
// @Summary      List purchase orders of a job
// @Tags         purchase-orders
// @Param        id  path  int  true  "Job ID"
// @Success      200  {object}  models.APIResponse
// @Router       /api/quotations/{id}/purchase-orders [get]
func GetPurchaseOrdersByJob(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid job id")
			return
		}
		orders := []models.PurchaseOrder{}
		if err := db.Preload("Finance").Where("job_id = ?", id).Find(&orders).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch purchase orders")
			return
		}
		utils.SuccessResponse(c, orders)
	}
}

// GetFinanceByPoNo godoc
// @Summary      Fetch the finance record of a purchase order
// @Tags         finance
// @Param        po_no  path  string  true  "PO number"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/finance/{po_no} [get]
func GetFinanceByPoNo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		poNo := c.Param("po_no")
		var fin models.Finance
		err := db.Where("po_no = ?", poNo).First(&fin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "finance record not found")
			return
		}
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch finance record")
			return
		}
		utils.SuccessResponse(c, fin)
	}
}

// UpsertFinance godoc
// @Summary      Create or update the finance record for a PO number
// @Tags         finance
// @Accept       json
// @Param        po_no  path  string  true  "PO number"
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/finance/{po_no} [put]
func UpsertFinance(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		poNo := c.Param("po_no")

		var payload models.FinancePayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}

		// Finance hangs off an existing purchase order.
		var poCount int64
		if err := db.Model(&models.PurchaseOrder{}).Where("po_no = ?", poNo).Count(&poCount).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to check purchase order")
			return
		}
		if poCount == 0 {
			utils.ErrorResponse(c, http.StatusNotFound, "purchase order not found")
			return
		}

		var fin models.Finance
		err := db.Where("po_no = ?", poNo).First(&fin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fin = models.Finance{PoNo: poNo}
		} else if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch finance record")
			return
		}

		if payload.InvoiceStatus != "" {
			fin.InvoiceStatus = payload.InvoiceStatus
		} else if fin.InvoiceStatus == "" {
			fin.InvoiceStatus = models.InvoiceNotSubmitted
		}
		if payload.ReceivedAmount != nil {
			fin.ReceivedAmount = *payload.ReceivedAmount
		}
		if payload.AdvanceAmount != nil {
			fin.AdvanceAmount = *payload.AdvanceAmount
		}
		if payload.PaymentDate != nil {
			fin.PaymentDate = payload.PaymentDate
		}
		if payload.PaymentRef != "" {
			fin.PaymentRef = payload.PaymentRef
		}
		if payload.Remarks != "" {
			fin.Remarks = payload.Remarks
		}

		if err := db.Save(&fin).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to save finance record")
			return
		}
		utils.SuccessResponse(c, fin)
	}
}
