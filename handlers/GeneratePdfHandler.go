package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"backend/models"
	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
)

// GeneratePDF godoc
// @Summary      Render a quotation as PDF
// @Tags         pdf
// @Produce      application/pdf
// @Param        id  path  int  true  "Job ID"
// @Success      200  {file}  file  "PDF document"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/pdf/generate/{id} [get]
func GeneratePDF(pdf *services.PDFService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := jobIDParam(c)
		if !ok {
			return
		}
		data, quoteNo, err := pdf.RenderJob(id)
		if errors.Is(err, services.ErrNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "quotation not found")
			return
		}
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, fmt.Sprintf("failed to render PDF: %v", err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"quotation_%s.pdf\"", quoteNo))
		c.Data(http.StatusOK, "application/pdf", data)
	}
}

// PreparePDFPreview godoc
// @Summary      Stage an unsaved quotation for preview rendering
// @Description  Accepts a full quotation payload and returns a preview id valid for one hour.
// @Tags         pdf
// @Accept       json
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/pdf/preview-prepare [post]
func PreparePDFPreview(pdf *services.PDFService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload models.CreateJobRequest
		if err := c.ShouldBindJSON(&payload); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		id := pdf.PreparePreview(payload)
		utils.SuccessResponse(c, gin.H{"preview_id": id})
	}
}

// GetPDFPreviewData godoc
// @Summary      Fetch a staged preview payload
// @Tags         pdf
// @Param        id  path  string  true  "Preview ID"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/pdf/preview-data/{id} [get]
func GetPDFPreviewData(pdf *services.PDFService) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := pdf.PreviewData(c.Param("id"))
		if errors.Is(err, services.ErrPreviewNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "preview not found or expired")
			return
		}
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch preview")
			return
		}
		utils.SuccessResponse(c, payload)
	}
}

// RenderPDFPreview godoc
// @Summary      Render a staged preview as PDF
// @Tags         pdf
// @Produce      application/pdf
// @Param        id  path  string  true  "Preview ID"
// @Success      200  {file}  file  "PDF document"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/pdf/preview/{id} [get]
func RenderPDFPreview(pdf *services.PDFService) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, quoteNo, err := pdf.RenderPreview(c.Param("id"))
		if errors.Is(err, services.ErrPreviewNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "preview not found or expired")
			return
		}
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, fmt.Sprintf("failed to render PDF: %v", err))
			return
		}
		if quoteNo == "" {
			quoteNo = "draft"
		}
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"quotation_%s.pdf\"", quoteNo))
		c.Data(http.StatusOK, "application/pdf", data)
	}
}
