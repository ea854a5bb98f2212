package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"backend/models"
	"backend/services"
	"backend/utils"

	"github.com/gin-gonic/gin"
)

func jobIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid job id")
		return 0, false
	}
	return uint(id), true
}

// quotationError maps service errors to the failure envelope.
func quotationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicateQuoteNo),
		errors.Is(err, services.ErrMissingRequiredField):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

// CreateQuotation godoc
// @Summary      Create a quotation
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        request  body  models.CreateJobRequest  true  "Quotation payload"
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/quotations [post]
func CreateQuotation(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateJobRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		job, err := svc.Create(req)
		if err != nil {
			quotationError(c, err)
			return
		}
		utils.SuccessResponse(c, job)
	}
}

// UpdateQuotation godoc
// @Summary      Update a quotation (partial patch)
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Param        id       path  int                      true  "Job ID"
// @Param        request  body  models.UpdateJobRequest  true  "Patch"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/quotations/{id} [put]
func UpdateQuotation(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := jobIDParam(c)
		if !ok {
			return
		}
		var patch models.UpdateJobRequest
		if err := c.ShouldBindJSON(&patch); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		job, err := svc.Update(id, patch)
		if err != nil {
			quotationError(c, err)
			return
		}
		utils.SuccessResponse(c, job)
	}
}

// GetQuotation godoc
// @Summary      Fetch one quotation with nested data
// @Tags         quotations
// @Produce      json
// @Param        id  path  int  true  "Job ID"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/quotations/{id} [get]
func GetQuotation(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := jobIDParam(c)
		if !ok {
			return
		}
		job, err := svc.Get(id)
		if err != nil {
			quotationError(c, err)
			return
		}
		utils.SuccessResponse(c, job)
	}
}

// ListQuotations godoc
// @Summary      List quotations (latest revisions, intake/preview excluded)
// @Tags         quotations
// @Produce      json
// @Success      200  {object}  models.APIResponse
// @Router       /api/quotations [get]
func ListQuotations(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.JobSearchFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid filter")
			return
		}
		jobs, err := svc.ListQuotations(filter)
		if err != nil {
			quotationError(c, err)
			return
		}
		utils.SuccessResponse(c, jobs)
	}
}

// SearchQuotations godoc
// @Summary      Search all quotations
// @Tags         quotations
// @Produce      json
// @Success      200  {object}  models.APIResponse
// @Router       /api/quotations/search [get]
func SearchQuotations(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.JobSearchFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid filter")
			return
		}
		jobs, err := svc.Search(filter)
		if err != nil {
			quotationError(c, err)
			return
		}
		utils.SuccessResponse(c, jobs)
	}
}

// ListIntakes godoc
// @Summary      List intake rows awaiting promotion
// @Tags         quotations
// @Produce      json
// @Success      200  {object}  models.APIResponse
// @Router       /api/intakes [get]
func ListIntakes(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.JobSearchFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid filter")
			return
		}
		jobs, err := svc.ListIntakes(filter)
		if err != nil {
			quotationError(c, err)
			return
		}
		utils.SuccessResponse(c, jobs)
	}
}

// DeleteQuotation moves a quotation to the bin (soft delete). Permanent
// removal goes through the bin endpoints.
// @Summary      Move quotation to bin
// @Tags         quotations
// @Param        id  path  int  true  "Job ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/quotations/{id} [delete]
func DeleteQuotation(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := jobIDParam(c)
		if !ok {
			return
		}
		if err := svc.SoftDelete(id); err != nil {
			quotationError(c, err)
			return
		}
		utils.MessageResponse(c, "quotation moved to bin")
	}
}

// CreateRevisionHandler appends the next revision of a quote number.
// @Summary      Create next revision
// @Tags         quotations
// @Param        id  path  int  true  "Job ID (current latest revision)"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/quotations/{id}/revisions [post]
func CreateRevisionHandler(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := jobIDParam(c)
		if !ok {
			return
		}
		job, err := svc.CreateRevision(id)
		if err != nil {
			quotationError(c, err)
			return
		}
		utils.SuccessResponse(c, job)
	}
}

// ListBin godoc
// @Summary      List binned quotations
// @Tags         bin
// @Produce      json
// @Success      200  {object}  models.APIResponse
// @Router       /api/bin [get]
func ListBin(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs, err := svc.ListBin()
		if err != nil {
			quotationError(c, err)
			return
		}
		utils.SuccessResponse(c, jobs)
	}
}

// RestoreQuotation godoc
// @Summary      Restore a quotation from the bin
// @Tags         bin
// @Param        id  path  int  true  "Job ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/bin/{id}/restore [put]
func RestoreQuotation(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := jobIDParam(c)
		if !ok {
			return
		}
		if err := svc.Restore(id); err != nil {
			quotationError(c, err)
			return
		}
		utils.MessageResponse(c, "quotation restored")
	}
}

// PermanentDeleteQuotation godoc
// @Summary      Permanently delete a binned quotation
// @Tags         bin
// @Param        id  path  int  true  "Job ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/bin/{id} [delete]
func PermanentDeleteQuotation(svc *services.QuotationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := jobIDParam(c)
		if !ok {
			return
		}
		if err := svc.PermanentDelete(id); err != nil {
			quotationError(c, err)
			return
		}
		utils.MessageResponse(c, "quotation permanently deleted")
	}
}
