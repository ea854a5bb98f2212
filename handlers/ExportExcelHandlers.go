package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportQuotationsExcel godoc
// @Summary      Export the quotation register as an Excel workbook
// @Description  Latest revisions only, optionally filtered by the same query params as search. Includes a Summary sheet with per-status totals.
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  file  "Excel file"
// @Router       /api/export/quotations [get]
func ExportQuotationsExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.JobSearchFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid query parameters")
			return
		}

		q := db.Model(&models.Job{}).Where("is_latest = ?", true)
		if filter.QuoteStatus != "" {
			q = q.Where("quote_status = ?", filter.QuoteStatus)
		}
		if filter.Region != "" {
			q = q.Where("LOWER(region) LIKE LOWER(?)", "%"+filter.Region+"%")
		}
		if filter.City != "" {
			q = q.Where("LOWER(city) LIKE LOWER(?)", "%"+filter.City+"%")
		}
		if filter.DateFrom != nil {
			q = q.Where("created_at >= ?", *filter.DateFrom)
		}
		if filter.DateTo != nil {
			q = q.Where("created_at <= ?", *filter.DateTo)
		}

		var jobs []models.Job
		if err := q.Order("created_at DESC").Find(&jobs).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch quotations")
			return
		}

		f := excelize.NewFile()
		defer func() {
			if err := f.Close(); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error closing Excel file"})
			}
		}()

		sheet := "Quotations"
		index, err := f.NewSheet(sheet)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to create sheet")
			return
		}
		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1")

		headerStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 12},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		})
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to create style")
			return
		}

		headers := []string{
			"Quote No", "Rev", "Status", "Work Status", "Brand", "Location",
			"City", "Region", "CCID", "MR No", "Subtotal", "Discount",
			"VAT", "Grand Total", "Sent At", "Created At",
		}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		lastHeaderCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
		f.SetCellStyle(sheet, "A1", lastHeaderCell, headerStyle)

		statusTotals := map[string]float64{}
		statusCounts := map[string]int{}
		for i, job := range jobs {
			row := i + 2
			values := []interface{}{
				job.QuoteNo, job.RevisionNo, job.QuoteStatus, job.WorkStatus,
				job.BrandName, job.Location, job.City, job.Region,
				job.OracleCCID, job.MrNo, job.Subtotal, job.Discount,
				job.VatAmount, job.GrandTotal,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			if job.SentAt != nil {
				cell, _ := excelize.CoordinatesToCellName(15, row)
				f.SetCellValue(sheet, cell, job.SentAt.Format("2006-01-02"))
			}
			cell, _ := excelize.CoordinatesToCellName(16, row)
			f.SetCellValue(sheet, cell, job.CreatedAt.Format("2006-01-02"))

			statusTotals[job.QuoteStatus] += job.GrandTotal
			statusCounts[job.QuoteStatus]++
		}
		f.SetColWidth(sheet, "A", "A", 16)
		f.SetColWidth(sheet, "E", "H", 18)

		// Summary Sheet
		summarySheet := "Summary"
		if _, err := f.NewSheet(summarySheet); err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to create summary sheet")
			return
		}
		f.SetCellValue(summarySheet, "A1", "Quotation Register Summary")
		f.SetCellValue(summarySheet, "A2", "Generated")
		f.SetCellValue(summarySheet, "B2", time.Now().Format("2006-01-02 15:04"))
		f.SetCellValue(summarySheet, "A3", "Total Quotations")
		f.SetCellValue(summarySheet, "B3", len(jobs))

		f.SetCellValue(summarySheet, "A5", "Status")
		f.SetCellValue(summarySheet, "B5", "Count")
		f.SetCellValue(summarySheet, "C5", "Grand Total")
		f.SetCellStyle(summarySheet, "A5", "C5", headerStyle)
		row := 6
		for _, status := range []string{
			models.QuoteStatusIntake, models.QuoteStatusDraft, models.QuoteStatusSent,
			models.QuoteStatusApproved, models.QuoteStatusRejected,
			models.QuoteStatusCompleted, models.QuoteStatusRevised,
		} {
			count, ok := statusCounts[status]
			if !ok {
				continue
			}
			f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), status)
			f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), count)
			f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), statusTotals[status])
			row++
		}

		filename := fmt.Sprintf("quotation_register_%s.xlsx", time.Now().Format("20060102"))
		escaped := url.PathEscape(filename)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", filename, escaped))

		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing Excel file"})
			return
		}
	}
}
