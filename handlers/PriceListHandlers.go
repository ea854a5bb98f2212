package handlers

import (
	"net/http"
	"strconv"

	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetPriceLists godoc
// @Summary      List catalog entries
// @Tags         pricelists
// @Produce      json
// @Param        q  query  string  false  "Filter by code or description (partial)"
// @Success      200  {object}  models.APIResponse
// @Router       /api/price-lists [get]
func GetPriceLists(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows := []models.PriceList{}
		q := db.Order("item_code")
		if term := c.Query("q"); term != "" {
			like := "%" + term + "%"
			q = q.Where("LOWER(item_code) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", like, like)
		}
		if err := q.Find(&rows).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch price lists")
			return
		}
		utils.SuccessResponse(c, rows)
	}
}

// GetPriceListByCode looks a catalog entry up the way the quotation service
// does: master list first, custom list second.
// @Summary      Fetch catalog entry by item code
// @Tags         pricelists
// @Param        code  path  string  true  "Item code"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/price-lists/{code} [get]
func GetPriceListByCode(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		var row models.PriceList
		if err := db.Where("item_code = ?", code).First(&row).Error; err == nil {
			utils.SuccessResponse(c, row)
			return
		}
		var custom models.CustomPriceList
		if err := db.Where("item_code = ?", code).First(&custom).Error; err != nil {
			utils.ErrorResponse(c, http.StatusNotFound, "item code not found")
			return
		}
		utils.SuccessResponse(c, custom)
	}
}

// CreateCustomPriceList godoc
// @Summary      Create a custom catalog entry
// @Tags         pricelists
// @Accept       json
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/custom-price-lists [post]
func CreateCustomPriceList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var row models.CustomPriceList
		if err := c.ShouldBindJSON(&row); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		if row.ItemCode == "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "item_code is required")
			return
		}
		if err := db.Create(&row).Error; err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "item code already exists")
			return
		}
		utils.SuccessResponse(c, row)
	}
}

// UpdateCustomPriceList godoc
// @Summary      Update a custom catalog entry
// @Tags         pricelists
// @Param        id  path  int  true  "Entry ID"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/custom-price-lists/{id} [put]
func UpdateCustomPriceList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid entry id")
			return
		}
		var row models.CustomPriceList
		if err := db.First(&row, id).Error; err != nil {
			utils.ErrorResponse(c, http.StatusNotFound, "entry not found")
			return
		}
		if err := c.ShouldBindJSON(&row); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		row.ID = uint(id)
		if err := db.Save(&row).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to update entry")
			return
		}
		utils.SuccessResponse(c, row)
	}
}

// DeleteCustomPriceList godoc
// @Summary      Delete a custom catalog entry
// @Tags         pricelists
// @Param        id  path  int  true  "Entry ID"
// @Success      200  {object}  models.MessageResponse
// @Router       /api/custom-price-lists/{id} [delete]
func DeleteCustomPriceList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid entry id")
			return
		}
		res := db.Delete(&models.CustomPriceList{}, id)
		if res.Error != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to delete entry")
			return
		}
		if res.RowsAffected == 0 {
			utils.ErrorResponse(c, http.StatusNotFound, "entry not found")
			return
		}
		utils.MessageResponse(c, "entry deleted")
	}
}
