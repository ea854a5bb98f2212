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

// GetStores godoc
// @Summary      List stores
// @Tags         stores
// @Produce      json
// @Param        q  query  string  false  "Filter by CCID, brand or city (partial)"
// @Success      200  {object}  models.APIResponse
// @Router       /api/stores [get]
func GetStores(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stores := []models.Store{}
		q := db.Order("brand_name, location")
		if term := c.Query("q"); term != "" {
			like := "%" + term + "%"
			q = q.Where("LOWER(oracle_ccid) LIKE LOWER(?) OR LOWER(brand_name) LIKE LOWER(?) OR LOWER(city) LIKE LOWER(?)",
				like, like, like)
		}
		if err := q.Find(&stores).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch stores")
			return
		}
		utils.SuccessResponse(c, stores)
	}
}

// GetStoreByCCID godoc
// @Summary      Fetch a store by Oracle CCID
// @Tags         stores
// @Param        ccid  path  string  true  "Oracle CCID"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/stores/{ccid} [get]
func GetStoreByCCID(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ccid := c.Param("ccid")
		var store models.Store
		err := db.Where("oracle_ccid = ?", ccid).First(&store).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Fall through to user-entered sites.
			var custom models.CustomStore
			if err := db.Where("oracle_ccid = ?", ccid).First(&custom).Error; err != nil {
				utils.ErrorResponse(c, http.StatusNotFound, "store not found")
				return
			}
			utils.SuccessResponse(c, custom)
			return
		}
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch store")
			return
		}
		utils.SuccessResponse(c, store)
	}
}

// CreateCustomStore godoc
// @Summary      Create a custom store
// @Tags         stores
// @Accept       json
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/custom-stores [post]
func CreateCustomStore(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var store models.CustomStore
		if err := c.ShouldBindJSON(&store); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		if store.OracleCCID == "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "oracle_ccid is required")
			return
		}
		if err := db.Create(&store).Error; err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "store with this CCID already exists")
			return
		}
		utils.SuccessResponse(c, store)
	}
}

// UpdateCustomStore godoc
// @Summary      Update a custom store
// @Tags         stores
// @Param        id  path  int  true  "Custom store ID"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/custom-stores/{id} [put]
func UpdateCustomStore(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid store id")
			return
		}
		var store models.CustomStore
		if err := db.First(&store, id).Error; err != nil {
			utils.ErrorResponse(c, http.StatusNotFound, "store not found")
			return
		}
		if err := c.ShouldBindJSON(&store); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		store.ID = uint(id)
		if err := db.Save(&store).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to update store")
			return
		}
		utils.SuccessResponse(c, store)
	}
}

// DeleteCustomStore godoc
// @Summary      Delete a custom store
// @Tags         stores
// @Param        id  path  int  true  "Custom store ID"
// @Success      200  {object}  models.MessageResponse
// @Router       /api/custom-stores/{id} [delete]
func DeleteCustomStore(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid store id")
			return
		}
		res := db.Delete(&models.CustomStore{}, id)
		if res.Error != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to delete store")
			return
		}
		if res.RowsAffected == 0 {
			utils.ErrorResponse(c, http.StatusNotFound, "store not found")
			return
		}
		utils.MessageResponse(c, "store deleted")
	}
}
