package handlers

import (
	"net/http"
	"strconv"

	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetClientGroups returns all client groups.
func GetClientGroups(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups := []models.ClientGroup{}
		if err := db.Order("name").Find(&groups).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch client groups")
			return
		}
		utils.SuccessResponse(c, groups)
	}
}

// CreateClientGroup creates a client group.
func CreateClientGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var group models.ClientGroup
		if err := c.ShouldBindJSON(&group); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		if group.Name == "" {
			utils.ErrorResponse(c, http.StatusBadRequest, "name is required")
			return
		}
		if err := db.Create(&group).Error; err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "client group already exists")
			return
		}
		utils.SuccessResponse(c, group)
	}
}

// UpdateClientGroup updates a client group.
func UpdateClientGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid group id")
			return
		}
		var group models.ClientGroup
		if err := db.First(&group, id).Error; err != nil {
			utils.ErrorResponse(c, http.StatusNotFound, "client group not found")
			return
		}
		if err := c.ShouldBindJSON(&group); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}
		group.ID = uint(id)
		if err := db.Save(&group).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to update client group")
			return
		}
		utils.SuccessResponse(c, group)
	}
}

// DeleteClientGroup deletes a client group.
func DeleteClientGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid group id")
			return
		}
		res := db.Delete(&models.ClientGroup{}, id)
		if res.Error != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to delete client group")
			return
		}
		if res.RowsAffected == 0 {
			utils.ErrorResponse(c, http.StatusNotFound, "client group not found")
			return
		}
		utils.MessageResponse(c, "client group deleted")
	}
}
