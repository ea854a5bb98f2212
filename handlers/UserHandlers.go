package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CreateUser godoc
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body  models.CreateUserRequest  true  "User payload"
// @Success      200  {object}  models.APIResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /api/users [post]
func CreateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "name, email and password are required")
			return
		}

		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to hash password")
			return
		}

		user := models.User{
			Name:        req.Name,
			Email:       req.Email,
			Password:    hashed,
			Role:        req.Role,
			Permissions: pq.StringArray(req.Permissions),
		}
		if user.Role == "" {
			user.Role = "user"
		}
		if err := db.Create(&user).Error; err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "email already in use")
			return
		}
		utils.SuccessResponse(c, user)
	}
}

// GetAllUsers godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {object}  models.APIResponse
// @Router       /api/users [get]
func GetAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users := []models.User{}
		if err := db.Order("id").Find(&users).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch users")
			return
		}
		utils.SuccessResponse(c, users)
	}
}

// GetUser godoc
// @Summary      Fetch one user
// @Tags         users
// @Param        id  path  int  true  "User ID"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/users/{id} [get]
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid user id")
			return
		}
		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.ErrorResponse(c, http.StatusNotFound, "user not found")
				return
			}
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch user")
			return
		}
		utils.SuccessResponse(c, user)
	}
}

// UpdateUser godoc
// @Summary      Update user
// @Tags         users
// @Param        id  path  int  true  "User ID"
// @Success      200  {object}  models.APIResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/users/{id} [put]
func UpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid user id")
			return
		}

		var body struct {
			Name        *string   `json:"name"`
			Email       *string   `json:"email"`
			Password    *string   `json:"password"`
			Role        *string   `json:"role"`
			Permissions *[]string `json:"permissions"`
			Suspended   *bool     `json:"suspended"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
			return
		}

		var user models.User
		if err := db.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.ErrorResponse(c, http.StatusNotFound, "user not found")
				return
			}
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch user")
			return
		}

		if body.Name != nil {
			user.Name = *body.Name
		}
		if body.Email != nil {
			user.Email = *body.Email
		}
		if body.Password != nil && *body.Password != "" {
			hashed, err := utils.HashPassword(*body.Password)
			if err != nil {
				utils.ErrorResponse(c, http.StatusInternalServerError, "failed to hash password")
				return
			}
			user.Password = hashed
		}
		if body.Role != nil {
			user.Role = *body.Role
		}
		if body.Permissions != nil {
			user.Permissions = pq.StringArray(*body.Permissions)
		}
		if body.Suspended != nil {
			user.Suspended = *body.Suspended
		}

		if err := db.Save(&user).Error; err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to update user")
			return
		}
		utils.SuccessResponse(c, user)
	}
}

// DeleteUser godoc
// @Summary      Delete user
// @Tags         users
// @Param        id  path  int  true  "User ID"
// @Success      200  {object}  models.MessageResponse
// @Router       /api/users/{id} [delete]
func DeleteUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid user id")
			return
		}
		res := db.Delete(&models.User{}, id)
		if res.Error != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to delete user")
			return
		}
		if res.RowsAffected == 0 {
			utils.ErrorResponse(c, http.StatusNotFound, "user not found")
			return
		}
		utils.MessageResponse(c, "user deleted")
	}
}
