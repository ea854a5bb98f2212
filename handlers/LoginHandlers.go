package handlers

import (
	"errors"
	"net/http"
	"strings"

	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// LoginHandler authenticates by email and password and returns a token pair.
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body  models.LoginRequest  true  "Credentials"
// @Success      200  {object}  models.APIResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /api/login [post]
func LoginHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginData models.LoginRequest
		if err := c.ShouldBindJSON(&loginData); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid input")
			return
		}

		var user models.User
		err := db.Where("email = ?", loginData.Email).First(&user).Error
		if err != nil || !utils.ValidatePassword(user.Password, loginData.Password) {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if user.Suspended {
			utils.ErrorResponse(c, http.StatusForbidden, "account is suspended")
			return
		}

		accessToken, err := utils.GenerateJWT(&user)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to issue token")
			return
		}
		refreshToken, err := utils.GenerateRefreshToken(&user)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to issue token")
			return
		}

		utils.SuccessResponse(c, models.LoginResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			User:         user,
		})
	}
}

// RefreshTokenHandler exchanges a valid refresh token for a new access token.
// @Summary      Refresh access token
// @Tags         auth
// @Success      200  {object}  models.APIResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/refresh-token [post]
func RefreshTokenHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "refresh_token is required")
			return
		}

		token, err := utils.ValidateJWT(body.RefreshToken)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		claims, ok := utils.TokenClaims(token)
		if !ok || claims["type"] != "refresh" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid refresh token")
			return
		}

		email, _ := claims["email"].(string)
		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.ErrorResponse(c, http.StatusUnauthorized, "user not found")
				return
			}
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to load user")
			return
		}
		if user.Suspended {
			utils.ErrorResponse(c, http.StatusForbidden, "account is suspended")
			return
		}

		accessToken, err := utils.GenerateJWT(&user)
		if err != nil {
			utils.ErrorResponse(c, http.StatusInternalServerError, "failed to issue token")
			return
		}
		utils.SuccessResponse(c, gin.H{"access_token": accessToken})
	}
}

// ValidateTokenHandler reports whether the presented access token is still
// valid and echoes its claims. Runs behind AuthMiddleware, so reaching the
// handler already means the token checked out.
// @Summary      Validate the current access token
// @Tags         auth
// @Success      200  {object}  models.APIResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/validate-token [get]
func ValidateTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Get("claims")
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
			return
		}
		utils.SuccessResponse(c, gin.H{"valid": true, "claims": claims})
	}
}

// bearerToken pulls the token out of the Authorization header.
func bearerToken(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	token = strings.TrimPrefix(token, "Bearer ")
	return strings.TrimSpace(token)
}

// AuthMiddleware validates the bearer token and stashes its claims in the
// request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "authorization token required")
			c.Abort()
			return
		}

		token, err := utils.ValidateJWT(tokenStr)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		claims, ok := utils.TokenClaims(token)
		if !ok || claims["type"] != "access" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid token claims")
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

// RequirePermission gates a route on a named permission from the token's
// permission list. Admins pass unconditionally.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Get("claims")
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
			c.Abort()
			return
		}
		mapClaims, _ := claims.(jwt.MapClaims)

		if role, _ := mapClaims["role"].(string); strings.EqualFold(role, "admin") {
			c.Next()
			return
		}

		perms, _ := mapClaims["permissions"].([]interface{})
		for _, p := range perms {
			if s, _ := p.(string); s == permission {
				c.Next()
				return
			}
		}
		utils.ErrorResponse(c, http.StatusForbidden, "missing permission: "+permission)
		c.Abort()
	}
}

// currentUserID extracts the authenticated user id from the stored claims.
func currentUserID(c *gin.Context) (uint, bool) {
	claims, ok := c.Get("claims")
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "not authenticated")
		return 0, false
	}
	mapClaims, _ := claims.(jwt.MapClaims)
	uid, ok := mapClaims["uid"].(float64)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid token claims")
		return 0, false
	}
	return uint(uid), true
}
