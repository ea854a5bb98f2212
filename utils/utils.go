package utils

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"backend/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func secretKey() []byte {
	if key := os.Getenv("JWT_SECRET"); key != "" {
		return []byte(key)
	}
	return []byte("maintdesk-dev-secret")
}

// ErrorResponse writes the standard failure envelope.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, models.APIResponse{Success: false, Message: message})
}

// SuccessResponse writes the standard success envelope with data.
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Data: data})
}

// MessageResponse writes a success envelope with only a message.
func MessageResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, models.APIResponse{Success: true, Message: message})
}

// GenerateJWT creates a short-lived access token carrying the user's id,
// role and permission list.
func GenerateJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"uid":         user.ID,
		"email":       user.Email,
		"role":        user.Role,
		"permissions": []string(user.Permissions),
		"type":        "access",
		"exp":         time.Now().Add(15 * time.Minute).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// GenerateRefreshToken creates a long-lived refresh token bound to the user.
func GenerateRefreshToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"uid":   user.ID,
		"email": user.Email,
		"type":  "refresh",
		"exp":   time.Now().Add(15 * 24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateJWT parses and validates a JWT string.
func ValidateJWT(tokenStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token parsing error: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return token, nil
}

// TokenClaims extracts the map claims from a validated token.
func TokenClaims(token *jwt.Token) (jwt.MapClaims, bool) {
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

func ValidatePassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}
