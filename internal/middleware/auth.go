package middleware

import (
	"log"
	"net/http"
	"strings"

	"campusmarket_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthRequired lit le jeton de session (cookie httpOnly, ou header
// Authorization Bearer en secours) et met user_id dans le context Gin.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Please log in to continue"})
			c.Abort()
			return
		}

		userID, err := utils.ParseSessionToken(tokenString)
		if err != nil {
			log.Printf("❌ Jeton de session invalide: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Please log in to continue"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(utils.SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
