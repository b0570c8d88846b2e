package handlers

import (
	"errors"
	"net/http"

	"campusmarket_back_end/internal/store"

	"github.com/gin-gonic/gin"
)

// 🟢 GET /api/profile
func GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := deps.Stores.Users.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// 🟢 PUT /api/profile
func UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var req struct {
		FirstName     string `json:"firstName" binding:"required"`
		LastName      string `json:"lastName" binding:"required"`
		Email         string `json:"email" binding:"required,email"`
		Age           int    `json:"age" binding:"required"`
		ContactNumber string `json:"contactNumber" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	user, err := deps.Stores.Users.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	// Un changement d'email ne doit pas écraser un compte existant.
	if req.Email != user.Email {
		if _, err := deps.Stores.Users.FindByEmail(ctx, req.Email); err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Un compte existe déjà avec cet email"})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Email = req.Email
	user.Age = req.Age
	user.ContactNumber = req.ContactNumber

	if err := deps.Stores.Users.Update(ctx, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Mise à jour impossible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour", "user": user})
}
