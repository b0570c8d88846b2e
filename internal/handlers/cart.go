package handlers

import (
	"errors"
	"net/http"

	"campusmarket_back_end/internal/models"
	"campusmarket_back_end/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 🟢 GET /api/cart
func GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	entries, err := deps.Carts.List(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chargement du panier impossible"})
		return
	}
	if entries == nil {
		entries = []models.CartEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"cart": entries})
}

// 🟢 POST /api/cart/add
func AddToCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var req struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	switch err := deps.Carts.AddOrIncrement(ctx, userID, productID, req.Quantity); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Produit ajouté au panier"})
	case errors.Is(err, workflow.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ajout au panier impossible"})
	}
}

// 🟢 GET /api/cart/check
func CheckCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Query("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	in, err := deps.Carts.Contains(ctx, userID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Vérification du panier impossible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inCart": in})
}

// 🟢 PUT /api/cart/update
func UpdateCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var req struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	switch err := deps.Carts.SetQuantity(ctx, userID, productID, req.Quantity); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Quantité mise à jour"})
	case errors.Is(err, workflow.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit absent du panier"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Mise à jour du panier impossible"})
	}
}

// 🟢 DELETE /api/cart/:productId
func RemoveFromCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	switch err := deps.Carts.Remove(ctx, userID, productID); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Produit retiré du panier"})
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit absent du panier"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Suppression impossible"})
	}
}
