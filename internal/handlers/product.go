package handlers

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campusmarket_back_end/internal/database"
	"campusmarket_back_end/internal/models"
	"campusmarket_back_end/internal/services"
	"campusmarket_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	homePageSize  = 18
	searchLimit   = 18
	categoriesTTL = 5 * time.Minute
)

// 🟢 POST /api/sell
// Accepte du JSON simple ou un formulaire multipart avec une image optionnelle
// envoyée vers MinIO.
func SellProduct(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var req struct {
		Name        string  `json:"name" form:"name" binding:"required"`
		Price       float64 `json:"price" form:"price"`
		Description string  `json:"description" form:"description" binding:"required"`
		Category    string  `json:"category" form:"category" binding:"required"`
	}
	multipart := strings.HasPrefix(c.ContentType(), "multipart/form-data")
	var err error
	if multipart {
		err = c.ShouldBind(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil || req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données produit invalides"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	product := models.Product{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Category:    req.Category,
		SellerID:    userID,
		CreatedAt:   time.Now(),
	}
	if err := deps.Stores.Products.Insert(ctx, &product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Création du produit impossible"})
		return
	}

	if multipart {
		if file, err := c.FormFile("image"); err == nil {
			url, err := services.UploadProductImage(ctx, product.ID.Hex(), file)
			if err != nil {
				log.Printf("⚠️ Upload image produit échoué: %v", err)
			} else if err := deps.Stores.Products.SetImageURL(ctx, product.ID, url); err == nil {
				product.ImageURL = url
			}
		}
	}

	// Indexation Elasticsearch en arrière-plan, la vente n'attend pas.
	go services.IndexProduct(product)
	// Le cache catégories peut contenir une nouvelle entrée.
	database.RedisClient.Del(ctx, "categories")

	c.JSON(http.StatusCreated, gin.H{"message": "Produit mis en vente", "product": product})
}

// parsePriceRange lit "min-max" ("200-" = pas de plafond, "all" = aucun filtre).
func parsePriceRange(raw string) (min, max *float64) {
	if raw == "" || raw == "all" {
		return nil, nil
	}
	parts := strings.SplitN(raw, "-", 2)
	if v, err := strconv.ParseFloat(parts[0], 64); err == nil {
		min = &v
	}
	if len(parts) == 2 && parts[1] != "" {
		if v, err := strconv.ParseFloat(parts[1], 64); err == nil {
			max = &v
		}
	}
	return min, max
}

// 🟢 GET /api/home
// Parcourt le catalogue en excluant les produits de l'utilisateur courant.
func Home(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	min, max := parsePriceRange(c.Query("priceRange"))
	filter := store.BrowseFilter{
		Category: c.Query("category"),
		MinPrice: min,
		MaxPrice: max,
		Skip:     int64(page-1) * homePageSize,
		Limit:    homePageSize,
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	products, total, err := deps.Stores.Products.Browse(ctx, userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chargement du catalogue impossible"})
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{
		"products":    products,
		"currentPage": page,
		"totalPages":  int(math.Ceil(float64(total) / float64(homePageSize))),
	})
}

// 🟢 GET /api/categories
// Les catégories distinctes changent peu, on les garde 5 minutes dans Redis.
func Categories(c *gin.Context) {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if cached, err := database.RedisClient.Get(ctx, "categories").Result(); err == nil {
		var categories []string
		if json.Unmarshal([]byte(cached), &categories) == nil {
			c.JSON(http.StatusOK, gin.H{"categories": categories})
			return
		}
	}

	categories, err := deps.Stores.Products.DistinctCategories(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chargement des catégories impossible"})
		return
	}
	if categories == nil {
		categories = []string{}
	}
	if payload, err := json.Marshal(categories); err == nil {
		database.RedisClient.Set(ctx, "categories", payload, categoriesTTL)
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// 🟢 GET /api/product/:id
func ProductDetail(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	product, err := deps.Stores.Products.FindByID(ctx, productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	seller, err := deps.Stores.Users.FindByID(ctx, product.SellerID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"product": product, "seller": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product": product,
		"seller": gin.H{
			"firstName": seller.FirstName,
			"lastName":  seller.LastName,
			"email":     seller.Email,
			"reviews":   seller.Reviews,
		},
	})
}

// 🟢 GET /api/products/search
// Elasticsearch en premier, repli regex Mongo quand l'index est indisponible.
func SearchProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"products": []models.Product{}})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	products, err := services.SearchProducts(ctx, query, searchLimit)
	if err != nil {
		products, err = deps.Stores.Products.SearchByName(ctx, query, searchLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Recherche impossible"})
			return
		}
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// 🟢 GET /api/products/initial
func InitialProducts(c *gin.Context) {
	ctx, cancel := requestCtx(c)
	defer cancel()

	products, err := deps.Stores.Products.Latest(ctx, searchLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chargement des produits impossible"})
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
