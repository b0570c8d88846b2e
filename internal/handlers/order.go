package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"campusmarket_back_end/internal/database"
	"campusmarket_back_end/internal/models"
	"campusmarket_back_end/internal/utils"
	"campusmarket_back_end/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 🟢 POST /api/orders
// Transforme le panier en commandes atomiquement. Les codes de livraison en
// clair ne sont remis qu'ici : réponse + email, jamais persistés.
func PlaceOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var req struct {
		CartItems []struct {
			ProductID string `json:"productId" binding:"required"`
			Quantity  int    `json:"quantity" binding:"required"`
		} `json:"cartItems" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.CartItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier invalide"})
		return
	}

	lines := make([]workflow.CheckoutLine, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant produit invalide"})
			return
		}
		lines = append(lines, workflow.CheckoutLine{ProductID: productID, Quantity: item.Quantity})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	placed, err := deps.Orders.Checkout(ctx, userID, lines)
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Un des produits est introuvable"})
		return
	case errors.Is(err, workflow.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Commande impossible"})
		return
	}

	// Email best-effort : l'échec d'envoi ne remet pas la commande en cause.
	if buyer, err := deps.Stores.Users.FindByID(ctx, userID); err == nil {
		go func(email string, placed []workflow.PlacedOrder) {
			if err := utils.SendDeliveryCodesEmail(email, placed); err != nil {
				log.Printf("⚠️ Envoi des codes de livraison échoué: %v", err)
			}
		}(buyer.Email, placed)
	}

	orders := make([]gin.H, 0, len(placed))
	for _, p := range placed {
		notifySeller(p.Order.SellerID)
		orders = append(orders, gin.H{
			"orderId":      p.Order.ID.Hex(),
			"productId":    p.Order.ProductID.Hex(),
			"quantity":     p.Order.Quantity,
			"deliveryCode": p.Code,
		})
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Commande enregistrée", "orders": orders})
}

// notifySeller réveille le flux websocket du vendeur via Redis pub/sub.
func notifySeller(sellerID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := database.RedisClient.Publish(ctx, "orders:"+sellerID.Hex(), "new-order").Err(); err != nil {
		log.Printf("⚠️ Notification vendeur échouée: %v", err)
	}
}

// 🟢 GET /api/orders/bought
func BoughtOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	views, err := deps.Orders.ListBought(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chargement des commandes impossible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

// 🟢 GET /api/orders/sold
func SoldOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	views, err := deps.Orders.ListSold(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chargement des ventes impossible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

// 🟢 GET /api/seller/undelivered-orders
func UndeliveredOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	views, err := deps.Orders.ListPendingDeliveries(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chargement des livraisons impossible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": views})
}

// 🟢 POST /api/seller/confirm-delivery
// La livraison ne bascule qu'une fois et seulement sur le bon code : le code
// clair de l'acheteur est comparé au hash stocké.
func ConfirmDelivery(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var req struct {
		OrderID string `json:"orderId" binding:"required"`
		OTP     string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant commande invalide"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	order, err := deps.Stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if order.SellerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}

	switch err := deps.Orders.ConfirmDelivery(ctx, orderID, req.OTP); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Livraison confirmée"})
	case errors.Is(err, workflow.ErrAlreadyDelivered):
		c.JSON(http.StatusConflict, gin.H{"error": "Commande déjà livrée"})
	case errors.Is(err, workflow.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code de livraison incorrect"})
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Confirmation impossible"})
	}
}

// 🟢 POST /api/orders/:orderId/regenerate-otp
// Remplace le code de livraison : l'ancien hash est écrasé, l'ancien code ne
// passe plus. Le nouveau code part en clair (réponse + QR), jamais stocké.
func RegenerateOTP(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant commande invalide"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	order, err := deps.Stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}

	code, err := deps.Orders.RegenerateCode(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Régénération impossible"})
		return
	}

	qr, err := utils.GenerateDeliveryCodeQR(code)
	if err != nil {
		log.Printf("⚠️ Génération QR échouée: %v", err)
		qr = ""
	}
	c.JSON(http.StatusOK, gin.H{"message": "Nouveau code généré", "otp": code, "qr": qr})
}

// 🟢 POST /api/reviews/add
func AddReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var req struct {
		OrderID string `json:"orderId" binding:"required"`
		Review  string `json:"review" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant commande invalide"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	order, err := deps.Stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}

	if err := deps.Orders.AddReview(ctx, orderID, req.Review); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ajout de l'avis impossible"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avis ajouté"})
}

// 🟢 GET /api/orders/:orderId/receipt
// Reçu PDF rendu par Chrome headless, accessible à l'acheteur et au vendeur.
func OrderReceipt(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant commande invalide"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	order, err := deps.Stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if order.UserID != userID && order.SellerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}

	view, err := buildOrderView(ctx, order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Génération du reçu impossible"})
		return
	}

	pdf, err := utils.RenderReceiptPDF(*view)
	if err != nil {
		log.Printf("❌ Rendu PDF du reçu échoué: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Génération du reçu impossible"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=recu-%s.pdf", orderID.Hex()))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// buildOrderView assemble la vue jointe d'une commande isolée.
func buildOrderView(ctx context.Context, order *models.Order) (*models.OrderView, error) {
	product, err := deps.Stores.Products.FindByID(ctx, order.ProductID)
	if err != nil {
		return nil, err
	}
	view := &models.OrderView{
		ID:          order.ID,
		UserID:      order.UserID,
		ProductID:   order.ProductID,
		SellerID:    order.SellerID,
		Quantity:    order.Quantity,
		IsDelivered: order.IsDelivered,
		OrderDate:   order.OrderDate,
		Product: models.ProductSummary{
			Name:        product.Name,
			Price:       product.Price,
			Description: product.Description,
			Category:    product.Category,
		},
	}
	if seller, err := deps.Stores.Users.FindByID(ctx, order.SellerID); err == nil {
		view.Seller = &models.UserSummary{
			FirstName: seller.FirstName,
			LastName:  seller.LastName,
			Email:     seller.Email,
		}
	}
	if buyer, err := deps.Stores.Users.FindByID(ctx, order.UserID); err == nil {
		view.Buyer = &models.UserSummary{
			FirstName: buyer.FirstName,
			LastName:  buyer.LastName,
			Email:     buyer.Email,
		}
	}
	return view, nil
}
