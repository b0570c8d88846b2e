package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"campusmarket_back_end/internal/database"
	"campusmarket_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// 🟢 GET /ws/seller/orders
// Flux temps réel des livraisons en attente du vendeur. Chaque commande payée
// publie sur orders:<sellerID>, le flux repousse alors la liste à jour.
func SellerOrdersWS(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	pubsub := database.RedisClient.Subscribe(ctx, "orders:"+userID.Hex())
	defer pubsub.Close()
	ch := pubsub.Channel()

	conn.WriteJSON(map[string]interface{}{
		"type":    "connected",
		"message": "Suivi des livraisons activé",
	})
	if err := pushPendingOrders(ctx, conn, userID); err != nil {
		return
	}

	for {
		select {
		case msg, open := <-ch:
			if !open {
				return
			}
			if msg.Payload != "new-order" {
				continue
			}
			if err := pushPendingOrders(ctx, conn, userID); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-time.After(30 * time.Second):
			// Ping pour garder la connexion active
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func pushPendingOrders(ctx context.Context, conn *websocket.Conn, sellerID primitive.ObjectID) error {
	callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	views, err := deps.Orders.ListPendingDeliveries(callCtx, sellerID)
	if err != nil {
		log.Printf("⚠️ Chargement des livraisons pour le flux échoué: %v", err)
		views = []models.OrderView{}
	}
	return conn.WriteJSON(map[string]interface{}{
		"type":   "pending_orders",
		"orders": views,
		"count":  len(views),
	})
}
