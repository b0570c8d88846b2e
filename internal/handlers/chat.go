package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"campusmarket_back_end/internal/database"

	"github.com/gin-gonic/gin"
)

const (
	chatTTL     = 24 * time.Hour
	chatTimeout = 30 * time.Second
)

// 🟢 POST /api/chat
// Proxy vers l'assistant : l'historique Redis donne le contexte, une panne
// amont dégrade en excuse générique au lieu d'une erreur.
func Chat(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var req struct {
		Prompt string `json:"prompt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message vide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), chatTimeout)
	defer cancel()

	key := "chat:" + userID.Hex()
	history, err := database.RedisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		history = nil
	}

	response, err := deps.Assistant.Complete(ctx, req.Prompt, history)
	if err != nil {
		log.Printf("⚠️ Assistant indisponible: %v", err)
		response = "Désolé, je ne peux pas répondre pour le moment. Réessayez plus tard."
	} else {
		database.RedisClient.RPush(ctx, key, "User: "+req.Prompt, "AI: "+response)
		database.RedisClient.Expire(ctx, key, chatTTL)
	}

	c.JSON(http.StatusOK, gin.H{"response": response})
}

// 🟢 POST /api/chat/reset
func ChatReset(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	database.RedisClient.Del(ctx, "chat:"+userID.Hex())
	c.JSON(http.StatusOK, gin.H{"message": "Conversation réinitialisée"})
}
