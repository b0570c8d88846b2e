package handlers

import (
	"context"
	"time"

	"campusmarket_back_end/internal/assistant"
	"campusmarket_back_end/internal/auth"
	"campusmarket_back_end/internal/store"
	"campusmarket_back_end/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dépendances partagées par tous les handlers, injectées au démarrage.
type Deps struct {
	Stores    *store.Stores
	Orders    *workflow.OrderService
	Carts     *workflow.CartService
	CAS       auth.IdentityAssertionService
	Captcha   auth.CaptchaVerifier
	Assistant assistant.CompletionService
}

var deps Deps

func Init(d Deps) {
	deps = d
}

func requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}

// currentUserID relit l'identifiant posé par le middleware AuthRequired.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
