package routes

import (
	"campusmarket_back_end/internal/handlers"
	"campusmarket_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Authentification (flux CAS : signup/login garent l'état, les callbacks
	// valident le ticket)
	r.POST("/signup", handlers.Signup)
	r.GET("/api/signup/cas/validate", handlers.SignupCASValidate)
	r.POST("/api/login", handlers.Login)
	r.GET("/api/cas/validate", handlers.LoginCASValidate)
	r.POST("/logout", handlers.Logout)
	r.POST("/api/clear-session", handlers.ClearSession)

	authed := r.Group("/", middleware.AuthRequired())
	{
		authed.GET("/check-auth", handlers.CheckAuth)
		authed.GET("/api/user/me", handlers.Me)

		// Profil
		authed.GET("/api/profile", handlers.GetProfile)
		authed.PUT("/api/profile", handlers.UpdateProfile)

		// Catalogue
		authed.POST("/api/sell", handlers.SellProduct)
		authed.GET("/api/home", handlers.Home)
		authed.GET("/api/categories", handlers.Categories)
		authed.GET("/api/product/:id", handlers.ProductDetail)
		authed.GET("/api/products/search", handlers.SearchProducts)
		authed.GET("/api/products/initial", handlers.InitialProducts)

		// Panier
		authed.GET("/api/cart", handlers.GetCart)
		authed.POST("/api/cart/add", handlers.AddToCart)
		authed.GET("/api/cart/check", handlers.CheckCart)
		authed.PUT("/api/cart/update", handlers.UpdateCart)
		authed.DELETE("/api/cart/:productId", handlers.RemoveFromCart)

		// Commandes et livraisons
		authed.POST("/api/orders", handlers.PlaceOrders)
		authed.GET("/api/orders/bought", handlers.BoughtOrders)
		authed.GET("/api/orders/sold", handlers.SoldOrders)
		authed.GET("/api/seller/undelivered-orders", handlers.UndeliveredOrders)
		authed.POST("/api/seller/confirm-delivery", handlers.ConfirmDelivery)
		authed.POST("/api/orders/:orderId/regenerate-otp", handlers.RegenerateOTP)
		authed.GET("/api/orders/:orderId/receipt", handlers.OrderReceipt)
		authed.POST("/api/reviews/add", handlers.AddReview)

		// Assistant
		authed.POST("/api/chat", handlers.Chat)
		authed.POST("/api/chat/reset", handlers.ChatReset)

		// Flux temps réel vendeur
		authed.GET("/ws/seller/orders", handlers.SellerOrdersWS)
	}
}
