package main

import (
	"context"
	"log"
	"os"

	"campusmarket_back_end/internal/assistant"
	"campusmarket_back_end/internal/auth"
	"campusmarket_back_end/internal/config"
	"campusmarket_back_end/internal/database"
	"campusmarket_back_end/internal/handlers"
	"campusmarket_back_end/internal/routes"
	"campusmarket_back_end/internal/store"
	"campusmarket_back_end/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()
	database.ConnectDatabases()
	defer database.CloseMongo()

	warmupRedisCache()

	stores := store.NewMongoStores(database.Mongo, database.MongoDB)
	handlers.Init(handlers.Deps{
		Stores:    stores,
		Orders:    workflow.NewOrderService(stores, workflow.NewBcryptHasher()),
		Carts:     workflow.NewCartService(stores),
		CAS:       auth.NewCASClient(),
		Captcha:   auth.NewGoogleCaptcha(),
		Assistant: assistant.NewGeminiClient(),
	})

	r := gin.Default()
	r.Use(cors.New(corsConfig()))
	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Println("🚀 Serveur CampusMarket lancé sur le port", port)
	r.Run(":" + port)
}

// corsConfig autorise le frontend avec cookies (credentials).
func corsConfig() cors.Config {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3001"
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = []string{frontend}
	cfg.AllowCredentials = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cfg
}

// warmupRedisCache pré-chauffe le cache Redis pour éviter la latence du premier appel
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.RedisClient.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
