package routes_test

import (
	"net/http"
	"testing"

	"campusmarket_back_end/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// La table de routes est aussi reproduite dans les tests de handlers (qui ne
// peuvent pas importer ce package) : ce test fige la vraie table pour que
// les deux ne divergent pas silencieusement.
func TestRegisterRoutesExposesFullTable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	routes.RegisterRoutes(r)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		http.MethodPost + " /signup",
		http.MethodGet + " /api/signup/cas/validate",
		http.MethodPost + " /api/login",
		http.MethodGet + " /api/cas/validate",
		http.MethodPost + " /logout",
		http.MethodPost + " /api/clear-session",
		http.MethodGet + " /check-auth",
		http.MethodGet + " /api/user/me",
		http.MethodGet + " /api/profile",
		http.MethodPut + " /api/profile",
		http.MethodPost + " /api/sell",
		http.MethodGet + " /api/home",
		http.MethodGet + " /api/categories",
		http.MethodGet + " /api/product/:id",
		http.MethodGet + " /api/products/search",
		http.MethodGet + " /api/products/initial",
		http.MethodGet + " /api/cart",
		http.MethodPost + " /api/cart/add",
		http.MethodGet + " /api/cart/check",
		http.MethodPut + " /api/cart/update",
		http.MethodDelete + " /api/cart/:productId",
		http.MethodPost + " /api/orders",
		http.MethodGet + " /api/orders/bought",
		http.MethodGet + " /api/orders/sold",
		http.MethodGet + " /api/seller/undelivered-orders",
		http.MethodPost + " /api/seller/confirm-delivery",
		http.MethodPost + " /api/orders/:orderId/regenerate-otp",
		http.MethodGet + " /api/orders/:orderId/receipt",
		http.MethodPost + " /api/reviews/add",
		http.MethodPost + " /api/chat",
		http.MethodPost + " /api/chat/reset",
		http.MethodGet + " /ws/seller/orders",
	}
	for _, want := range expected {
		assert.True(t, registered[want], "route manquante: %s", want)
	}
	assert.Len(t, registered, len(expected))
}
