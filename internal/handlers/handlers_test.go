package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusmarket_back_end/internal/database"
	"campusmarket_back_end/internal/middleware"
	"campusmarket_back_end/internal/models"
	"campusmarket_back_end/internal/store"
	"campusmarket_back_end/internal/utils"
	"campusmarket_back_end/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCAS valide n'importe quel ticket comme l'identité configurée.
type fakeCAS struct{ user string }

func (f fakeCAS) Validate(_ context.Context, ticket, _ string) (string, error) {
	if ticket == "" {
		return "", errors.New("ticket vide")
	}
	return f.user, nil
}

func (f fakeCAS) LoginURL(serviceURL string) string {
	return "https://cas.test/login?service=" + serviceURL
}

type fakeCaptcha struct{ reject bool }

func (f fakeCaptcha) Verify(context.Context, string) error {
	if f.reject {
		return errors.New("captcha refusé")
	}
	return nil
}

type fakeAssistant struct{ fail bool }

func (f fakeAssistant) Complete(_ context.Context, prompt string, _ []string) (string, error) {
	if f.fail {
		return "", errors.New("amont indisponible")
	}
	return "echo: " + prompt, nil
}

type fakeCodeHasher struct{}

func (fakeCodeHasher) Hash(code string) (string, error) { return "hash:" + code, nil }
func (fakeCodeHasher) Compare(hash, code string) bool   { return hash == "hash:"+code }

type testEnv struct {
	router *gin.Engine
	stores *store.Stores
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Client Redis volontairement injoignable : tous les usages Redis des
	// handlers sous test sont best-effort et doivent juste échouer vite.
	database.RedisClient = redis.NewClient(&redis.Options{
		Addr:        "localhost:0",
		DialTimeout: time.Millisecond,
		MaxRetries:  -1,
	})
	database.Redis = database.RedisClient

	stores := store.NewMemoryStores()
	Init(Deps{
		Stores:    stores,
		Orders:    workflow.NewOrderService(stores, fakeCodeHasher{}),
		Carts:     workflow.NewCartService(stores),
		CAS:       fakeCAS{user: "test@students.example.edu"},
		Captcha:   fakeCaptcha{},
		Assistant: fakeAssistant{},
	})

	r := gin.New()
	registerTestRoutes(r)
	return &testEnv{router: r, stores: stores}
}

// registerTestRoutes reproduit la table de internal/routes sans l'importer
// (routes importe handlers, l'importer ici créerait un cycle). Le test de
// internal/routes vérifie que la vraie table expose bien ces chemins.
func registerTestRoutes(r *gin.Engine) {
	r.POST("/signup", Signup)
	r.GET("/api/signup/cas/validate", SignupCASValidate)
	r.POST("/api/login", Login)
	r.GET("/api/cas/validate", LoginCASValidate)
	r.POST("/logout", Logout)
	r.POST("/api/clear-session", ClearSession)

	authed := r.Group("/", middleware.AuthRequired())
	{
		authed.GET("/check-auth", CheckAuth)
		authed.GET("/api/user/me", Me)
		authed.GET("/api/profile", GetProfile)
		authed.PUT("/api/profile", UpdateProfile)
		authed.POST("/api/sell", SellProduct)
		authed.GET("/api/home", Home)
		authed.GET("/api/categories", Categories)
		authed.GET("/api/product/:id", ProductDetail)
		authed.GET("/api/products/search", SearchProducts)
		authed.GET("/api/products/initial", InitialProducts)
		authed.GET("/api/cart", GetCart)
		authed.POST("/api/cart/add", AddToCart)
		authed.GET("/api/cart/check", CheckCart)
		authed.PUT("/api/cart/update", UpdateCart)
		authed.DELETE("/api/cart/:productId", RemoveFromCart)
		authed.POST("/api/orders", PlaceOrders)
		authed.GET("/api/orders/bought", BoughtOrders)
		authed.GET("/api/orders/sold", SoldOrders)
		authed.GET("/api/seller/undelivered-orders", UndeliveredOrders)
		authed.POST("/api/seller/confirm-delivery", ConfirmDelivery)
		authed.POST("/api/orders/:orderId/regenerate-otp", RegenerateOTP)
		authed.GET("/api/orders/:orderId/receipt", OrderReceipt)
		authed.POST("/api/reviews/add", AddReview)
		authed.POST("/api/chat", Chat)
		authed.POST("/api/chat/reset", ChatReset)
		authed.GET("/ws/seller/orders", SellerOrdersWS)
	}
}

func (e *testEnv) addUser(t *testing.T, email string) models.User {
	t.Helper()
	hash, err := utils.HashPassword("motdepasse")
	require.NoError(t, err)
	u := models.User{
		FirstName: "Test", LastName: "User", Email: email,
		Age: 21, ContactNumber: "9999999999", Password: hash, Reviews: []string{},
	}
	require.NoError(t, e.stores.Users.Insert(context.Background(), &u))
	return u
}

func (e *testEnv) addProduct(t *testing.T, seller models.User, name string, price float64) models.Product {
	t.Helper()
	p := models.Product{
		Name: name, Price: price, Description: "desc", Category: "books",
		SellerID: seller.ID, CreatedAt: time.Now(),
	}
	require.NoError(t, e.stores.Products.Insert(context.Background(), &p))
	return p
}

// do exécute une requête, authentifiée quand as est non nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, as *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, err := utils.GenerateSessionToken(as.ID.Hex())
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: token})
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAuthRequiredRejectsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/cart", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredAcceptsBearerToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "bearer@students.example.edu")
	token, err := utils.GenerateSessionToken(user.ID.Hex())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Test", decodeJSON(t, w)["firstName"])
}

func TestMiddlewareSetsUserID(t *testing.T) {
	r := gin.New()
	r.GET("/whoami", middleware.AuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})

	token, err := utils.GenerateSessionToken("abc123")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: utils.SessionCookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc123", w.Body.String())
}

func TestSignupRejectsBadCaptcha(t *testing.T) {
	env := newTestEnv(t)
	deps.Captcha = fakeCaptcha{reject: true}

	w := env.do(t, http.MethodPost, "/signup", gin.H{
		"firstName": "A", "lastName": "B", "email": "a@students.example.edu",
		"age": 20, "contactNumber": "1234567890", "password": "x", "recaptchaToken": "bad",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "dup@students.example.edu")

	w := env.do(t, http.MethodPost, "/signup", gin.H{
		"firstName": "A", "lastName": "B", "email": "dup@students.example.edu",
		"age": 20, "contactNumber": "1234567890", "password": "x",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "login@students.example.edu")

	w := env.do(t, http.MethodPost, "/api/login", gin.H{
		"email": "login@students.example.edu", "password": "mauvais",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownEmailSameMessage(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "known@students.example.edu")

	unknown := env.do(t, http.MethodPost, "/api/login", gin.H{
		"email": "inconnu@students.example.edu", "password": "motdepasse",
	}, nil)
	wrong := env.do(t, http.MethodPost, "/api/login", gin.H{
		"email": "known@students.example.edu", "password": "mauvais",
	}, nil)

	// Email inconnu et mot de passe erroné doivent être indistinguables.
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestCASValidateExpiredState(t *testing.T) {
	env := newTestEnv(t)
	// Redis injoignable = état introuvable : on repart vers le login.
	w := env.do(t, http.MethodGet, "/api/cas/validate?ticket=ST-1&state=xyz", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=expired")
}

func TestSellAndBrowseExcludesOwnProducts(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "seller@students.example.edu")
	buyer := env.addUser(t, "buyer@students.example.edu")

	w := env.do(t, http.MethodPost, "/api/sell", gin.H{
		"name": "Vélo", "price": 2500.0, "description": "bon état", "category": "transport",
	}, &seller)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	asBuyer := env.do(t, http.MethodGet, "/api/home", nil, &buyer)
	require.Equal(t, http.StatusOK, asBuyer.Code)
	body := decodeJSON(t, asBuyer)
	assert.Len(t, body["products"], 1)
	assert.EqualValues(t, 1, body["totalPages"])

	asSeller := env.do(t, http.MethodGet, "/api/home", nil, &seller)
	require.Equal(t, http.StatusOK, asSeller.Code)
	assert.Empty(t, decodeJSON(t, asSeller)["products"], "le vendeur ne voit pas ses propres produits")
}

func TestHomePaginatesByEighteen(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "grossiste@students.example.edu")
	buyer := env.addUser(t, "page@students.example.edu")
	for i := 0; i < 19; i++ {
		env.addProduct(t, seller, fmt.Sprintf("Article %02d", i), float64(100+i))
	}

	w := env.do(t, http.MethodGet, "/api/home", nil, &buyer)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Len(t, body["products"], 18, "la première page contient 18 produits")
	assert.EqualValues(t, 2, body["totalPages"])

	w = env.do(t, http.MethodGet, "/api/home?page=2", nil, &buyer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeJSON(t, w)["products"], 1)
}

func TestSellRejectsNegativePrice(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "neg@students.example.edu")

	w := env.do(t, http.MethodPost, "/api/sell", gin.H{
		"name": "X", "price": -5.0, "description": "d", "category": "c",
	}, &seller)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductDetailIncludesSellerReviews(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "avis@students.example.edu")
	require.NoError(t, env.stores.Users.AppendReview(context.Background(), seller.ID, "très fiable"))
	buyer := env.addUser(t, "curieux@students.example.edu")
	p := env.addProduct(t, seller, "Lampe", 120)

	w := env.do(t, http.MethodGet, "/api/product/"+p.ID.Hex(), nil, &buyer)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	sellerInfo, ok := body["seller"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"très fiable"}, sellerInfo["reviews"])
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "v@students.example.edu")
	buyer := env.addUser(t, "a@students.example.edu")
	p := env.addProduct(t, seller, "Table", 700)

	w := env.do(t, http.MethodPost, "/api/cart/add", gin.H{"productId": p.ID.Hex()}, &buyer)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/cart/check?productId="+p.ID.Hex(), nil, &buyer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeJSON(t, w)["inCart"])

	w = env.do(t, http.MethodPut, "/api/cart/update", gin.H{"productId": p.ID.Hex(), "quantity": 3}, &buyer)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/cart", nil, &buyer)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decodeJSON(t, w)["cart"].([]any)
	require.Len(t, cart, 1)
	assert.EqualValues(t, 3, cart[0].(map[string]any)["quantity"])

	w = env.do(t, http.MethodDelete, "/api/cart/"+p.ID.Hex(), nil, &buyer)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/cart", nil, &buyer)
	assert.Empty(t, decodeJSON(t, w)["cart"])
}

func TestCartUpdateRejectsZeroQuantity(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "vz@students.example.edu")
	buyer := env.addUser(t, "az@students.example.edu")
	p := env.addProduct(t, seller, "Chaise", 300)

	w := env.do(t, http.MethodPost, "/api/cart/add", gin.H{"productId": p.ID.Hex(), "quantity": 2}, &buyer)
	require.Equal(t, http.StatusOK, w.Code)

	// binding:"required" rejette déjà quantity=0 avant le workflow.
	w = env.do(t, http.MethodPut, "/api/cart/update", gin.H{"productId": p.ID.Hex(), "quantity": 0}, &buyer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "vendeur@students.example.edu")
	buyer := env.addUser(t, "acheteur@students.example.edu")
	p := env.addProduct(t, seller, "Cycle", 2500)

	w := env.do(t, http.MethodPost, "/api/orders", gin.H{
		"cartItems": []gin.H{{"productId": p.ID.Hex(), "quantity": 1}},
	}, &buyer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orders := decodeJSON(t, w)["orders"].([]any)
	require.Len(t, orders, 1)
	first := orders[0].(map[string]any)
	code := first["deliveryCode"].(string)
	orderID := first["orderId"].(string)
	assert.Len(t, code, 6)

	w = env.do(t, http.MethodGet, "/api/seller/undelivered-orders", nil, &seller)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeJSON(t, w)["orders"], 1)

	// Mauvais code : rien ne bouge.
	w = env.do(t, http.MethodPost, "/api/seller/confirm-delivery", gin.H{
		"orderId": orderID, "otp": "000000",
	}, &seller)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/seller/confirm-delivery", gin.H{
		"orderId": orderID, "otp": code,
	}, &seller)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Rejouer la confirmation échoue : la livraison est monotone.
	w = env.do(t, http.MethodPost, "/api/seller/confirm-delivery", gin.H{
		"orderId": orderID, "otp": code,
	}, &seller)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/orders/sold", nil, &seller)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeJSON(t, w)["orders"], 1)

	w = env.do(t, http.MethodGet, "/api/orders/bought", nil, &buyer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeJSON(t, w)["orders"], 1)
}

func TestConfirmDeliveryRejectsOtherSeller(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "bon@students.example.edu")
	intrus := env.addUser(t, "intrus@students.example.edu")
	buyer := env.addUser(t, "client@students.example.edu")
	p := env.addProduct(t, seller, "Four", 1500)

	w := env.do(t, http.MethodPost, "/api/orders", gin.H{
		"cartItems": []gin.H{{"productId": p.ID.Hex(), "quantity": 1}},
	}, &buyer)
	require.Equal(t, http.StatusCreated, w.Code)
	first := decodeJSON(t, w)["orders"].([]any)[0].(map[string]any)

	w = env.do(t, http.MethodPost, "/api/seller/confirm-delivery", gin.H{
		"orderId": first["orderId"], "otp": first["deliveryCode"],
	}, &intrus)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCheckoutUnknownProductLeavesNothing(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.addUser(t, "seul@students.example.edu")

	w := env.do(t, http.MethodPost, "/api/orders", gin.H{
		"cartItems": []gin.H{{"productId": "0123456789abcdef01234567", "quantity": 1}},
	}, &buyer)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/orders/bought", nil, &buyer)
	assert.Empty(t, decodeJSON(t, w)["orders"])
}

func TestRegenerateOTPOwnership(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "s@students.example.edu")
	buyer := env.addUser(t, "b@students.example.edu")
	autre := env.addUser(t, "autre@students.example.edu")
	p := env.addProduct(t, seller, "Radio", 450)

	w := env.do(t, http.MethodPost, "/api/orders", gin.H{
		"cartItems": []gin.H{{"productId": p.ID.Hex(), "quantity": 1}},
	}, &buyer)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeJSON(t, w)["orders"].([]any)[0].(map[string]any)["orderId"].(string)

	w = env.do(t, http.MethodPost, "/api/orders/"+orderID+"/regenerate-otp", nil, &autre)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/orders/"+orderID+"/regenerate-otp", nil, &buyer)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Len(t, body["otp"], 6)
	assert.Contains(t, body["qr"], "data:image/png;base64,")
}

func TestAddReviewOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "noté@students.example.edu")
	buyer := env.addUser(t, "notant@students.example.edu")
	p := env.addProduct(t, seller, "Piano", 9000)

	w := env.do(t, http.MethodPost, "/api/orders", gin.H{
		"cartItems": []gin.H{{"productId": p.ID.Hex(), "quantity": 1}},
	}, &buyer)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeJSON(t, w)["orders"].([]any)[0].(map[string]any)["orderId"].(string)

	w = env.do(t, http.MethodPost, "/api/reviews/add", gin.H{
		"orderId": orderID, "review": "Impeccable",
	}, &buyer)
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := env.stores.Users.FindByID(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Impeccable"}, updated.Reviews)
}

func TestChatDegradesWhenAssistantDown(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "chat@students.example.edu")
	deps.Assistant = fakeAssistant{fail: true}

	w := env.do(t, http.MethodPost, "/api/chat", gin.H{"prompt": "bonjour"}, &user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeJSON(t, w)["response"], "Désolé")
}

func TestChatRepliesWithAssistant(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "chat2@students.example.edu")

	w := env.do(t, http.MethodPost, "/api/chat", gin.H{"prompt": "prix du vélo ?"}, &user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "echo: prix du vélo ?", decodeJSON(t, w)["response"])
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "moi@students.example.edu")
	env.addUser(t, "pris@students.example.edu")

	w := env.do(t, http.MethodPut, "/api/profile", gin.H{
		"firstName": "Test", "lastName": "User", "email": "pris@students.example.edu",
		"age": 22, "contactNumber": "9999999999",
	}, &user)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateProfilePersists(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "avant@students.example.edu")

	w := env.do(t, http.MethodPut, "/api/profile", gin.H{
		"firstName": "Nouveau", "lastName": "Nom", "email": "apres@students.example.edu",
		"age": 23, "contactNumber": "8888888888",
	}, &user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated, err := env.stores.Users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nouveau", updated.FirstName)
	assert.Equal(t, "apres@students.example.edu", updated.Email)
}

func TestSearchFallsBackToStore(t *testing.T) {
	env := newTestEnv(t)
	seller := env.addUser(t, "cherche@students.example.edu")
	buyer := env.addUser(t, "trouve@students.example.edu")
	env.addProduct(t, seller, "Calculatrice scientifique", 800)

	// Sans Elasticsearch configuré, la recherche retombe sur le store.
	w := env.do(t, http.MethodGet, "/api/products/search?q=calcul", nil, &buyer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeJSON(t, w)["products"], 1)
}
